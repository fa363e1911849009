// leanplot replays a lean meter analysis log through the estimator and
// plots measured, logged and replayed roll against time.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/b3nn0/leanangle/kalman"
)

func series(rows []row, y func(i int) float64) plotter.XYs {
	xys := make(plotter.XYs, len(rows))
	if len(rows) == 0 {
		return xys
	}
	t0 := rows[0].T
	for i := range rows {
		xys[i].X = rows[i].T.Sub(t0).Seconds()
		xys[i].Y = y(i)
	}
	return xys
}

func render(rows []row, replayed []float64, out string) error {
	p := plot.New()
	p.Title.Text = "Lean Angle"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Roll (deg)"

	err := plotutil.AddLines(p,
		"accel", series(rows, func(i int) float64 { return rows[i].AccelRoll }),
		"logged", series(rows, func(i int) float64 { return rows[i].Roll }),
		"replayed", series(rows, func(i int) float64 { return replayed[i] }),
	)
	if err != nil {
		return err
	}
	return p.Save(12*vg.Inch, 6*vg.Inch, out)
}

func main() {
	def := kalman.DefaultParams()
	in := flag.String("in", "", "analysis log (csv)")
	out := flag.String("out", "lean.png", "output image")
	qAngle := flag.Float64("qangle", def.QAngle, "angle process noise")
	qBias := flag.Float64("qbias", def.QBias, "bias process noise")
	rAngle := flag.Float64("rangle", def.RAngle, "measurement noise")
	flag.Parse()

	log := logrus.New()
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.WithError(err).Fatal("can't open analysis log")
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		log.WithError(err).Fatalf("can't parse %s", *in)
	}
	replayed, err := replay(rows, kalman.Params{QAngle: *qAngle, QBias: *qBias, RAngle: *rAngle})
	if err != nil {
		log.WithError(err).Fatal("bad filter parameters")
	}
	if err := render(rows, replayed, *out); err != nil {
		log.WithError(err).Fatal("can't render plot")
	}
	log.WithField("rows", len(rows)).Infof("wrote %s", *out)
}
