package main

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/b3nn0/leanangle/kalman"
)

// row is one line of the daemon's analysis log.
type row struct {
	T         time.Time
	DT        float64
	AccelRoll float64
	Rate      float64
	Roll      float64
}

var columns = []string{"time", "dt", "accel_roll", "rate", "roll"}

// readRows parses an analysis log. Columns are found by header name, so
// extra or reordered columns are fine.
func readRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		idx[i] = slices.Index(header, c)
		if idx[i] < 0 {
			return nil, errors.Errorf("missing column %q", c)
		}
	}

	rows := make([]row, 0)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		var v [5]float64
		for i := 1; i < len(columns); i++ {
			v[i], err = strconv.ParseFloat(rec[idx[i]], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: %s", line, columns[i])
			}
		}
		ns, err := strconv.ParseInt(rec[idx[0]], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: time", line)
		}
		rows = append(rows, row{
			T:         time.Unix(0, ns),
			DT:        v[1],
			AccelRoll: v[2],
			Rate:      v[3],
			Roll:      v[4],
		})
	}
}

// replay runs the logged measurements through a fresh estimator.
func replay(rows []row, p kalman.Params) ([]float64, error) {
	est, err := kalman.New(p)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = est.Update(r.AccelRoll, r.Rate, r.DT)
	}
	return out, nil
}
