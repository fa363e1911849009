/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	datalog.go: Store finished ride sessions in SQLite.
*/

// Package datalog persists ride sessions.
package datalog

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/b3nn0/leanangle/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	start_ns  INTEGER NOT NULL,
	end_ns    INTEGER NOT NULL,
	max_right REAL NOT NULL,
	max_left  REAL NOT NULL
)`

// Record is a stored session.
type Record struct {
	ID int64 `json:"id"`
	session.Session
}

// Log is a SQLite backed session log. It is safe for concurrent use.
type Log struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Log, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrapf(err, "datalog: creating directory for %s", path)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "datalog: opening %s", path)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "datalog: creating schema")
	}
	return &Log{db: db}, nil
}

// Insert stores s and returns its row id.
func (l *Log) Insert(s session.Session) (int64, error) {
	res, err := l.db.Exec(
		`INSERT INTO sessions (start_ns, end_ns, max_right, max_left) VALUES (?, ?, ?, ?)`,
		s.Start.UnixNano(), s.End.UnixNano(), s.MaxRight, s.MaxLeft)
	if err != nil {
		return 0, errors.Wrap(err, "datalog: inserting session")
	}
	return res.LastInsertId()
}

// Recent returns up to n sessions, most recently finished first.
func (l *Log) Recent(n int) ([]Record, error) {
	rows, err := l.db.Query(
		`SELECT id, start_ns, end_ns, max_right, max_left FROM sessions ORDER BY end_ns DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, errors.Wrap(err, "datalog: querying sessions")
	}
	defer rows.Close()

	recs := make([]Record, 0, n)
	for rows.Next() {
		var (
			r          Record
			start, end int64
		)
		if err := rows.Scan(&r.ID, &start, &end, &r.MaxRight, &r.MaxLeft); err != nil {
			return nil, errors.Wrap(err, "datalog: scanning session")
		}
		r.Start = time.Unix(0, start).UTC()
		r.End = time.Unix(0, end).UTC()
		recs = append(recs, r)
	}
	return recs, errors.Wrap(rows.Err(), "datalog: reading sessions")
}

// Count returns the number of stored sessions.
func (l *Log) Count() (int, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, errors.Wrap(err, "datalog: counting sessions")
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}
