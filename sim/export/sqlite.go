package export

import (
	"database/sql"
	"math"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/pqsim/sim"
	"github.com/inference-sim/pqsim/sim/analysis"
)

const (
	recordsTable = "records"
	summaryTable = "class_summary"
)

// SQLiteWriter stores result records and per-class summaries of one or more
// runs in a SQLite database. Rows carry the run's seed so replications can
// share one file.
type SQLiteWriter struct {
	*sql.DB

	Filename string
}

// NewSQLiteWriter creates the database file name.sqlite3 and its tables. An
// empty name picks a unique one. An existing file is never overwritten.
func NewSQLiteWriter(name string) (*SQLiteWriter, error) {
	if name == "" {
		name = "pqsim_" + xid.New().String()
	}
	filename := name
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	w := &SQLiteWriter{DB: db, Filename: filename}
	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	logrus.Infof("Database created for recording: %s", filename)
	return w, nil
}

func (w *SQLiteWriter) createTables() error {
	stmts := []string{
		`CREATE TABLE ` + recordsTable + ` (
	seed INTEGER,
	job INTEGER,
	priority INTEGER,
	enter_time REAL,
	exit_time REAL,
	time_in_system REAL
);`,
		`CREATE TABLE ` + summaryTable + ` (
	seed INTEGER,
	priority INTEGER,
	arrived INTEGER,
	completed INTEGER,
	censored INTEGER,
	mean_sojourn REAL,
	min_sojourn REAL,
	max_sojourn REAL,
	p50_sojourn REAL,
	p90_sojourn REAL,
	p99_sojourn REAL,
	jitter REAL
);`,
	}
	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			return errors.Wrap(err, "creating tables")
		}
	}
	return nil
}

// WriteRecords inserts records of the run with the given seed in one
// transaction. Censored rows store NULL exit_time and time_in_system.
func (w *SQLiteWriter) WriteRecords(seed int64, records []sim.Record) error {
	return w.inTx("INSERT INTO "+recordsTable+" VALUES (?, ?, ?, ?, ?, ?)", func(stmt *sql.Stmt) error {
		for _, r := range records {
			var exit, sojourn sql.NullFloat64
			if d, ok := r.Sojourn(); ok {
				exit = sql.NullFloat64{Float64: r.DepartureTime, Valid: true}
				sojourn = sql.NullFloat64{Float64: d, Valid: true}
			}
			if _, err := stmt.Exec(seed, r.JobID, r.Class, r.ArrivalTime, exit, sojourn); err != nil {
				return errors.Wrapf(err, "inserting job %d", r.JobID)
			}
		}
		return nil
	})
}

// WriteSummary inserts one class_summary row per class of s.
func (w *SQLiteWriter) WriteSummary(seed int64, s *analysis.Summary) error {
	return w.inTx("INSERT INTO "+summaryTable+" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", func(stmt *sql.Stmt) error {
		for _, c := range s.Classes {
			_, err := stmt.Exec(seed, c.Class, c.Arrived, c.Completed, c.Censored,
				nullable(c.MeanSojourn), nullable(c.MinSojourn), nullable(c.MaxSojourn),
				nullable(c.P50Sojourn), nullable(c.P90Sojourn), nullable(c.P99Sojourn),
				nullable(c.Jitter))
			if err != nil {
				return errors.Wrapf(err, "inserting summary of class %d", c.Class)
			}
		}
		return nil
	})
}

func (w *SQLiteWriter) inTx(query string, fill func(*sql.Stmt) error) error {
	tx, err := w.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	if err := fill(stmt); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing")
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}
