// Package export writes result records and summaries to files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/inference-sim/pqsim/sim"
)

// CSVHeader is the column layout written by WriteCSV.
var CSVHeader = []string{"job", "priority", "enter_time", "exit_time", "time_in_system"}

// WriteCSV writes one row per record. Jobs that had not departed by the
// horizon leave exit_time and time_in_system empty.
func WriteCSV(w io.Writer, records []sim.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	row := make([]string, len(CSVHeader))
	for _, r := range records {
		row[0] = strconv.FormatInt(r.JobID, 10)
		row[1] = strconv.Itoa(r.Class)
		row[2] = formatFloat(r.ArrivalTime)
		row[3], row[4] = "", ""
		if d, ok := r.Sojourn(); ok {
			row[3] = formatFloat(r.DepartureTime)
			row[4] = formatFloat(d)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing csv row for job %d", r.JobID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
