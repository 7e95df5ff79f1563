package export

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/inference-sim/pqsim/sim"
)

// Plot dimensions.
const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// WritePlot draws time in system against job id, one line per priority
// class, and saves it to path. The image format follows the extension
// (png, svg, pdf, ...). Jobs without a departure are left out; classes
// without completions get no line.
func WritePlot(path string, records []sim.Record, numClasses int) error {
	if filepath.Ext(path) == "" {
		return errors.Errorf("plot file %s has no extension to select a format", path)
	}

	perClass := make([]plotter.XYs, numClasses)
	for _, r := range records {
		d, ok := r.Sojourn()
		if !ok {
			continue
		}
		for r.Class >= len(perClass) {
			perClass = append(perClass, nil)
		}
		perClass[r.Class] = append(perClass[r.Class], plotter.XY{X: float64(r.JobID), Y: d})
	}

	p := plot.New()
	p.Title.Text = "Time in System"
	p.X.Label.Text = "Job"
	p.Y.Label.Text = "Time in System"
	p.Legend.Top = true

	for c, xys := range perClass {
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "plotting class %d", c)
		}
		line.Color = plotutil.Color(c)
		line.Dashes = plotutil.Dashes(c)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("class %d", c), line)
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return errors.Wrapf(err, "saving plot %s", path)
	}
	return nil
}
