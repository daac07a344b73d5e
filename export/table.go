// Package export turns computed kinematics into tables, summaries and plots.
package export

import (
	"math"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/stereokin/stereokin/kinematics"
)

// Columns is the header of the kinematics table.
var Columns = []string{
	"time",
	"x_position", "y_position", "z_position",
	"x_speed", "y_speed", "z_speed",
	"x_acceleration", "y_acceleration", "z_acceleration",
}

// Table holds one row per trajectory sample. Velocity and acceleration are shorter than the
// trajectory; their missing trailing rows are NaN.
type Table struct {
	Rows [][]float64
}

// NewTable aligns the three series on the trajectory rows.
func NewTable(trajectory, velocity, acceleration []kinematics.TimedPoint3D) *Table {
	rows := make([][]float64, len(trajectory))
	for i, p := range trajectory {
		row := make([]float64, 0, len(Columns))
		row = append(row, p.Timestamp, p.X, p.Y, p.Z)
		row = append(row, coordsAt(velocity, i)...)
		row = append(row, coordsAt(acceleration, i)...)
		rows[i] = row
	}
	return &Table{Rows: rows}
}

func coordsAt(series []kinematics.TimedPoint3D, i int) []float64 {
	if i >= len(series) {
		return []float64{math.NaN(), math.NaN(), math.NaN()}
	}
	return []float64{series[i].X, series[i].Y, series[i].Z}
}

func (t *Table) writer() table.Writer {
	w := table.NewWriter()
	header := make(table.Row, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	w.AppendHeader(header)
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		w.AppendRow(row)
	}
	return w
}

// RenderCSV returns the table as comma separated values with a header line.
func (t *Table) RenderCSV() string {
	return t.writer().RenderCSV()
}

// Render returns the table formatted for a terminal.
func (t *Table) Render() string {
	return t.writer().Render()
}

// CSVPath appends the .csv suffix when name lacks it.
func CSVPath(name string) string {
	if filepath.Ext(name) != ".csv" {
		return name + ".csv"
	}
	return name
}

// WriteCSV writes the table to name, adding the .csv suffix if needed, and returns the path
// written.
func (t *Table) WriteCSV(name string) (string, error) {
	path := CSVPath(name)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", errors.Wrap(err, "cannot create output directory")
		}
	}
	if err := os.WriteFile(path, []byte(t.RenderCSV()+"\n"), 0o600); err != nil {
		return "", errors.Wrapf(err, "cannot write %s", path)
	}
	return path, nil
}
