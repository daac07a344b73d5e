package export

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/stereokin/stereokin/kinematics"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// PlotMagnitude writes a line plot of the norm of series over time to path.
func PlotMagnitude(path, title, unit string, series []kinematics.TimedPoint3D) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = unit

	mags := kinematics.Magnitudes(series)
	pts := make(plotter.XYs, 0, len(series))
	for i, s := range series {
		pts = append(pts, plotter.XY{X: s.Timestamp, Y: mags[i]})
	}
	if len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "cannot build line")
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}
	return save(p, path)
}

// PlotTrajectory writes the x/z and x/y projections of the trajectory to path.
func PlotTrajectory(path string, trajectory []kinematics.TimedPoint3D) error {
	p := plot.New()
	p.Title.Text = "Trajectory"
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y / Z"
	p.Add(plotter.NewGrid())

	xz := make(plotter.XYs, 0, len(trajectory))
	xy := make(plotter.XYs, 0, len(trajectory))
	for _, s := range trajectory {
		xz = append(xz, plotter.XY{X: s.X, Y: s.Z})
		xy = append(xy, plotter.XY{X: s.X, Y: s.Y})
	}
	if len(trajectory) > 0 {
		for _, proj := range []struct {
			name string
			pts  plotter.XYs
		}{{"z", xz}, {"y", xy}} {
			sc, err := plotter.NewScatter(proj.pts)
			if err != nil {
				return errors.Wrap(err, "cannot build scatter")
			}
			p.Add(sc)
			p.Legend.Add(proj.name, sc)
		}
	}
	return save(p, path)
}

// PlotAll writes speed.png, acceleration.png and trajectory.png to dir.
func PlotAll(dir string, trajectory, velocity, acceleration []kinematics.TimedPoint3D) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	if err := PlotMagnitude(filepath.Join(dir, "speed.png"), "Speed magnitude over time", "Speed (m/s)", velocity); err != nil {
		return err
	}
	if err := PlotMagnitude(
		filepath.Join(dir, "acceleration.png"), "Acceleration magnitude over time", "Acceleration (m/s²)", acceleration,
	); err != nil {
		return err
	}
	return PlotTrajectory(filepath.Join(dir, "trajectory.png"), trajectory)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return errors.Wrapf(err, "cannot save plot %s", path)
	}
	return nil
}
