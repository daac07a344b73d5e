package export

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"github.com/stereokin/stereokin/kinematics"
)

// MagnitudeStats describes the norms of one series.
type MagnitudeStats struct {
	Samples int
	Mean    float64
	Max     float64
	StdDev  float64
}

// Summary describes a run at a glance.
type Summary struct {
	Frames           int
	Positions        int
	Speed            MagnitudeStats
	Acceleration     MagnitudeStats
	DistanceTraveled float64
}

func describe(series []kinematics.TimedPoint3D) MagnitudeStats {
	data := stats.Float64Data(kinematics.Magnitudes(series))
	ms := MagnitudeStats{Samples: len(data), Mean: math.NaN(), Max: math.NaN(), StdDev: math.NaN()}
	if len(data) == 0 {
		return ms
	}
	if mean, err := data.Mean(); err == nil {
		ms.Mean = mean
	}
	if maxV, err := data.Max(); err == nil {
		ms.Max = maxV
	}
	if std, err := data.StandardDeviation(); err == nil {
		ms.StdDev = std
	}
	return ms
}

// Summarize computes the magnitude statistics of the velocity and acceleration series and the
// path length of the trajectory.
func Summarize(frames int, trajectory, velocity, acceleration []kinematics.TimedPoint3D) Summary {
	dist := 0.
	for i := 1; i < len(trajectory); i++ {
		dist += trajectory[i].Vector().Sub(trajectory[i-1].Vector()).Norm()
	}
	return Summary{
		Frames:           frames,
		Positions:        len(trajectory),
		Speed:            describe(velocity),
		Acceleration:     describe(acceleration),
		DistanceTraveled: dist,
	}
}

// String renders the summary as a table.
func (s Summary) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Series", "Samples", "Mean", "Max", "Std dev"})
	t.AppendRow(table.Row{"position", s.Positions, "", "", ""})
	for _, r := range []struct {
		name string
		ms   MagnitudeStats
	}{{"speed", s.Speed}, {"acceleration", s.Acceleration}} {
		t.AppendRow(table.Row{
			r.name, r.ms.Samples,
			fmt.Sprintf("%.3f", r.ms.Mean), fmt.Sprintf("%.3f", r.ms.Max), fmt.Sprintf("%.3f", r.ms.StdDev),
		})
	}
	t.AppendFooter(table.Row{"frames", s.Frames, "distance", fmt.Sprintf("%.3f", s.DistanceTraveled), ""})
	return t.Render()
}
