package rimage

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// HoughCircleParams configures DetectCircles.
type HoughCircleParams struct {
	// MinRadius and MaxRadius bound the searched radius band, in pixels.
	MinRadius int `json:"min_radius"`
	MaxRadius int `json:"max_radius"`
	// MinDistance is the smallest allowed distance between two accepted centers.
	MinDistance float64 `json:"min_distance"`
	// EdgeThreshold is the Sobel magnitude above which a pixel votes.
	EdgeThreshold float64 `json:"edge_threshold"`
	// MinVotes is the smoothed accumulator value a center needs to be considered.
	MinVotes float64 `json:"min_votes"`
	// SupportRatio is the fraction of the circumference that must be covered by edge pixels.
	SupportRatio float64 `json:"support_ratio"`
	// MaxCircles caps the number of returned circles. Zero means no cap.
	MaxCircles int `json:"max_circles"`
}

// DefaultHoughCircleParams returns the parameters used for ball-sized blobs.
func DefaultHoughCircleParams() HoughCircleParams {
	return HoughCircleParams{
		MinRadius:     10,
		MaxRadius:     50,
		MinDistance:   100,
		EdgeThreshold: 100,
		MinVotes:      10,
		SupportRatio:  0.5,
		MaxCircles:    16,
	}
}

// Validate checks the parameters for consistency.
func (p HoughCircleParams) Validate() error {
	if p.MinRadius < 1 {
		return errors.Errorf("min_radius must be at least 1, got %d", p.MinRadius)
	}
	if p.MaxRadius < p.MinRadius {
		return errors.Errorf("max_radius (%d) must not be smaller than min_radius (%d)", p.MaxRadius, p.MinRadius)
	}
	if p.MinDistance < 0 || p.EdgeThreshold < 0 || p.MinVotes < 0 || p.SupportRatio < 0 || p.MaxCircles < 0 {
		return errors.New("hough parameters must not be negative")
	}
	return nil
}

// Circle is a detected circle in pixel coordinates.
type Circle struct {
	Center r2.Point
	Radius float64
	// Votes is the smoothed accumulator value at the center.
	Votes float64
	// Support is the share of the circumference covered by edge pixels.
	Support float64
	// Rim counts the edge pixels lying within one pixel of the radius. Circles are ranked by it.
	Rim float64
}

// maxExaminedPeaks bounds the radius estimation work on noisy accumulators.
const maxExaminedPeaks = 256

type edgePixel struct {
	x, y   int
	dx, dy float64
}

type peak struct {
	x, y  int
	votes float64
}

// DetectCircles runs a gradient-directed circular Hough transform on an intensity matrix.
// Accumulator peaks are visited by votes, highest first, and suppressed within MinDistance of
// an already accepted center. The accepted circles are returned ranked by Rim, then Votes.
func DetectCircles(m *mat.Dense, params HoughCircleParams) ([]Circle, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	h, w := m.Dims()
	edges := collectEdges(SobelGradient(m), params.EdgeThreshold)
	if len(edges) == 0 {
		return nil, nil
	}

	acc := mat.NewDense(h, w, nil)
	for _, e := range edges {
		for r := params.MinRadius; r <= params.MaxRadius; r++ {
			for _, sign := range [2]float64{1, -1} {
				cx := int(math.Round(float64(e.x) + sign*float64(r)*e.dx))
				cy := int(math.Round(float64(e.y) + sign*float64(r)*e.dy))
				if cx < 0 || cy < 0 || cx >= w || cy >= h {
					continue
				}
				acc.Set(cy, cx, acc.At(cy, cx)+1)
			}
		}
	}
	box := GetBox(3)
	acc = ConvolveGrayFloat64(acc, &box)

	peaks := localMaxima(acc, params.MinVotes)
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	if len(peaks) > maxExaminedPeaks {
		peaks = peaks[:maxExaminedPeaks]
	}

	var circles []Circle
	for _, pk := range peaks {
		center := r2.Point{X: float64(pk.x), Y: float64(pk.y)}
		if tooClose(center, circles, params.MinDistance) {
			continue
		}
		radius, support, rim := estimateRadius(center, edges, params.MinRadius, params.MaxRadius)
		if support < params.SupportRatio {
			continue
		}
		circles = append(circles, Circle{Center: center, Radius: radius, Votes: pk.votes, Support: support, Rim: rim})
	}
	sort.SliceStable(circles, func(i, j int) bool {
		if circles[i].Rim != circles[j].Rim {
			return circles[i].Rim > circles[j].Rim
		}
		return circles[i].Votes > circles[j].Votes
	})
	if params.MaxCircles > 0 && len(circles) > params.MaxCircles {
		circles = circles[:params.MaxCircles]
	}
	return circles, nil
}

func collectEdges(vf VectorField2D, threshold float64) []edgePixel {
	var edges []edgePixel
	for y := 0; y < vf.Height(); y++ {
		for x := 0; x < vf.Width(); x++ {
			g := vf.GetVec2D(x, y)
			mag := g.Magnitude()
			if mag < threshold || mag == 0 {
				continue
			}
			edges = append(edges, edgePixel{x: x, y: y, dx: g.X / mag, dy: g.Y / mag})
		}
	}
	return edges
}

// localMaxima returns the accumulator cells at least minVotes that no 8-neighbor exceeds.
// Plateaus keep only their first cell in raster order.
func localMaxima(acc *mat.Dense, minVotes float64) []peak {
	h, w := acc.Dims()
	var peaks []peak
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := acc.At(y, x)
			if v <= 0 || v < minVotes {
				continue
			}
			isMax := true
			for dy := -1; dy <= 1 && isMax; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := acc.At(ny, nx)
					// earlier neighbors win ties
					if n > v || (n == v && (dy < 0 || (dy == 0 && dx < 0))) {
						isMax = false
						break
					}
				}
			}
			if isMax {
				peaks = append(peaks, peak{x: x, y: y, votes: v})
			}
		}
	}
	return peaks
}

func tooClose(center r2.Point, accepted []Circle, minDistance float64) bool {
	for _, c := range accepted {
		if c.Center.Sub(center).Norm() < minDistance {
			return true
		}
	}
	return false
}

// estimateRadius picks the radius whose ring holds the most edge pixels around center relative
// to its circumference. It returns that radius, its support and the edge count of the ring
// widened by one pixel on each side.
func estimateRadius(center r2.Point, edges []edgePixel, minRadius, maxRadius int) (float64, float64, float64) {
	hist := make([]float64, maxRadius+2)
	for _, e := range edges {
		d := r2.Point{X: float64(e.x), Y: float64(e.y)}.Sub(center).Norm()
		r := int(math.Round(d))
		if r < minRadius-1 || r > maxRadius+1 {
			continue
		}
		hist[r]++
	}
	best, bestSupport := 0, 0.
	for r := minRadius; r <= maxRadius; r++ {
		support := hist[r] / (2 * math.Pi * float64(r))
		if support > bestSupport {
			best, bestSupport = r, support
		}
	}
	rim := 0.
	if best > 0 {
		rim = hist[best-1] + hist[best] + hist[best+1]
	}
	return float64(best), bestSupport, rim
}
