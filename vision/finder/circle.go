package finder

import (
	"image"

	"github.com/samber/lo"

	"github.com/stereokin/stereokin/logging"
	"github.com/stereokin/stereokin/rimage"
	"github.com/stereokin/stereokin/spatialmath"
)

func init() {
	Register(FindCircles, Registration{
		Constructor: func(params map[string]interface{}, domain ColorDomain, logger logging.Logger) (Finder, error) {
			conf := DefaultCircleFinderConfig()
			if err := DecodeParameters(params, &conf); err != nil {
				return nil, err
			}
			return NewCircleFinder(conf, domain, logger)
		},
		Config: &CircleFinderConfig{},
	})
}

// CircleFinderConfig holds the parameters of the circular blob finder.
type CircleFinderConfig struct {
	BlurSigma     float64 `json:"blur_sigma,omitempty"`
	MinRadius     int     `json:"min_radius,omitempty"`
	MaxRadius     int     `json:"max_radius,omitempty"`
	MinDistance   float64 `json:"min_distance,omitempty"`
	EdgeThreshold float64 `json:"edge_threshold,omitempty"`
	MinVotes      float64 `json:"min_votes,omitempty"`
	SupportRatio  float64 `json:"support_ratio,omitempty"`
	MaxCandidates int     `json:"max_candidates,omitempty"`
}

// DefaultCircleFinderConfig returns the defaults for ball-sized blobs.
func DefaultCircleFinderConfig() CircleFinderConfig {
	h := rimage.DefaultHoughCircleParams()
	return CircleFinderConfig{
		BlurSigma:     1.5,
		MinRadius:     h.MinRadius,
		MaxRadius:     h.MaxRadius,
		MinDistance:   h.MinDistance,
		EdgeThreshold: h.EdgeThreshold,
		MinVotes:      h.MinVotes,
		SupportRatio:  h.SupportRatio,
		MaxCandidates: h.MaxCircles,
	}
}

func (conf CircleFinderConfig) houghParams() rimage.HoughCircleParams {
	return rimage.HoughCircleParams{
		MinRadius:     conf.MinRadius,
		MaxRadius:     conf.MaxRadius,
		MinDistance:   conf.MinDistance,
		EdgeThreshold: conf.EdgeThreshold,
		MinVotes:      conf.MinVotes,
		SupportRatio:  conf.SupportRatio,
		MaxCircles:    conf.MaxCandidates,
	}
}

// circleFinder blurs the frame and runs a circular Hough transform on one intensity channel.
type circleFinder struct {
	conf   CircleFinderConfig
	params rimage.HoughCircleParams
	domain ColorDomain
}

// NewCircleFinder returns a Finder that blurs the frame and runs a circular Hough transform.
// Candidates are ranked by the number of edge pixels on their rim.
func NewCircleFinder(conf CircleFinderConfig, domain ColorDomain, logger logging.Logger) (Finder, error) {
	params := conf.houghParams()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	logger.Debugw("circle finder ready",
		"min_radius", params.MinRadius, "max_radius", params.MaxRadius, "min_distance", params.MinDistance,
		"color_domain", domain)
	return &circleFinder{conf: conf, params: params, domain: domain}, nil
}

func (cf *circleFinder) Find(img image.Image) ([]Candidate, error) {
	m := rimage.PrepareDense(cf.domain.SingleChannel(img), cf.conf.BlurSigma)
	circles, err := rimage.DetectCircles(m, cf.params)
	if err != nil {
		return nil, err
	}
	return lo.Map(circles, func(c rimage.Circle, _ int) Candidate {
		return Candidate{
			Center: spatialmath.NewPoint2DFromR2(c.Center),
			Radius: c.Radius,
			Score:  c.Rim,
		}
	}), nil
}

// Circles converts candidates back to drawable circles.
func Circles(candidates []Candidate) []rimage.Circle {
	return lo.Map(candidates, func(c Candidate, _ int) rimage.Circle {
		return rimage.Circle{Center: c.Center.Vec(), Radius: c.Radius, Rim: c.Score}
	})
}
