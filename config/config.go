// Package config reads the JSON file describing one experiment: the calibration of both
// cameras, where their frames are stored and how they should be processed.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/stereokin/stereokin/framematch"
	"github.com/stereokin/stereokin/logging"
	"github.com/stereokin/stereokin/pipeline"
	"github.com/stereokin/stereokin/rimage/transform"
	"github.com/stereokin/stereokin/spatialmath"
	"github.com/stereokin/stereokin/vision/finder"
)

const maxFileSize = 1 << 20

var (
	// ErrMissingField is returned for every required key absent from the file.
	ErrMissingField = errors.New("missing required field")
	// ErrFramerateMismatch is returned when the two cameras declare different framerates.
	ErrFramerateMismatch = transform.ErrFramerateMismatch
)

// Matching policies.
const (
	MatchByIndex            = "index"
	MatchByClosestTimestamp = "closest_timestamp"
)

// CameraConfig is the calibration of one camera. Angles are in degrees and apply about the
// world x, y and z axes in that order.
type CameraConfig struct {
	FocalX           float64   `json:"focalX"`
	FocalY           float64   `json:"focalY"`
	Skew             float64   `json:"skew"`
	PrincipalPointX  float64   `json:"principalPointX"`
	PrincipalPointY  float64   `json:"principalPointY"`
	Position         []float64 `json:"position"`
	Yaw              float64   `json:"yaw"`
	Pitch            float64   `json:"pitch"`
	Roll             float64   `json:"roll"`
	Framerate        float64   `json:"framerate"`
	ImagesFolderPath string    `json:"imagesFolderPath"`
}

var requiredCameraFields = []string{
	"focalX", "focalY", "skew", "principalPointX", "principalPointY",
	"position", "yaw", "pitch", "roll", "framerate", "imagesFolderPath",
}

// DetectionConfig selects the finder.
type DetectionConfig struct {
	Method      string                 `json:"method,omitempty"`
	ColorDomain string                 `json:"colorDomain,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// OutputConfig says where results go.
type OutputConfig struct {
	CSV      string `json:"csv,omitempty"`
	PlotDir  string `json:"plotDir,omitempty"`
	DebugDir string `json:"debugDir,omitempty"`
}

// Config is an experiment file.
type Config struct {
	LeftCamera     CameraConfig    `json:"leftCamera"`
	RightCamera    CameraConfig    `json:"rightCamera"`
	Detection      DetectionConfig `json:"detection,omitempty"`
	PostProcessing string          `json:"postProcessing,omitempty"`
	Matching       string          `json:"matching,omitempty"`
	Stride         int             `json:"stride,omitempty"`
	Workers        int             `json:"workers,omitempty"`
	Output         OutputConfig    `json:"output,omitempty"`
}

// Read loads and validates the experiment file at path. Relative image folders are resolved
// against the directory of the file.
func Read(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	if info.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	//nolint:gosec
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data, filepath.Dir(cleanPath))
}

// Parse decodes and validates an experiment file. baseDir anchors relative image folders.
func Parse(data []byte, baseDir string) (*Config, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse config JSON")
	}
	if err := checkRequired(raw); err != nil {
		return nil, err
	}

	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      &conf,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	for _, cam := range []*CameraConfig{&conf.LeftCamera, &conf.RightCamera} {
		if cam.ImagesFolderPath != "" && !filepath.IsAbs(cam.ImagesFolderPath) && baseDir != "" {
			cam.ImagesFolderPath = filepath.Join(baseDir, cam.ImagesFolderPath)
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func checkRequired(raw map[string]interface{}) error {
	var errs error
	for _, key := range []string{"leftCamera", "rightCamera"} {
		cam, ok := raw[key].(map[string]interface{})
		if !ok {
			errs = multierr.Append(errs, errors.Wrapf(ErrMissingField, "%s", key))
			continue
		}
		for _, field := range requiredCameraFields {
			if _, ok := cam[field]; !ok {
				errs = multierr.Append(errs, errors.Wrapf(ErrMissingField, "%s.%s", key, field))
			}
		}
	}
	return errs
}

// Validate checks values that decode fine but cannot describe an experiment.
func (c *Config) Validate() error {
	var errs error
	for _, named := range []struct {
		name string
		cam  CameraConfig
	}{{"leftCamera", c.LeftCamera}, {"rightCamera", c.RightCamera}} {
		name, cam := named.name, named.cam
		if len(cam.Position) != 3 {
			errs = multierr.Append(errs, errors.Wrapf(transform.ErrBadMatrixShape,
				"%s.position: expected 3 components, got %d", name, len(cam.Position)))
		}
		if !(cam.Framerate > 0) {
			errs = multierr.Append(errs, errors.Wrapf(transform.ErrInvalidFramerate, "%s.framerate", name))
		}
	}
	if errs != nil {
		return errs
	}
	if c.LeftCamera.Framerate != c.RightCamera.Framerate {
		return errors.Wrapf(ErrFramerateMismatch, "left %v fps, right %v fps", c.LeftCamera.Framerate, c.RightCamera.Framerate)
	}
	if c.Stride < 0 {
		return errors.Wrapf(framematch.ErrInvalidStride, "got %d", c.Stride)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Matching {
	case "", MatchByIndex, MatchByClosestTimestamp:
	default:
		return errors.Errorf("unknown matching policy %q", c.Matching)
	}
	if _, err := finder.ParseColorDomain(c.Detection.ColorDomain); err != nil {
		return err
	}
	if _, err := finder.NewSeriesFilter(finder.PostProcessing(c.PostProcessing)); err != nil {
		return err
	}
	return nil
}

// BuildCamera builds the camera model described by cam.
func BuildCamera(id transform.CameraIdentifier, cam CameraConfig) (*transform.CameraModel, error) {
	if len(cam.Position) != 3 {
		return nil, errors.Wrapf(transform.ErrBadMatrixShape, "position: expected 3 components, got %d", len(cam.Position))
	}
	return transform.NewCameraModelFromParameters(
		id,
		transform.PinholeCameraIntrinsics{
			Fx: cam.FocalX, Fy: cam.FocalY, Skew: cam.Skew, Ppx: cam.PrincipalPointX, Ppy: cam.PrincipalPointY,
		},
		r3.Vector{X: cam.Position[0], Y: cam.Position[1], Z: cam.Position[2]},
		spatialmath.NewEulerAnglesFromDegrees(cam.Yaw, cam.Pitch, cam.Roll),
		cam.Framerate,
	)
}

// BuildStereoRig builds both cameras.
func (c *Config) BuildStereoRig() (*transform.StereoRig, error) {
	left, err := BuildCamera(transform.LeftCamera, c.LeftCamera)
	if err != nil {
		return nil, errors.Wrap(err, "leftCamera")
	}
	right, err := BuildCamera(transform.RightCamera, c.RightCamera)
	if err != nil {
		return nil, errors.Wrap(err, "rightCamera")
	}
	return transform.NewStereoRig(left, right)
}

// Matcher returns the configured frame pairing policy.
func (c *Config) Matcher() framematch.Matcher {
	fps := c.LeftCamera.Framerate
	if c.Matching == MatchByClosestTimestamp {
		return framematch.ClosestTimestampMatcher{
			Left:      framematch.FilenameSequenceCaptureTime(fps),
			Right:     framematch.FilenameSequenceCaptureTime(fps),
			Framerate: fps,
		}
	}
	return framematch.IndexMatcher{Framerate: fps}
}

// BuildExperiment builds the rig and an experiment configured as the file says.
func (c *Config) BuildExperiment(logger logging.Logger) (*pipeline.Experiment, error) {
	rig, err := c.BuildStereoRig()
	if err != nil {
		return nil, err
	}
	e, err := pipeline.NewExperiment(rig, pipeline.FrameSource{
		LeftDir:  c.LeftCamera.ImagesFolderPath,
		RightDir: c.RightCamera.ImagesFolderPath,
	}, logger)
	if err != nil {
		return nil, err
	}
	domain, err := finder.ParseColorDomain(c.Detection.ColorDomain)
	if err != nil {
		return nil, err
	}
	if err := e.SetColorDomain(domain); err != nil {
		return nil, err
	}
	method := finder.FindCircles
	if c.Detection.Method != "" {
		method = finder.Method(c.Detection.Method)
	}
	if err := e.SetFinderMethod(method, c.Detection.Parameters); err != nil {
		return nil, err
	}
	if err := e.SetPostProcessing(finder.PostProcessing(c.PostProcessing)); err != nil {
		return nil, err
	}
	if c.Stride > 0 {
		if err := e.SetStride(c.Stride); err != nil {
			return nil, err
		}
	}
	e.SetWorkers(c.Workers)
	e.SetMatcher(c.Matcher())
	e.SetDebugDir(c.Output.DebugDir)
	return e, nil
}

// Schema returns the JSON schema of an experiment file.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
