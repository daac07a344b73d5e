// Package finder locates the projectile in single frames. Detection strategies are registered
// by method name and return ranked candidates; a localizer then reduces them to one point.
package finder

import (
	"image"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/stereokin/stereokin/logging"
	"github.com/stereokin/stereokin/spatialmath"
)

// Method identifies a registered detection strategy.
type Method string

// The set of built-in detection strategies.
const (
	FindCircles = Method("find_circles")
)

// ErrFinderNotImplemented is returned when selecting a method that was never registered.
var ErrFinderNotImplemented = errors.New("finder not implemented")

func newFinderNotImplementedError(method Method) error {
	return errors.Wrapf(ErrFinderNotImplemented, "method %q", method)
}

// Candidate is one possible projectile location in a frame.
type Candidate struct {
	Center spatialmath.Point2D
	Radius float64
	Score  float64
}

// Finder is a detection strategy.
type Finder interface {
	// Find returns the candidates found in img, most confident first.
	Find(img image.Image) ([]Candidate, error)
}

// FinderFunc adapts a plain function to the Finder interface.
type FinderFunc func(img image.Image) ([]Candidate, error)

// Find calls f(img).
func (f FinderFunc) Find(img image.Image) ([]Candidate, error) {
	return f(img)
}

// Constructor builds a Finder from decoded parameters.
type Constructor func(params map[string]interface{}, domain ColorDomain, logger logging.Logger) (Finder, error)

// Registration describes a detection strategy. Config is a pointer to a zero value of the
// strategy's parameter struct and is used to publish its JSON schema.
type Registration struct {
	Constructor Constructor
	Config      interface{}
}

var (
	registryMu sync.RWMutex
	registry   = map[Method]Registration{}
)

// Register adds a detection strategy. Registering the same method twice panics.
func Register(method Method, reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[method]; ok {
		panic(errors.Errorf("trying to register two finders with the same method %q", method))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register finder %q without a constructor", method))
	}
	registry[method] = reg
}

// Lookup returns the registration of method.
func Lookup(method Method) (Registration, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[method]
	if !ok {
		return Registration{}, newFinderNotImplementedError(method)
	}
	return reg, nil
}

// New selects and builds the finder for method.
func New(method Method, params map[string]interface{}, domain ColorDomain, logger logging.Logger) (Finder, error) {
	reg, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	if err := domain.Validate(); err != nil {
		return nil, err
	}
	return reg.Constructor(params, domain, logger)
}

// RegisteredMethods lists the registered methods in sorted order.
func RegisteredMethods() []Method {
	registryMu.RLock()
	defer registryMu.RUnlock()
	methods := make([]Method, 0, len(registry))
	for m := range registry {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// RegisteredParameterSchemas maps every registered method to the JSON schema of its parameters.
func RegisteredParameterSchemas() map[Method]*jsonschema.Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()
	schemas := make(map[Method]*jsonschema.Schema, len(registry))
	for m, reg := range registry {
		if reg.Config != nil {
			schemas[m] = jsonschema.Reflect(reg.Config)
		}
	}
	return schemas
}

// DecodeParameters decodes params into out, which should already hold the defaults. Unknown
// keys are rejected.
func DecodeParameters(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(params); err != nil {
		return errors.Wrap(err, "invalid finder parameters")
	}
	return nil
}

// Localize reduces the candidates of one frame to the most confident one, or to the invalid
// point when there are none.
func Localize(candidates []Candidate) spatialmath.Point2D {
	if len(candidates) == 0 {
		return spatialmath.InvalidPoint2D()
	}
	return candidates[0].Center
}

// LocalizeSeries applies Localize to every frame.
func LocalizeSeries(series [][]Candidate) []spatialmath.Point2D {
	out := make([]spatialmath.Point2D, len(series))
	for i, c := range series {
		out[i] = Localize(c)
	}
	return out
}
