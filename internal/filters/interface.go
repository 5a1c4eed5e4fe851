// Filter catalog: kinds, parameter shapes and the fixed registry
package filters

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	// ErrUnknownFilter is wrapped by lookups of an id that was never registered.
	ErrUnknownFilter = errors.New("unknown filter id")
	// ErrInvalidParameterComponent is wrapped when a component index does not fit the parameter shape.
	ErrInvalidParameterComponent = errors.New("invalid parameter component")
)

// ParameterShape describes how many values a filter takes and how they are interpreted
type ParameterShape int

const (
	ShapeNone ParameterShape = iota
	ShapeScalar
	ShapeBGR      // three bytes, blue-green-red
	ShapeBGRFloat // three floats, blue-green-red
	ShapePair     // two ints, usually width/height
)

// Components returns the number of parameter slots for the shape
func (s ParameterShape) Components() int {
	switch s {
	case ShapeScalar:
		return 1
	case ShapeBGR, ShapeBGRFloat:
		return 3
	case ShapePair:
		return 2
	default:
		return 0
	}
}

func (s ParameterShape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeScalar:
		return "scalar"
	case ShapeBGR:
		return "bgr"
	case ShapeBGRFloat:
		return "bgr-float"
	case ShapePair:
		return "pair"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Range bounds interactive adjustment, per component for vector shapes
type Range struct {
	Min float64
	Max float64
}

// Clamp bounds v to the range
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// TransformFunc maps a BGR frame and the current parameters to a new frame of the same size.
// It must not close or modify src.
type TransformFunc func(src gocv.Mat, params []float64) gocv.Mat

// Kind is an immutable catalog entry
type Kind struct {
	ID            int
	DisplayName   string
	Shape         ParameterShape
	ParameterName string
	Default       []float64
	Range         Range

	transform TransformFunc
}

// Transform runs the kind's transform on src
func (k Kind) Transform(src gocv.Mat, params []float64) gocv.Mat {
	return k.transform(src, params)
}

func (k Kind) String() string {
	return k.DisplayName
}

// Dense ids, in registration order
const (
	IDSimpleGreyscale = iota
	IDWeightedGreyscale
	IDChannelGreyscale
	IDOrFilter
	IDNegate
	IDBinarize
	IDBlur
	IDCanny
	IDEmbossedEdges
	IDGaussianBlur
	IDPencilSketch
)

var registry []Kind

// register appends a kind, assigning the next dense id
func register(name string, shape ParameterShape, paramName string, def []float64, r Range, fn TransformFunc) {
	if len(def) != shape.Components() {
		panic(fmt.Sprintf("filter %q: %d default values for shape %s", name, len(def), shape))
	}
	registry = append(registry, Kind{
		ID:            len(registry),
		DisplayName:   name,
		Shape:         shape,
		ParameterName: paramName,
		Default:       def,
		Range:         r,
		transform:     fn,
	})
}

func init() {
	register("Simple Greyscale", ShapeNone, "", nil, Range{},
		func(src gocv.Mat, _ []float64) gocv.Mat { return SimpleGreyscale(src) })
	register("Weighted Greyscale", ShapeBGRFloat, "Weights", []float64{0.07, 0.71, 0.21}, Range{0, 1},
		func(src gocv.Mat, p []float64) gocv.Mat { return WeightedGreyscale(src, [3]float64{p[0], p[1], p[2]}) })
	register("Greyscale from channel", ShapeScalar, "Channel", []float64{0}, Range{0, 2},
		func(src gocv.Mat, p []float64) gocv.Mat { return ChannelGreyscale(src, int(p[0])) })
	register("OR Filter", ShapeBGR, "Filter Color", []float64{255, 0, 255}, Range{0, 255},
		func(src gocv.Mat, p []float64) gocv.Mat {
			return OrColor(src, [3]uint8{byteParam(p[0]), byteParam(p[1]), byteParam(p[2])})
		})
	register("Negate", ShapeNone, "", nil, Range{},
		func(src gocv.Mat, _ []float64) gocv.Mat { return Negate(src) })
	register("Binarize", ShapeScalar, "Threshold", []float64{127}, Range{0, 255},
		func(src gocv.Mat, p []float64) gocv.Mat { return Binarize(src, int(p[0])) })
	register("Blur", ShapePair, "Width / Height", []float64{15, 15}, Range{1, 200},
		func(src gocv.Mat, p []float64) gocv.Mat { return Blur(src, int(p[0]), int(p[1])) })
	register("Canny", ShapePair, "Lower Threshold / Upper Threshold", []float64{50, 150}, Range{1, 300},
		func(src gocv.Mat, p []float64) gocv.Mat { return Canny(src, float32(p[0]), float32(p[1])) })
	register("Embossed Edges", ShapeNone, "", nil, Range{},
		func(src gocv.Mat, _ []float64) gocv.Mat { return EmbossedEdges(src) })
	register("Gaussian Blur", ShapePair, "Width / Height", []float64{15, 15}, Range{1, 200},
		func(src gocv.Mat, p []float64) gocv.Mat { return GaussianBlur(src, int(p[0]), int(p[1])) })
	register("Pencil Sketch", ShapeNone, "", nil, Range{},
		func(src gocv.Mat, _ []float64) gocv.Mat { return PencilSketch(src) })
}

// Kinds returns the catalog ordered by id. The slice is a copy.
func Kinds() []Kind {
	result := make([]Kind, len(registry))
	for i, k := range registry {
		k.Default = append([]float64(nil), k.Default...)
		result[i] = k
	}
	return result
}

// Count returns the registry size
func Count() int {
	return len(registry)
}

// Lookup returns the kind registered under id
func Lookup(id int) (Kind, error) {
	if id < 0 || id >= len(registry) {
		return Kind{}, fmt.Errorf("%w: %d", ErrUnknownFilter, id)
	}
	k := registry[id]
	k.Default = append([]float64(nil), k.Default...)
	return k, nil
}

// MustLookup is Lookup for ids that come from the registry itself; it panics otherwise.
func MustLookup(id int) Kind {
	k, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return k
}
