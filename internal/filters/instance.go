package filters

import (
	"fmt"

	"go.uber.org/atomic"
	"gocv.io/x/gocv"
)

// NoComponent is passed to UpdateParameter for scalar kinds
const NoComponent = -1

// Instance holds the live parameter values of one kind.
// Each component is its own atomic cell; readers may observe a half-updated vector.
type Instance struct {
	kind  Kind
	cells []*atomic.Float64
}

// NewInstance creates an instance initialized with the kind's defaults
func NewInstance(kind Kind) *Instance {
	in := &Instance{
		kind:  kind,
		cells: make([]*atomic.Float64, kind.Shape.Components()),
	}
	for i := range in.cells {
		in.cells[i] = atomic.NewFloat64(kind.Default[i])
	}
	return in
}

// NewInstances creates one instance per registered kind, indexed by id
func NewInstances() []*Instance {
	kinds := Kinds()
	instances := make([]*Instance, len(kinds))
	for i, k := range kinds {
		instances[i] = NewInstance(k)
	}
	return instances
}

func (in *Instance) Kind() Kind {
	return in.kind
}

func (in *Instance) ID() int {
	return in.kind.ID
}

func (in *Instance) DisplayName() string {
	return in.kind.DisplayName
}

func (in *Instance) String() string {
	return in.kind.DisplayName
}

// Parameters returns a snapshot of the current values
func (in *Instance) Parameters() []float64 {
	values := make([]float64, len(in.cells))
	for i, c := range in.cells {
		values[i] = c.Load()
	}
	return values
}

// UpdateParameter stores value, clamped to the kind's range. For scalar kinds the component is
// ignored; for vector kinds it selects the slot and must be in range.
func (in *Instance) UpdateParameter(value float64, component int) {
	switch in.kind.Shape {
	case ShapeNone:
		panic(fmt.Errorf("%w: %q takes no parameter", ErrInvalidParameterComponent, in.kind.DisplayName))
	case ShapeScalar:
		component = 0
	default:
		if component < 0 || component >= len(in.cells) {
			panic(fmt.Errorf("%w: component %d for %q (shape %s)",
				ErrInvalidParameterComponent, component, in.kind.DisplayName, in.kind.Shape))
		}
	}

	in.cells[component].Store(in.kind.Range.Clamp(value))
}

// Apply runs the kind's transform with the current parameters
func (in *Instance) Apply(frame gocv.Mat) gocv.Mat {
	return in.kind.Transform(frame, in.Parameters())
}
