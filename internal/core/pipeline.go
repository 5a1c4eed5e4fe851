// Ordered filter composition applied to every frame
package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"camfx/internal/filters"
)

const (
	// NoFiltersSelected describes an empty composition
	NoFiltersSelected = "no filters selected"
	// CompositionSeparator joins display names in application order
	CompositionSeparator = " > "
)

// Pipeline is the ordered list of active filter instances. Instances are borrowed from
// a fixed table indexed by filter id; each id appears at most once in the active list.
type Pipeline struct {
	mu        sync.RWMutex
	instances []*filters.Instance
	active    []*filters.Instance
	logger    *logrus.Entry
}

func NewPipeline(instances []*filters.Instance, logger *logrus.Entry) *Pipeline {
	return &Pipeline{
		instances: instances,
		active:    make([]*filters.Instance, 0, len(instances)),
		logger:    logger,
	}
}

// Instance returns the instance for id. Unknown ids panic.
func (p *Pipeline) Instance(id int) *filters.Instance {
	if id < 0 || id >= len(p.instances) {
		panic(fmt.Errorf("%w: %d", filters.ErrUnknownFilter, id))
	}
	return p.instances[id]
}

// Instances returns the fixed instance table
func (p *Pipeline) Instances() []*filters.Instance {
	result := make([]*filters.Instance, len(p.instances))
	copy(result, p.instances)
	return result
}

// Toggle deactivates id if active, otherwise appends it to the end of the composition.
// It returns the description of the resulting composition.
func (p *Pipeline) Toggle(id int) string {
	instance := p.Instance(id)

	p.mu.Lock()
	activated := true
	for i, in := range p.active {
		if in.ID() == id {
			p.active = append(p.active[:i], p.active[i+1:]...)
			activated = false
			break
		}
	}
	if activated {
		p.active = append(p.active, instance)
	}
	description := p.describeUnsafe()
	count := len(p.active)
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"filter_id":   id,
		"filter":      instance.DisplayName(),
		"activated":   activated,
		"active":      count,
		"composition": description,
	}).Info("PIPELINE: Filter toggled")

	return description
}

// Description returns the current composition in application order
func (p *Pipeline) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.describeUnsafe()
}

func (p *Pipeline) describeUnsafe() string {
	if len(p.active) == 0 {
		return NoFiltersSelected
	}
	names := make([]string, len(p.active))
	for i, in := range p.active {
		names[i] = in.DisplayName()
	}
	return strings.Join(names, CompositionSeparator)
}

// Active returns a snapshot of the active list in application order
func (p *Pipeline) Active() []*filters.Instance {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*filters.Instance, len(p.active))
	copy(result, p.active)
	return result
}

// ActiveIDs returns the ids of the active list in application order
func (p *Pipeline) ActiveIDs() []int {
	active := p.Active()
	ids := make([]int, len(active))
	for i, in := range active {
		ids[i] = in.ID()
	}
	return ids
}

func (p *Pipeline) IsActive(id int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, in := range p.active {
		if in.ID() == id {
			return true
		}
	}
	return false
}

// Clear deactivates every filter
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.WithField("previous_count", len(p.active)).Info("PIPELINE: Clearing composition")
	p.active = p.active[:0]
}

// Run folds frame through the active filters in order. The input is not modified or
// closed; the caller owns the returned Mat. If a transform panics the intermediate
// frame is released before the panic propagates.
func (p *Pipeline) Run(frame gocv.Mat) gocv.Mat {
	current := frame.Clone()
	done := false
	defer func() {
		if !done {
			current.Close()
		}
	}()

	for _, in := range p.Active() {
		result := in.Apply(current)
		current.Close()
		current = result
	}

	done = true
	return current
}
