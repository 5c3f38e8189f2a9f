package engine

import (
	"context"
	"log"

	"github.com/vincesynth/vince/rack"
)

// ReloadState names where the coordinator is in its cycle. It only ever
// leaves Stable while a reload is in flight; a failed reload returns to
// Stable with the old program still active.
type ReloadState uint8

const (
	Stable ReloadState = iota
	Building
	Validating
	Migrating
	Swapping
)

func (s ReloadState) String() string {
	switch s {
	case Building:
		return "building"
	case Validating:
		return "validating"
	case Migrating:
		return "migrating"
	case Swapping:
		return "swapping"
	default:
		return "stable"
	}
}

// Coordinator rebuilds the graph when the rack description changes and
// swaps the result into the engine between ticks. All building and
// validation happens here, off the real-time path; the only thing the tick
// drivers ever observe is the single atomic program exchange.
type Coordinator struct {
	eng    *Engine
	load   func() (*rack.Rack, error)
	events <-chan struct{}

	state  ReloadState
	active *Graph
}

// NewCoordinator wires a coordinator to an engine. load produces a freshly
// parsed rack description; events signals that the description changed.
func NewCoordinator(eng *Engine, load func() (*rack.Rack, error), events <-chan struct{}) *Coordinator {
	return &Coordinator{
		eng:    eng,
		load:   load,
		events: events,
	}
}

// State reports the coordinator's current phase.
func (c *Coordinator) State() ReloadState {
	return c.state
}

// Boot performs the initial load and swap. Unlike Reload, an error here is
// fatal: there is no previous graph to keep running.
func (c *Coordinator) Boot() error {
	return c.rebuild()
}

// Reload rebuilds from the current rack description. On any configuration
// error the active graph stays in place and the error is returned for
// surfacing to the user.
func (c *Coordinator) Reload() error {
	if err := c.rebuild(); err != nil {
		c.state = Stable
		return err
	}
	return nil
}

func (c *Coordinator) rebuild() error {
	defer func() { c.state = Stable }()

	c.state = Building
	r, err := c.load()
	if err != nil {
		return err
	}
	g, err := BuildGraph(c.eng.cfg, r)
	if err != nil {
		return err
	}

	c.state = Validating
	order, err := Resolve(g)
	if err != nil {
		return err
	}

	c.state = Migrating
	pending := Migrate(c.active, g)

	c.state = Swapping
	c.eng.Swap(Compile(g, order, pending))
	c.active = g

	return nil
}

// Run services change events until the context is canceled. Reload failures
// are logged, never fatal: the old graph keeps playing.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.events:
			if err := c.Reload(); err != nil {
				log.Printf("rack reload rejected: %v", err)
				continue
			}
			log.Printf("rack reloaded")
		}
	}
}
