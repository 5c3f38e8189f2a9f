// Package engine turns a declarative rack description into a live,
// cycle-tolerant signal-flow computation: it builds and validates the patch
// graph, resolves a deterministic per-tick evaluation order, drives the
// audio and video tick loops, and swaps the whole graph on hot reload
// without stopping either loop.
package engine

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"

	"github.com/vincesynth/vince/module"
	"github.com/vincesynth/vince/rack"
)

// Configuration error classes. Load and reload report these; the previously
// active graph stays untouched when any of them fires.
var (
	ErrUnknownModule    = errors.New("patch references unknown module")
	ErrBadPort          = errors.New("port index out of range")
	ErrKnobConflict     = errors.New("knob port fed from more than one source")
	ErrUnbreakableCycle = errors.New("cycle without a state-delaying module")
	ErrDomainCrossing   = errors.New("patch crosses signal domains without a bridge")
	ErrDuplicateID      = errors.New("duplicate module id")
	ErrEmptyRack        = errors.New("rack has no modules")
)

// edge is one validated patch. delayed and held are filled in by the
// resolver: delayed edges read the previous tick's source value, held edges
// read a bridge's atomically held value from the other domain.
type edge struct {
	src, dst rack.Port
	delayed  bool
	held     bool
}

// node is one module instance plus the descriptor it was built from. The
// descriptor is retained so a reload can tell whether the file text for this
// module actually changed.
type node struct {
	id   int
	desc rack.Descriptor
	mod  module.Module
}

// Graph is the validated module set and patch table for one rack.
type Graph struct {
	cfg   Config
	nodes map[int]*node
	order []int // ascending ids, fixed tie-break base
	edges []*edge
}

// BuildGraph instantiates the rack's modules through the kind registry and
// validates every patch against the instantiated arities. All configuration
// errors surface here or in Resolve, never at tick time.
func BuildGraph(cfg Config, r *rack.Rack) (*Graph, error) {
	if len(r.Modules) == 0 {
		return nil, ErrEmptyRack
	}

	g := &Graph{
		cfg:   cfg,
		nodes: make(map[int]*node, len(r.Modules)),
	}

	for id, desc := range r.Modules {
		if id != desc.ID {
			return nil, errors.Wrapf(ErrDuplicateID, "module %d keyed as %d", desc.ID, id)
		}
		mod, err := module.New(desc.Kind, module.Config{
			SampleRate:  cfg.SampleRate,
			FrameRate:   cfg.FrameRate,
			FrameWidth:  cfg.FrameWidth,
			FrameHeight: cfg.FrameHeight,
			Name:        desc.Name,
			Params:      desc.Params,
			Knobs:       desc.Knobs,
		})
		if err != nil {
			return nil, err
		}
		g.nodes[id] = &node{id: id, desc: desc, mod: mod}
		g.order = append(g.order, id)
	}
	sort.Ints(g.order)

	seen := make(map[rack.Patch]bool, len(r.Patches))
	knobSource := make(map[rack.Port]rack.Port)

	for _, p := range r.Patches {
		if seen[p] {
			continue
		}
		seen[p] = true

		if err := g.checkPort(p.Source); err != nil {
			return nil, err
		}
		if err := g.checkPort(p.Dest); err != nil {
			return nil, err
		}

		// Inputs sum additively, so fan-in is fine there. A knob is a
		// single control value and must have exactly one driver.
		if p.Dest.Kind == rack.Knob {
			if prev, ok := knobSource[p.Dest]; ok {
				return nil, errors.Wrapf(ErrKnobConflict,
					"%s fed from both %s and %s", p.Dest, prev, p.Source)
			}
			knobSource[p.Dest] = p.Source
		}

		e := &edge{src: p.Source, dst: p.Dest}

		srcMod := g.nodes[p.Source.Module].mod
		dstMod := g.nodes[p.Dest.Module].mod
		if srcMod.Domain() != dstMod.Domain() {
			if _, ok := srcMod.(module.CrossFeeder); !ok {
				return nil, errors.Wrapf(ErrDomainCrossing,
					"%s (%s) -> %s (%s)", p.Source, srcMod.Domain(), p.Dest, dstMod.Domain())
			}
			e.held = true
		}

		g.edges = append(g.edges, e)
	}

	return g, nil
}

func (g *Graph) checkPort(p rack.Port) error {
	n, ok := g.nodes[p.Module]
	if !ok {
		return errors.Wrapf(ErrUnknownModule, "port %s", p)
	}

	var arity int
	switch p.Kind {
	case rack.Input:
		arity = n.mod.Inputs()
	case rack.Output:
		arity = n.mod.Outputs()
	case rack.Knob:
		arity = n.mod.Knobs()
	}
	if p.Index >= arity {
		return errors.Wrapf(ErrBadPort,
			"port %s: module has %d %s ports", p, arity, p.Kind)
	}
	return nil
}

// Migrate transplants internal state from an old graph into a freshly built
// one: a module present under the same id with the same kind and the same
// static parameters keeps its old instance (oscillator phase, delay lines,
// filter history survive the reload). Knob initial values are re-applied
// only where the descriptor text changed, so a byte-identical reload leaves
// every module untouched. Returns the per-domain knob updates to apply on
// the first tick after the swap.
func Migrate(old, fresh *Graph) []KnobInit {
	if old == nil {
		return nil
	}

	var pending []KnobInit

	for _, id := range fresh.order {
		nn := fresh.nodes[id]
		on, ok := old.nodes[id]
		if !ok || on.desc.Kind != nn.desc.Kind {
			continue
		}
		if !reflect.DeepEqual(on.desc.Params, nn.desc.Params) {
			// Static config changed; the old state is for a different
			// algorithm configuration. Start fresh.
			continue
		}

		nn.mod = on.mod

		for i := 0; i < nn.mod.Knobs(); i++ {
			oldV := knobInitial(on.desc.Knobs, i)
			newV := knobInitial(nn.desc.Knobs, i)
			if oldV != newV {
				pending = append(pending, KnobInit{Mod: nn.mod, Index: i, Value: newV})
			}
		}
	}

	return pending
}

func knobInitial(knobs []float64, i int) float64 {
	if i < len(knobs) {
		return knobs[i]
	}
	return 0
}

// KnobInit is one deferred knob write, applied by the owning domain's tick
// driver on its first tick after a swap so no module is mutated while the
// old program may still be running it.
type KnobInit struct {
	Mod   module.Module
	Index int
	Value float64
}
