package engine

import (
	"log"

	"github.com/vincesynth/vince/module"
	"github.com/vincesynth/vince/rack"
)

// Program is a compiled evaluation plan: everything the tick drivers need,
// laid out so the hot path touches only preallocated memory. A Program is
// immutable after Compile; hot reload builds a whole new Program and swaps
// it in atomically.
type Program struct {
	// Order is the resolved module order, for introspection and tests.
	Order []int

	audio *domainProgram
	video *domainProgram

	audioSinks   []module.AudioSink
	audioFeeders []module.AudioFeeder
	noteTargets  []module.NoteReceiver
	videoSinks   []moduleRef[module.VideoSink]
	telemeters   []moduleRef[module.Telemeter]
}

type moduleRef[T any] struct {
	id  int
	ref T
}

// binding describes where one input contribution comes from.
type binding struct {
	slot    int                // output slot in the source domain's table
	prev    bool               // delayed edge: read the previous tick's table
	held    module.CrossFeeder // cross-domain: read the bridge's held value
	heldIdx int
}

type progStep struct {
	id  int
	mod module.Module

	in       [][]float64 // per-input scratch, summed fresh every tick
	outBufs  [][]float64 // rebound to the current table every tick
	outSlots []int

	inBinds   [][]binding // per input port
	knobBinds []knobBinding

	panicked bool
}

type knobBinding struct {
	knob int
	binding
}

// domainProgram is the per-domain half of a Program. Each is executed by
// exactly one tick driver, so it needs no locking of its own.
type domainProgram struct {
	steps []progStep

	// Double-buffered output tables. They swap at the start of every tick,
	// so delayed edges read exactly the prior tick's values no matter where
	// in the plan their source sits.
	cur, prev [][]float64

	pending []KnobInit
	applied bool
}

// Compile lays the resolved graph out into a Program. It cannot fail: all
// configuration errors were caught by BuildGraph and Resolve.
func Compile(g *Graph, order []int, pending []KnobInit) *Program {
	p := &Program{
		Order: order,
		audio: &domainProgram{},
		video: &domainProgram{},
	}

	frameLen := g.cfg.FrameWidth * g.cfg.FrameHeight

	domainOf := func(id int) *domainProgram {
		if g.nodes[id].mod.Domain() == module.DomainVideo {
			return p.video
		}
		return p.audio
	}
	widthOf := func(id int) int {
		if g.nodes[id].mod.Domain() == module.DomainVideo {
			return frameLen
		}
		return 1
	}

	// Assign one double-buffered slot per output port, in plan order.
	slotOf := make(map[rack.Port]int)
	for _, id := range order {
		dp := domainOf(id)
		w := widthOf(id)
		mod := g.nodes[id].mod
		for j := 0; j < mod.Outputs(); j++ {
			slotOf[rack.Port{Module: id, Kind: rack.Output, Index: j}] = len(dp.cur)
			dp.cur = append(dp.cur, make([]float64, w))
			dp.prev = append(dp.prev, make([]float64, w))
		}
	}

	bindingFor := func(e *edge) binding {
		if e.held {
			return binding{
				held:    g.nodes[e.src.Module].mod.(module.CrossFeeder),
				heldIdx: e.src.Index,
			}
		}
		return binding{slot: slotOf[e.src], prev: e.delayed}
	}

	for _, id := range order {
		dp := domainOf(id)
		w := widthOf(id)
		mod := g.nodes[id].mod

		st := progStep{
			id:      id,
			mod:     mod,
			in:      make([][]float64, mod.Inputs()),
			outBufs: make([][]float64, mod.Outputs()),
			inBinds: make([][]binding, mod.Inputs()),
		}
		for j := range st.in {
			st.in[j] = make([]float64, w)
		}
		for j := 0; j < mod.Outputs(); j++ {
			st.outSlots = append(st.outSlots,
				slotOf[rack.Port{Module: id, Kind: rack.Output, Index: j}])
		}

		for _, e := range g.edges {
			if e.dst.Module != id {
				continue
			}
			switch e.dst.Kind {
			case rack.Input:
				st.inBinds[e.dst.Index] = append(st.inBinds[e.dst.Index], bindingFor(e))
			case rack.Knob:
				st.knobBinds = append(st.knobBinds, knobBinding{
					knob:    e.dst.Index,
					binding: bindingFor(e),
				})
			}
		}

		dp.steps = append(dp.steps, st)
	}

	// Deferred knob writes go to whichever driver owns the module.
	for _, ki := range pending {
		if ki.Mod.Domain() == module.DomainVideo {
			p.video.pending = append(p.video.pending, ki)
		} else {
			p.audio.pending = append(p.audio.pending, ki)
		}
	}

	// Sink, feeder, note and telemetry hookups, in id order.
	for _, id := range order {
		mod := g.nodes[id].mod
		if s, ok := mod.(module.AudioSink); ok {
			p.audioSinks = append(p.audioSinks, s)
		}
		if f, ok := mod.(module.AudioFeeder); ok {
			p.audioFeeders = append(p.audioFeeders, f)
		}
		if n, ok := mod.(module.NoteReceiver); ok {
			p.noteTargets = append(p.noteTargets, n)
		}
		if v, ok := mod.(module.VideoSink); ok {
			p.videoSinks = append(p.videoSinks, moduleRef[module.VideoSink]{id: id, ref: v})
		}
		if tm, ok := mod.(module.Telemeter); ok {
			p.telemeters = append(p.telemeters, moduleRef[module.Telemeter]{id: id, ref: tm})
		}
	}

	return p
}

// run executes one tick of the domain's plan.
func (dp *domainProgram) run(t float64) {
	if !dp.applied {
		for _, ki := range dp.pending {
			ki.Mod.SetKnob(ki.Index, ki.Value)
		}
		dp.applied = true
	}

	dp.cur, dp.prev = dp.prev, dp.cur

	for i := range dp.steps {
		st := &dp.steps[i]

		// Patched knob updates land before the owning module steps, so
		// within one tick the knob value the module sees is final.
		for _, kb := range st.knobBinds {
			st.mod.SetKnob(kb.knob, dp.read(kb.binding))
		}

		for j := range st.in {
			buf := st.in[j]
			for k := range buf {
				buf[k] = 0
			}
			for _, b := range st.inBinds[j] {
				dp.accumulate(buf, b)
			}
		}

		for j, slot := range st.outSlots {
			buf := dp.cur[slot]
			for k := range buf {
				buf[k] = 0
			}
			st.outBufs[j] = buf
		}

		dp.exec(st, t)
	}
}

// read fetches a scalar for a knob binding.
func (dp *domainProgram) read(b binding) float64 {
	if b.held != nil {
		return b.held.Held(b.heldIdx)
	}
	if b.prev {
		return dp.prev[b.slot][0]
	}
	return dp.cur[b.slot][0]
}

// accumulate sums one input contribution into dst. Held values are scalars
// and broadcast across frame-width inputs.
func (dp *domainProgram) accumulate(dst []float64, b binding) {
	if b.held != nil {
		v := b.held.Held(b.heldIdx)
		for k := range dst {
			dst[k] += v
		}
		return
	}

	src := dp.cur[b.slot]
	if b.prev {
		src = dp.prev[b.slot]
	}
	for k := range src {
		dst[k] += src[k]
	}
}

// exec steps one module. A panicking module yields silence/black for this
// tick instead of taking the whole engine down with it.
func (dp *domainProgram) exec(st *progStep, t float64) {
	defer func() {
		if r := recover(); r != nil {
			for _, buf := range st.outBufs {
				for k := range buf {
					buf[k] = 0
				}
			}
			if !st.panicked {
				st.panicked = true
				log.Printf("module %d panicked, substituting silence: %v", st.id, r)
			}
		}
	}()

	st.mod.Step(t, st.in, st.outBufs)
}
