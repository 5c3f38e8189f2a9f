package modules

import "github.com/vincesynth/vince/module"

func init() {
	module.Register("Envelope", newEnvelope)
}

// envelope is an ADSR generator driven by a gate input. The output for a
// tick is the level reached by the end of the previous tick, which makes
// the module state-delaying: an envelope may sit inside a feedback loop.
//
// Inputs:
//
//	0. gate, > 0 is on
//
// Outputs:
//
//	0. envelope level in [0, 1]
//
// Knobs:
//
//	0. attack in seconds
//	1. decay in seconds
//	2. sustain level in [0, 1]
//	3. release in seconds
type envelope struct {
	module.KnobBank

	dt       float64
	level    float64
	decaying bool
}

func newEnvelope(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{0.01, 0.1, 0.7, 0.2}
	}
	return &envelope{
		KnobBank: module.NewKnobBank(4, knobs),
		dt:       1 / cfg.SampleRate,
	}, nil
}

func (e *envelope) Domain() module.Domain { return module.DomainAudio }
func (e *envelope) Inputs() int           { return 1 }
func (e *envelope) Outputs() int          { return 1 }
func (e *envelope) DelaysSignal() bool    { return true }

func (e *envelope) Step(t float64, in, out [][]float64) {
	// Emit first, then advance: the output depends only on state up to the
	// previous tick.
	out[0][0] = e.level

	gate := in[0][0] > 0
	attack := e.Knob(0)
	decaySecs := e.Knob(1)
	sustain := clamp01(e.Knob(2))
	release := e.Knob(3)

	switch {
	case gate && !e.decaying:
		e.level += rate(attack, e.dt)
		if e.level >= 1 {
			e.level = 1
			e.decaying = true
		}
	case gate:
		if e.level > sustain {
			e.level -= rate(decaySecs, e.dt)
			if e.level < sustain {
				e.level = sustain
			}
		}
	default:
		e.decaying = false
		e.level -= rate(release, e.dt)
		if e.level < 0 {
			e.level = 0
		}
	}
}

// rate converts a time-to-full-swing knob into a per-tick increment.
func rate(seconds, dt float64) float64 {
	if seconds <= 0 {
		return 1
	}
	return dt / seconds
}
