package modules

import "github.com/vincesynth/vince/module"

func init() {
	module.Register("Sequencer", newSequencer)
}

// sequencer cycles through a fixed list of values from the rack file.
//
// Params:
//
//	steps = [0.0, 3.0, 7.0, 12.0]
//
// Outputs:
//
//	0. the current step value
//	1. gate, high for the first half of each step
//
// Knobs:
//
//	0. rate in steps per second
//
// Outputs come from the position reached on the previous tick, so the
// sequencer is state-delaying.
type sequencer struct {
	module.KnobBank

	steps []float64
	dt    float64
	phase float64 // fractional position within the current step
	pos   int
}

func newSequencer(cfg module.Config) (module.Module, error) {
	var steps []float64
	if raw, ok := cfg.Params["steps"].([]interface{}); ok {
		for _, v := range raw {
			if f, ok := v.(float64); ok {
				steps = append(steps, f)
			} else if n, ok := v.(int64); ok {
				steps = append(steps, float64(n))
			}
		}
	}
	if len(steps) == 0 {
		steps = []float64{0}
	}

	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{4}
	}

	return &sequencer{
		KnobBank: module.NewKnobBank(1, knobs),
		steps:    steps,
		dt:       1 / cfg.SampleRate,
	}, nil
}

func (s *sequencer) Domain() module.Domain { return module.DomainAudio }
func (s *sequencer) Inputs() int           { return 0 }
func (s *sequencer) Outputs() int          { return 2 }
func (s *sequencer) DelaysSignal() bool    { return true }

func (s *sequencer) Step(t float64, in, out [][]float64) {
	out[0][0] = s.steps[s.pos]
	if s.phase < 0.5 {
		out[1][0] = 1
	} else {
		out[1][0] = 0
	}

	s.phase += s.Knob(0) * s.dt
	for s.phase >= 1 {
		s.phase--
		s.pos = (s.pos + 1) % len(s.steps)
	}
}
