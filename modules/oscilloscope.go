package modules

import (
	"sync"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Oscilloscope", newOscilloscope)
}

// oscilloscope passes its input through and keeps a rolling trace of the
// last window samples for on-screen display.
//
// Params:
//
//	window = 512
type oscilloscope struct {
	module.KnobBank

	mu    sync.Mutex
	trace []float64
	pos   int
}

func newOscilloscope(cfg module.Config) (module.Module, error) {
	n := cfg.Int("window", 512)
	if n < 2 {
		n = 2
	}
	return &oscilloscope{trace: make([]float64, n)}, nil
}

func (o *oscilloscope) Domain() module.Domain { return module.DomainAudio }
func (o *oscilloscope) Inputs() int           { return 1 }
func (o *oscilloscope) Outputs() int          { return 1 }

func (o *oscilloscope) Step(t float64, in, out [][]float64) {
	v := in[0][0]
	out[0][0] = v

	// The lock spans one ring write; the video driver holds it only while
	// copying the trace out.
	o.mu.Lock()
	o.trace[o.pos] = v
	o.pos = (o.pos + 1) % len(o.trace)
	o.mu.Unlock()
}

// Telemetry returns the trace oldest-first. Safe to call from the video
// driver.
func (o *oscilloscope) Telemetry() []float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]float64, len(o.trace))
	n := copy(out, o.trace[o.pos:])
	copy(out[n:], o.trace[:o.pos])
	return out
}
