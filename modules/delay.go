package modules

import (
	"math"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Delay", newDelay)
}

// delay applies a feedback delay line to its input. Its output at tick t is
// the sample written delay seconds ago, so it is state-delaying and may
// break feedback cycles.
//
// Knobs:
//
//	0. delay in seconds
//	1. feedback in [0, 1]
//	2. dry/wet mix in [0, 1]
type delay struct {
	module.KnobBank

	sampleRate float64
	buffer     []float64
	idx        int
}

func newDelay(cfg module.Config) (module.Module, error) {
	return &delay{
		KnobBank:   module.NewKnobBank(3, cfg.Knobs),
		sampleRate: cfg.SampleRate,
	}, nil
}

func (d *delay) Domain() module.Domain { return module.DomainAudio }
func (d *delay) Inputs() int           { return 1 }
func (d *delay) Outputs() int          { return 1 }
func (d *delay) DelaysSignal() bool    { return true }

func (d *delay) Step(t float64, in, out [][]float64) {
	x := in[0][0]
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}

	feedback := d.Knob(1)
	dwmix := d.Knob(2)

	// Track the delay knob by resizing the line; old content is kept so a
	// knob sweep does not click.
	buflen := int(d.Knob(0) * d.sampleRate)
	if len(d.buffer) < buflen {
		d.buffer = append(d.buffer, make([]float64, buflen-len(d.buffer))...)
	} else if len(d.buffer) > buflen {
		d.buffer = d.buffer[:buflen]
	}

	delayed := 0.0
	if buflen > 0 {
		d.idx %= buflen
		delayed = d.buffer[d.idx]
		d.buffer[d.idx] = feedback * (x + delayed)
		d.idx++
	}

	out[0][0] = x*(1-dwmix) + delayed*dwmix
}
