package modules

import (
	"math"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("AudioOut", newAudioOut)
	module.Register("AudioIn", newAudioIn)
}

// audioOut is the audio sink: each tick it soft-clips its input and buffers
// the sample for the engine to drain into the outbound device queue. The
// internal buffer is capped; if the engine stops draining, the oldest
// samples go first.
//
// Knobs:
//
//	0. gain
type audioOut struct {
	module.KnobBank
	buf  []float64
	head int
}

const audioOutCap = 1 << 14

func newAudioOut(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{1}
	}
	return &audioOut{
		KnobBank: module.NewKnobBank(1, knobs),
		buf:      make([]float64, 0, audioOutCap),
	}, nil
}

func (a *audioOut) Domain() module.Domain { return module.DomainAudio }
func (a *audioOut) Inputs() int           { return 1 }
func (a *audioOut) Outputs() int          { return 0 }

func (a *audioOut) Step(t float64, in, out [][]float64) {
	v := in[0][0] * a.Knob(0)
	if math.IsNaN(v) {
		v = 0
	}
	// Soft clip keeps a hot patch from slamming the device.
	v = math.Tanh(v)

	if len(a.buf) == audioOutCap {
		copy(a.buf, a.buf[1:])
		a.buf = a.buf[:audioOutCap-1]
	}
	a.buf = append(a.buf, v)
}

func (a *audioOut) Drain(dst []module.Sample) int {
	n := copy(dst, a.buf)
	rest := copy(a.buf, a.buf[n:])
	a.buf = a.buf[:rest]
	return n
}

// audioIn plays samples fed from the inbound device buffer, one per tick.
// Underruns emit silence rather than stalling the tick.
//
// Knobs:
//
//	0. gain
type audioIn struct {
	module.KnobBank
	fifo []float64
}

func newAudioIn(cfg module.Config) (module.Module, error) {
	knobs := cfg.Knobs
	if len(knobs) == 0 {
		knobs = []float64{1}
	}
	return &audioIn{KnobBank: module.NewKnobBank(1, knobs)}, nil
}

func (a *audioIn) Domain() module.Domain { return module.DomainAudio }
func (a *audioIn) Inputs() int           { return 0 }
func (a *audioIn) Outputs() int          { return 1 }

func (a *audioIn) Feed(block []module.Sample) {
	const fifoCap = 1 << 15
	if len(a.fifo)+len(block) > fifoCap {
		drop := len(a.fifo) + len(block) - fifoCap
		if drop > len(a.fifo) {
			drop = len(a.fifo)
		}
		rest := copy(a.fifo, a.fifo[drop:])
		a.fifo = a.fifo[:rest]
	}
	a.fifo = append(a.fifo, block...)
}

func (a *audioIn) Step(t float64, in, out [][]float64) {
	if len(a.fifo) == 0 {
		out[0][0] = 0
		return
	}
	out[0][0] = a.fifo[0] * a.Knob(0)
	rest := copy(a.fifo, a.fifo[1:])
	a.fifo = a.fifo[:rest]
}
