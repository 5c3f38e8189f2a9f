package modules

import (
	"math"
	"sync/atomic"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Bridge", newBridge)
	module.Register("Level", newLevel)
}

// heldCell publishes a float across tick drivers without locks.
type heldCell struct {
	bits atomic.Uint64
}

func (h *heldCell) store(v float64) { h.bits.Store(math.Float64bits(v)) }
func (h *heldCell) load() float64   { return math.Float64frombits(h.bits.Load()) }

// bridge is the audio-to-video crossing point. It passes its input through
// at audio rate and holds the latest value for the video driver to read;
// across the video tick's many audio ticks the policy is hold-last-value,
// no averaging.
type bridge struct {
	module.KnobBank
	held heldCell
}

func newBridge(cfg module.Config) (module.Module, error) {
	return &bridge{}, nil
}

func (b *bridge) Domain() module.Domain { return module.DomainAudio }
func (b *bridge) Inputs() int           { return 1 }
func (b *bridge) Outputs() int          { return 1 }

func (b *bridge) Held(i int) float64 { return b.held.load() }

func (b *bridge) Step(t float64, in, out [][]float64) {
	v := in[0][0]
	out[0][0] = v
	b.held.store(v)
}

// level is the video-to-audio crossing point: it measures the mean luma of
// its input frame, fills its output frame with that level, and holds it for
// the audio driver. The audio side sees the value from the most recent
// video tick, held until the next one.
type level struct {
	module.KnobBank
	held heldCell
}

func newLevel(cfg module.Config) (module.Module, error) {
	return &level{}, nil
}

func (l *level) Domain() module.Domain { return module.DomainVideo }
func (l *level) Inputs() int           { return 1 }
func (l *level) Outputs() int          { return 1 }

func (l *level) Held(i int) float64 { return l.held.load() }

func (l *level) Step(t float64, in, out [][]float64) {
	sum := 0.0
	for _, px := range in[0] {
		sum += px
	}
	mean := 0.0
	if len(in[0]) > 0 {
		mean = sum / float64(len(in[0]))
	}

	for k := range out[0] {
		out[0][k] = mean
	}
	l.held.store(mean)
}
