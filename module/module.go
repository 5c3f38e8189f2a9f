// Package module defines the unit of signal processing and the registry of
// module kinds. A module has fixed input, output and knob arities and turns
// its inputs and knobs into outputs once per tick, optionally keeping private
// state between ticks.
package module

import "github.com/vincesynth/vince/midi"

// Sample is the scalar signal type carried on audio-domain wires.
type Sample = float64

// Domain selects how often a module steps and how wide its ports are.
type Domain uint8

const (
	// DomainAudio modules step once per audio frame and exchange single
	// scalars per port.
	DomainAudio Domain = iota
	// DomainVideo modules step once per rendered frame and exchange full
	// luma frame buffers per port.
	DomainVideo
)

func (d Domain) String() string {
	if d == DomainVideo {
		return "video"
	}
	return "audio"
}

// Module is the capability contract every kind implements. Step must never
// block or panic; a module whose computation fails substitutes a safe value
// (silence, black) instead of aborting the tick.
//
// in and out hold one buffer per port: width 1 in the audio domain, one full
// frame in the video domain. The buffers are owned by the engine; Step must
// not retain them.
type Module interface {
	Domain() Domain
	Inputs() int
	Outputs() int
	Knobs() int
	Knob(i int) float64
	SetKnob(i int, v float64)
	Step(t float64, in, out [][]float64)
}

// Delayer marks modules whose outputs at tick t depend only on state up to
// tick t-1. Only such modules may break a feedback cycle.
type Delayer interface {
	DelaysSignal() bool
}

// CrossFeeder marks the bridge kinds that are the one legal crossing point
// between the audio and video domains. Held returns the most recent value of
// output i and must be safe to call from the other domain's tick driver.
type CrossFeeder interface {
	Held(i int) float64
}

// AudioSink is implemented by modules that emit samples to the outbound
// device buffer. Drain copies up to len(dst) pending samples into dst and
// returns how many were copied.
type AudioSink interface {
	Drain(dst []Sample) int
}

// AudioFeeder is implemented by modules fed from the inbound device buffer.
type AudioFeeder interface {
	Feed(block []Sample)
}

// VideoSink is implemented by modules whose last frame is handed to the
// renderer. The returned buffer must stay valid until the next video tick.
type VideoSink interface {
	Frame() []float64
}

// NoteReceiver is implemented by modules that consume MIDI events. Events
// are delivered ahead of the audio tick that should observe them.
type NoteReceiver interface {
	Note(ev midi.Event)
}

// Telemeter exposes module-defined debug values (scope traces, spectrum
// bins) for on-screen display. The returned slice is a snapshot the caller
// may keep; implementations must be safe to call from the video driver.
type Telemeter interface {
	Telemetry() []float64
}

// KnobBank implements the knob surface of Module and may be embedded by any
// kind with a fixed knob count.
type KnobBank []float64

func (k KnobBank) Knobs() int { return len(k) }

func (k KnobBank) Knob(i int) float64 {
	if i < 0 || i >= len(k) {
		return 0
	}
	return k[i]
}

func (k KnobBank) SetKnob(i int, v float64) {
	if i < 0 || i >= len(k) {
		return
	}
	k[i] = v
}

// NewKnobBank returns a bank of n knobs primed from init, which may be
// shorter than n.
func NewKnobBank(n int, init []float64) KnobBank {
	k := make(KnobBank, n)
	copy(k, init)
	return k
}
