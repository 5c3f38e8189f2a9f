package modules

import (
	"github.com/vincesynth/vince/midi"
	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("MidiIn", newMidiIn)
}

// midiIn turns injected MIDI events into control signals, last-note
// priority.
//
// Params:
//
//	channel = 0   # 1-16, 0 matches any
//
// Outputs:
//
//	0. frequency of the held note in Hz
//	1. gate, 1 while any note is held
//	2. velocity of the most recent note-on in [0, 1]
type midiIn struct {
	module.KnobBank

	channel int
	held    []uint8
	freq    float64
	vel     float64
}

func newMidiIn(cfg module.Config) (module.Module, error) {
	return &midiIn{channel: cfg.Int("channel", 0)}, nil
}

func (m *midiIn) Domain() module.Domain { return module.DomainAudio }
func (m *midiIn) Inputs() int           { return 0 }
func (m *midiIn) Outputs() int          { return 3 }

// Note is called by the audio driver ahead of the tick that observes the
// event, on the same goroutine that calls Step.
func (m *midiIn) Note(ev midi.Event) {
	if m.channel != 0 && int(ev.Channel)+1 != m.channel {
		return
	}

	if ev.On {
		m.held = append(m.held, ev.Note)
		m.freq = ev.Freq()
		m.vel = float64(ev.Velocity) / 127
		return
	}

	for i := len(m.held) - 1; i >= 0; i-- {
		if m.held[i] == ev.Note {
			m.held = append(m.held[:i], m.held[i+1:]...)
			break
		}
	}
	if n := len(m.held); n > 0 {
		m.freq = midi.NoteFreq(m.held[n-1])
	}
}

func (m *midiIn) Step(t float64, in, out [][]float64) {
	out[0][0] = m.freq
	if len(m.held) > 0 {
		out[1][0] = 1
	} else {
		out[1][0] = 0
	}
	out[2][0] = m.vel
}
