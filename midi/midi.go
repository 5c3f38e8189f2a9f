// Package midi carries note and control events from an external transport
// into the engine. The transport itself (ALSA, CoreMIDI, ...) lives outside
// this repository; the engine only consumes decoded events.
package midi

import "math"

// Event is one timestamped note or control event.
type Event struct {
	// Time is the engine time in seconds at which the event should be
	// observed. Events are delivered ahead of the first audio tick at or
	// after Time.
	Time float64

	On       bool
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Freq returns the equal-temperament frequency of the event's note,
// A4 (note 69) = 440 Hz.
func (ev Event) Freq() float64 {
	return NoteFreq(ev.Note)
}

// NoteFreq converts a MIDI note number to a frequency in Hz.
func NoteFreq(note uint8) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69.0)/12.0)
}
