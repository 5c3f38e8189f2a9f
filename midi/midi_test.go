package midi

import (
	"math"
	"testing"
)

func TestNoteFreq(t *testing.T) {
	cases := []struct {
		note uint8
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6255653005986},
	}

	for _, c := range cases {
		if got := NoteFreq(c.note); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("NoteFreq(%d) = %v, want %v", c.note, got, c.want)
		}
	}

	ev := Event{Note: 69}
	if ev.Freq() != 440 {
		t.Errorf("Event.Freq() = %v, want 440", ev.Freq())
	}
}
