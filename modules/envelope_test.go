package modules

import (
	"math"
	"testing"
)

func TestEnvelopeADSR(t *testing.T) {
	// attack 0.1s, decay 0.1s, sustain 0.5, release 0.1s at 100 Hz: every
	// stage moves by 0.1 per tick.
	m := mustNew(t, "Envelope", testCfg(nil, 0.1, 0.1, 0.5, 0.1))

	var outs []float64
	gateOn := 20
	for i := 0; i < 30; i++ {
		gate := 0.0
		if i < gateOn {
			gate = 1
		}
		outs = append(outs, step(m, float64(i)/100, gate)[0])
	}

	approx := func(i int, want float64) {
		if math.Abs(outs[i]-want) > 1e-9 {
			t.Fatalf("outs[%d] = %v, want %v (%v)", i, outs[i], want, outs)
		}
	}

	approx(0, 0)    // level before the first tick advances
	approx(5, 0.5)  // mid-attack
	approx(10, 1)   // attack peak
	approx(13, 0.7) // decaying toward sustain
	approx(16, 0.5) // holding sustain
	approx(19, 0.5)
	approx(22, 0.3) // releasing
	approx(26, 0)   // silent
	approx(29, 0)
}

func TestEnvelopeRetrigger(t *testing.T) {
	m := mustNew(t, "Envelope", testCfg(nil, 0.1, 0.1, 0.5, 0.1))

	// Attack part way, release, then gate on again: the envelope rises
	// from wherever it is, no click to zero.
	for i := 0; i < 5; i++ {
		step(m, float64(i)/100, 1)
	}
	step(m, 0.05, 0)

	got := step(m, 0.06, 1)[0]
	if got <= 0.3 || got >= 0.5 {
		t.Fatalf("retrigger level = %v, want between 0.3 and 0.5", got)
	}
}

func TestEnvelopeInstantAttack(t *testing.T) {
	// A zero attack swings full scale in one tick.
	m := mustNew(t, "Envelope", testCfg(nil, 0, 0.1, 0.5, 0.1))

	step(m, 0, 1)
	if got := step(m, 0.01, 1)[0]; got != 1 {
		t.Fatalf("level after one tick = %v, want 1", got)
	}
}
