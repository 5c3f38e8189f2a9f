package modules

import (
	"math"
	"testing"

	"github.com/vincesynth/vince/module"
)

func TestBridgeHoldsLatestValue(t *testing.T) {
	m := mustNew(t, "Bridge", testCfg(nil))
	b := m.(module.CrossFeeder)

	if got := b.Held(0); got != 0 {
		t.Fatalf("held before any tick = %v", got)
	}

	if out := step(m, 0, 0.5); out[0] != 0.5 {
		t.Errorf("passthrough = %v, want 0.5", out[0])
	}
	if got := b.Held(0); got != 0.5 {
		t.Errorf("held = %v, want 0.5", got)
	}

	step(m, 0.01, -0.2)
	if got := b.Held(0); got != -0.2 {
		t.Errorf("held = %v, want -0.2", got)
	}
}

func TestLevelMeansFrame(t *testing.T) {
	m := mustNew(t, "Level", testCfg(nil))
	l := m.(module.CrossFeeder)

	frame := []float64{0, 0.5, 1, 0.5, 0, 0.5, 1, 0.5}
	out := stepFrame(m, 0, frame)

	want := 0.5
	if got := l.Held(0); math.Abs(got-want) > 1e-12 {
		t.Errorf("held = %v, want %v", got, want)
	}
	for _, px := range out {
		if math.Abs(px-want) > 1e-12 {
			t.Fatalf("output frame = %v, want all %v", out, want)
		}
	}
}
