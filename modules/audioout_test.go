package modules

import (
	"math"
	"testing"

	"github.com/vincesynth/vince/module"
)

func TestAudioOutBuffersAndDrains(t *testing.T) {
	m := mustNew(t, "AudioOut", testCfg(nil, 1))
	sink := m.(module.AudioSink)

	for i, v := range []float64{0.1, 0.2, 0.3} {
		step(m, float64(i)/100, v)
	}

	dst := make([]module.Sample, 8)
	n := sink.Drain(dst)
	if n != 3 {
		t.Fatalf("Drain = %d, want 3", n)
	}
	for i, v := range []float64{0.1, 0.2, 0.3} {
		if math.Abs(dst[i]-math.Tanh(v)) > 1e-12 {
			t.Errorf("dst[%d] = %v, want tanh(%v)", i, dst[i], v)
		}
	}

	if n := sink.Drain(dst); n != 0 {
		t.Fatalf("second Drain = %d, want 0", n)
	}
}

func TestAudioOutGuardsNaN(t *testing.T) {
	m := mustNew(t, "AudioOut", testCfg(nil, 1))
	sink := m.(module.AudioSink)

	step(m, 0, math.NaN())

	dst := make([]module.Sample, 1)
	sink.Drain(dst)
	if dst[0] != 0 {
		t.Fatalf("NaN input produced %v, want 0", dst[0])
	}
}

func TestAudioInUnderrunsToSilence(t *testing.T) {
	m := mustNew(t, "AudioIn", testCfg(nil, 2))
	feeder := m.(module.AudioFeeder)

	feeder.Feed([]module.Sample{0.1, 0.2})

	if got := step(m, 0)[0]; math.Abs(got-0.2) > 1e-12 {
		t.Errorf("first sample = %v, want 0.2", got)
	}
	if got := step(m, 0.01)[0]; math.Abs(got-0.4) > 1e-12 {
		t.Errorf("second sample = %v, want 0.4", got)
	}
	if got := step(m, 0.02)[0]; got != 0 {
		t.Errorf("underrun = %v, want 0", got)
	}
}
