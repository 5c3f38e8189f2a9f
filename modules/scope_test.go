package modules

import (
	"math"
	"testing"

	"github.com/vincesynth/vince/module"
)

func TestOscilloscopeTraceOldestFirst(t *testing.T) {
	m := mustNew(t, "Oscilloscope", testCfg(map[string]interface{}{"window": int64(4)}))
	tm := m.(module.Telemeter)

	for i := 1; i <= 6; i++ {
		step(m, float64(i)/100, float64(i))
	}

	trace := tm.Telemetry()
	want := []float64{3, 4, 5, 6}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestOscilloscopePassthrough(t *testing.T) {
	m := mustNew(t, "Oscilloscope", testCfg(nil))

	if got := step(m, 0, 0.6)[0]; got != 0.6 {
		t.Fatalf("passthrough = %v, want 0.6", got)
	}
}

func TestSpectrumPeakBin(t *testing.T) {
	// 64 samples of a wave with 8 cycles per window: the energy must land
	// in bin 8.
	m := mustNew(t, "Spectrum", testCfg(map[string]interface{}{"samples": int64(64)}))
	tm := m.(module.Telemeter)

	for i := 0; i < 64; i++ {
		step(m, float64(i)/100, math.Sin(2*math.Pi*8*float64(i)/64))
	}

	bins := tm.Telemetry()
	peak := 0
	for i, v := range bins {
		if v < 0 || v > 1 {
			t.Fatalf("bin %d = %v out of [0, 1]", i, v)
		}
		if v > bins[peak] {
			peak = i
		}
	}
	if peak != 8 {
		t.Fatalf("peak bin = %d, want 8", peak)
	}
}

func TestConwayAllDeadStaysDead(t *testing.T) {
	cfg := testCfg(map[string]interface{}{"fill": 0.0})
	m := mustNew(t, "Conway", cfg)

	for gen := 0; gen < 3; gen++ {
		out := make([]float64, cfg.FrameLen())
		m.Step(float64(gen)/10, nil, [][]float64{out})
		for _, px := range out {
			if px != 0 {
				t.Fatalf("gen %d: dead grid produced %v", gen, px)
			}
		}
	}
}

func TestConwayOvercrowdedGridDies(t *testing.T) {
	// fill 1 lights every cell; on a torus each has eight neighbors, so
	// the whole grid dies after one generation.
	cfg := testCfg(map[string]interface{}{"fill": 1.0}, 1)
	m := mustNew(t, "Conway", cfg)

	out := make([]float64, cfg.FrameLen())
	m.Step(0, nil, [][]float64{out})
	for _, px := range out {
		if px != 1 {
			t.Fatalf("first generation = %v, want all live", px)
		}
	}

	m.Step(0.1, nil, [][]float64{out})
	for _, px := range out {
		if px != 0 {
			t.Fatalf("second generation = %v, want all dead", px)
		}
	}
}
