package modules

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/vincesynth/vince/module"
)

func init() {
	module.Register("Spectrum", newSpectrum)
}

// spectrum passes its input through and exposes the magnitude spectrum of
// the most recent window as telemetry. The FFT runs on the video driver's
// clock inside Telemetry, never on the audio path.
//
// Params:
//
//	samples = 1024
type spectrum struct {
	module.KnobBank

	mu   sync.Mutex
	ring []float64
	pos  int

	fft *fourier.FFT
}

func newSpectrum(cfg module.Config) (module.Module, error) {
	n := cfg.Int("samples", 1024)
	if n < 16 {
		n = 16
	}
	return &spectrum{
		ring: make([]float64, n),
		fft:  fourier.NewFFT(n),
	}, nil
}

func (s *spectrum) Domain() module.Domain { return module.DomainAudio }
func (s *spectrum) Inputs() int           { return 1 }
func (s *spectrum) Outputs() int          { return 1 }

func (s *spectrum) Step(t float64, in, out [][]float64) {
	v := in[0][0]
	out[0][0] = v

	s.mu.Lock()
	s.ring[s.pos] = v
	s.pos = (s.pos + 1) % len(s.ring)
	s.mu.Unlock()
}

// Telemetry computes the windowed magnitude spectrum of the current ring,
// in dB-ish log scale normalized to [0, 1].
func (s *spectrum) Telemetry() []float64 {
	buf := make([]float64, len(s.ring))

	s.mu.Lock()
	n := copy(buf, s.ring[s.pos:])
	copy(buf[n:], s.ring[:s.pos])
	s.mu.Unlock()

	window.Hann(buf)

	coeff := s.fft.Coefficients(nil, buf)
	bins := make([]float64, len(coeff))
	for i, c := range coeff {
		mag := cmplx.Abs(c) / float64(len(buf))
		// -80 dB floor.
		db := 20 * math.Log10(mag+1e-9)
		bins[i] = clamp01((db + 80) / 80)
	}
	return bins
}
