// Package pulse is the PulseAudio device backend. Device discovery goes
// through the native protocol; the samples themselves ride pacat/parec
// float32le pipes.
package pulse

import (
	"fmt"

	"github.com/lawl/pulseaudio"
	"github.com/pkg/errors"

	"github.com/vincesynth/vince/device"
)

func init() {
	device.RegisterBackend("pulse", Backend{})
}

type Backend struct{}

func (Backend) Init() error  { return nil }
func (Backend) Close() error { return nil }

func (Backend) Devices() ([]device.Device, error) {
	c, err := pulseaudio.NewClient()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pulseaudio client")
	}
	defer c.Close()

	sinks, err := c.Sinks()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sinks")
	}

	devices := make([]device.Device, len(sinks))
	for i, sink := range sinks {
		devices[i] = PulseDevice(sink.Name)
	}
	return devices, nil
}

func (Backend) DefaultDevice() (device.Device, error) {
	return PulseDevice("default"), nil
}

func (Backend) Open(cfg device.SessionConfig) (device.Session, error) {
	out, ok := cfg.Output.(PulseDevice)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Output)
	}

	play := []string{
		"pacat", "--playback",
		"--format=float32le",
		fmt.Sprintf("--rate=%.0f", cfg.SampleRate),
		"--channels=1",
		"-d", out.String(),
	}

	var rec []string
	if cfg.Capture {
		in := "default"
		if cfg.Input != nil {
			in = cfg.Input.String()
		}
		rec = []string{
			"parec",
			"--format=float32le",
			fmt.Sprintf("--rate=%.0f", cfg.SampleRate),
			"--channels=1",
			"-d", in,
		}
	}

	return device.NewExecSession(play, rec, cfg)
}

type PulseDevice string

func (d PulseDevice) String() string { return string(d) }
