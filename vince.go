// Package vince wires the synthesizer together: rack loader, patch engine,
// device session, terminal display and hot reload.
package vince

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vincesynth/vince/device"
	"github.com/vincesynth/vince/engine"
	"github.com/vincesynth/vince/graphic"
	"github.com/vincesynth/vince/rack"
)

// Config is the top-level run configuration.
type Config struct {
	// RackPath is the rack description file to load and watch.
	RackPath string
	// Backend is the device backend name from list-backends.
	Backend string
	// Device is the output device name from list-devices.
	Device string
	// SampleRate is the audio tick rate.
	SampleRate float64
	// FrameRate is the video tick rate.
	FrameRate float64
	// BlockSize is the device block size in samples.
	BlockSize int
	// QueueCap bounds the outbound block queue.
	QueueCap int
	// Capture opens a device input stream for AudioIn modules.
	Capture bool
	// Headless disables the terminal display.
	Headless bool
}

// NewZeroConfig returns the default configuration.
func NewZeroConfig() Config {
	return Config{
		SampleRate: 48000,
		FrameRate:  60,
		BlockSize:  512,
		QueueCap:   8,
	}
}

// Sanitize cleans things up.
func (cfg *Config) Sanitize() error {
	if cfg.RackPath == "" {
		return errors.New("no rack file given")
	}
	if cfg.Backend == "" {
		cfg.Backend = device.DefaultBackend()
	}
	return nil
}

// Run starts everything and blocks until the user quits or something
// fatal happens.
func Run(cfg *Config) error {
	engCfg := engine.Config{
		SampleRate: cfg.SampleRate,
		FrameRate:  cfg.FrameRate,
		BlockSize:  cfg.BlockSize,
		QueueCap:   cfg.QueueCap,
	}

	var display *graphic.Display
	if !cfg.Headless {
		display = graphic.New()
		engCfg.Display = display
	}

	eng, err := engine.New(engCfg)
	if err != nil {
		return err
	}

	// RACK SETUP

	watcher, err := rack.Watch(cfg.RackPath)
	if err != nil {
		return err
	}

	coord := engine.NewCoordinator(eng, func() (*rack.Rack, error) {
		return rack.Load(cfg.RackPath)
	}, watcher.C)

	if err := coord.Boot(); err != nil {
		return errors.Wrap(err, "invalid rack")
	}

	// DEVICE SETUP

	backend, err := device.InitBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	out, err := device.GetDevice(backend, cfg.Device)
	if err != nil {
		return err
	}

	session, err := backend.Open(device.SessionConfig{
		Output:     out,
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Capture:    cfg.Capture,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open device session")
	}

	// DISPLAY SETUP

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if display != nil {
		if err := display.Init(); err != nil {
			return err
		}
		defer display.Close()

		ctx = display.Start(ctx)
	}

	// RUN

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error { return watcher.Run(ctx) })
	g.Go(func() error { return coord.Run(ctx) })
	g.Go(func() error { return session.Start(ctx, eng, eng) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
