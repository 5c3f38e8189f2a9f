// Package device abstracts the platform audio device: backends register
// themselves here and move blocks of samples between the engine and the OS
// mixer. The engine never talks to a device directly; it exposes a pull
// interface for output and accepts fed blocks for input.
package device

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pkg/errors"
)

// Device identifies one audio endpoint of a backend.
type Device interface {
	String() string
}

// Source is the engine-side pull interface for outbound audio.
type Source interface {
	NextBlock(dst []float64) int
}

// Feeder is the engine-side push interface for inbound audio.
type Feeder interface {
	FeedInput(block []float64)
}

// SessionConfig describes one open stream pair.
type SessionConfig struct {
	Output Device
	Input  Device

	SampleRate float64
	BlockSize  int

	// Capture opens an input stream alongside the output stream.
	Capture bool
}

// Session moves samples until the context is canceled.
type Session interface {
	Start(ctx context.Context, src Source, feed Feeder) error
}

// Backend opens device sessions.
type Backend interface {
	// Init should do nothing if called more than once.
	Init() error
	Close() error

	Devices() ([]Device, error)
	DefaultDevice() (Device, error)
	Open(SessionConfig) (Session, error)
}

type NamedBackend struct {
	Name string
	Backend
}

var Backends []NamedBackend

// RegisterBackend registers a backend globally. This function is not
// thread-safe, and most packages should call it on init().
func RegisterBackend(name string, b Backend) {
	Backends = append(Backends, NamedBackend{
		Name:    name,
		Backend: b,
	})
}

// DefaultBackend picks a backend likely to work on this platform.
func DefaultBackend() string {
	switch runtime.GOOS {
	case "linux":
		if path, _ := exec.LookPath("pacat"); path != "" {
			if HasBackend("pulse") {
				return "pulse"
			}
		}
	}

	if len(Backends) > 0 {
		return Backends[0].Name
	}
	return ""
}

// FindBackend is a helper function that finds a backend. It returns nil if
// the backend is not found.
func FindBackend(name string) Backend {
	for _, backend := range Backends {
		if backend.Name == name {
			return backend
		}
	}
	return nil
}

func HasBackend(name string) bool {
	return FindBackend(name) != nil
}

func InitBackend(name string) (Backend, error) {
	backend := FindBackend(name)
	if backend == nil {
		return nil, fmt.Errorf("backend not found: %q; check list-backends", name)
	}

	if err := backend.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize device backend")
	}

	return backend, nil
}

// GetDevice resolves a device by name, or the backend default when name is
// empty.
func GetDevice(backend Backend, name string) (Device, error) {
	if name == "" {
		def, err := backend.DefaultDevice()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get default device")
		}
		return def, nil
	}

	devices, err := backend.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get devices")
	}

	for idx := range devices {
		if devices[idx].String() == name {
			return devices[idx], nil
		}
	}

	return nil, errors.Errorf("device %q not found; check list-devices", name)
}
