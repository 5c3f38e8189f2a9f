package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/vincesynth/vince"
	"github.com/vincesynth/vince/device"
	"github.com/vincesynth/vince/module"

	_ "github.com/vincesynth/vince/device/pulse"
	_ "github.com/vincesynth/vince/modules"

	"github.com/integrii/flaggy"
)

// AppName is the app name
const AppName = "vince"

// AppDesc is the app description
const AppDesc = "modular audio-video synthesizer for the terminal"

// AppSite is the app website
const AppSite = "https://github.com/vincesynth/vince"

var version = "unknown"

func main() {

	log.SetFlags(0)

	var cfg = vince.NewZeroConfig()

	done, err := doFlags(&cfg)
	chk(err)

	if done {
		os.Exit(0)
	}

	chk(cfg.Sanitize())

	chk(vince.Run(&cfg))
}

func doFlags(cfg *vince.Config) (bool, error) {

	var parser = flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.AdditionalHelpPrepend = AppSite
	parser.Version = version

	var listBackendsCmd = flaggy.Subcommand{
		Name:        "list-backends",
		ShortName:   "lb",
		Description: "list all supported device backends",
	}

	parser.AttachSubcommand(&listBackendsCmd, 1)

	var listDevicesCmd = flaggy.Subcommand{
		Name:        "list-devices",
		ShortName:   "ld",
		Description: "list all devices for a backend",
	}

	parser.AttachSubcommand(&listDevicesCmd, 1)

	var listKindsCmd = flaggy.Subcommand{
		Name:        "list-kinds",
		ShortName:   "lk",
		Description: "list all registered module kinds",
	}

	parser.AttachSubcommand(&listKindsCmd, 1)

	parser.AddPositionalValue(&cfg.RackPath, "rack", 1, false, "rack file to load and watch")

	parser.String(&cfg.Backend, "b", "backend", "backend name")
	parser.String(&cfg.Device, "d", "device", "device name")
	parser.Float64(&cfg.SampleRate, "r", "rate", "sample rate")
	parser.Float64(&cfg.FrameRate, "f", "fps", "video frame rate")
	parser.Int(&cfg.BlockSize, "n", "block", "device block size in samples")
	parser.Int(&cfg.QueueCap, "q", "queue", "outbound block queue capacity")
	parser.Bool(&cfg.Capture, "c", "capture", "open a capture stream for AudioIn modules")
	parser.Bool(&cfg.Headless, "H", "headless", "run without the terminal display")

	chk(parser.Parse())

	if listBackendsCmd.Used {
		for _, backend := range device.Backends {
			fmt.Printf("- %s\n", backend.Name)
		}

		return true, nil
	}

	if listDevicesCmd.Used {
		if cfg.Backend == "" {
			cfg.Backend = device.DefaultBackend()
		}

		backend, err := device.InitBackend(cfg.Backend)
		chk(err)

		devices, err := backend.Devices()
		if err != nil {
			return true, errors.Wrap(err, "failed to get devices")
		}

		var defaultDevice, _ = backend.DefaultDevice()

		fmt.Printf("all devices for %q backend. '*' marks default\n", cfg.Backend)

		for idx := range devices {
			var star = 0x20
			if defaultDevice != nil && devices[idx].String() == defaultDevice.String() {
				star = 0x2a
			}

			fmt.Printf("- %v %c\n", devices[idx], rune(star))
		}

		return true, nil
	}

	if listKindsCmd.Used {
		for _, kind := range module.Kinds() {
			fmt.Printf("- %s\n", kind)
		}

		return true, nil
	}

	return false, nil
}

func chk(err error) {
	if err != nil {
		log.Fatalln("error", err)
	}
}
