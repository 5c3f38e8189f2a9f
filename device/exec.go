package device

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ExecSession shuttles float32le samples through external commands, one for
// playback and optionally one for capture. Backends that pipe through pacat
// or ffmpeg build on this.
type ExecSession struct {
	playArgv []string
	recArgv  []string
	cfg      SessionConfig
}

// NewExecSession builds a session from command argument vectors. recArgv
// may be empty when the config does not ask for capture.
func NewExecSession(playArgv, recArgv []string, cfg SessionConfig) (*ExecSession, error) {
	if len(playArgv) < 1 {
		return nil, errors.New("playback argv has no arg0")
	}
	if cfg.Capture && len(recArgv) < 1 {
		return nil, errors.New("capture requested but capture argv has no arg0")
	}
	return &ExecSession{
		playArgv: playArgv,
		recArgv:  recArgv,
		cfg:      cfg,
	}, nil
}

// Start pumps samples until the context is canceled or a command exits.
func (s *ExecSession) Start(ctx context.Context, src Source, feed Feeder) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.playback(ctx, src) })
	if s.cfg.Capture {
		g.Go(func() error { return s.capture(ctx, feed) })
	}

	return g.Wait()
}

func (s *ExecSession) playback(ctx context.Context, src Source) error {
	cmd := exec.CommandContext(ctx, s.playArgv[0], s.playArgv[1:]...)
	cmd.Stderr = os.Stderr

	w, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdin pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.playArgv[0])
	}

	block := make([]float64, s.cfg.BlockSize)
	raw := make([]byte, s.cfg.BlockSize*4)

	for {
		if ctx.Err() != nil {
			w.Close()
			cmd.Wait()
			return ctx.Err()
		}

		n := src.NextBlock(block)
		if n == 0 {
			// Engine shut down; flush silence and leave.
			w.Close()
			cmd.Wait()
			return nil
		}

		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(block[i])))
		}
		if _, err := w.Write(raw[:n*4]); err != nil {
			cmd.Wait()
			return errors.Wrap(err, "failed to write to "+s.playArgv[0])
		}
	}
}

func (s *ExecSession) capture(ctx context.Context, feed Feeder) error {
	cmd := exec.CommandContext(ctx, s.recArgv[0], s.recArgv[1:]...)
	cmd.Stderr = os.Stderr

	r, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.recArgv[0])
	}

	raw := make([]byte, s.cfg.BlockSize*4)

	for {
		if ctx.Err() != nil {
			cmd.Wait()
			return ctx.Err()
		}

		if _, err := io.ReadFull(r, raw); err != nil {
			cmd.Wait()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "failed to read from "+s.recArgv[0])
		}

		block := make([]float64, s.cfg.BlockSize)
		for i := range block {
			block[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
		feed.FeedInput(block)
	}
}
