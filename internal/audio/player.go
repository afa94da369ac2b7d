package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"daybell/internal/ports"
)

// FFPlayPlayer plays audio assets through an ffplay-compatible command.
type FFPlayPlayer struct {
	command string
}

func NewFFPlayPlayer(command string) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &FFPlayPlayer{command: command}
}

// PlayFile starts playback of a local file or URL and returns immediately.
func (p *FFPlayPlayer) PlayFile(ctx context.Context, source string, volume int) (ports.PlaybackHandle, error) {
	if source == "" {
		return nil, errors.New("no audio source provided")
	}
	return p.start(ctx, nil, source, volume)
}

// PlayTone synthesizes the tone in memory and plays it from stdin, so this
// path needs no network or file resource.
func (p *FFPlayPlayer) PlayTone(ctx context.Context, tone ports.ToneSpec, volume int) (ports.PlaybackHandle, error) {
	wav := SynthesizeTone(tone)
	return p.start(ctx, bytes.NewReader(wav), "-", volume)
}

func (p *FFPlayPlayer) start(ctx context.Context, stdin *bytes.Reader, source string, volume int) (ports.PlaybackHandle, error) {
	if volume <= 0 || volume > 100 {
		volume = 100
	}

	args := []string{
		"-nodisp",
		"-autoexit",
		"-hide_banner",
		"-loglevel", "warning",
		"-volume", strconv.Itoa(volume),
		source,
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start player: %w", err)
	}

	handle := &playback{
		process: cmd.Process,
		stderr:  &stderr,
		done:    make(chan struct{}),
	}

	go func() {
		handle.setErr(normalizeWaitErr(cmd.Wait()))
		close(handle.done)
	}()

	// Catch players that die immediately (missing file, bad codec) so the
	// caller can fall through to the next playback tier.
	select {
	case <-handle.done:
		if err := handle.Err(); err != nil {
			return nil, fmt.Errorf("player exited early: %w: %s", err, trimStderr(&stderr))
		}
	case <-time.After(150 * time.Millisecond):
	}

	return handle, nil
}

type playback struct {
	process *os.Process
	stderr  *bytes.Buffer
	done    chan struct{}

	stopOnce sync.Once

	errMu sync.Mutex
	err   error
}

func (h *playback) Done() <-chan struct{} {
	return h.done
}

func (h *playback) Stop() error {
	h.stopOnce.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}

		if h.process != nil {
			_ = h.process.Signal(os.Interrupt)
		}

		select {
		case <-h.done:
		case <-time.After(1200 * time.Millisecond):
			if h.process != nil {
				_ = h.process.Kill()
			}
			<-h.done
		}
	})
	return nil
}

func (h *playback) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}

func (h *playback) setErr(err error) {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	h.err = err
}

// normalizeWaitErr drops exit errors: a player stopped by signal or a bad
// asset both surface as *exec.ExitError, and stderr carries the detail.
func normalizeWaitErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() > 0 {
			return err
		}
		return nil
	}
	return err
}

func trimStderr(buf *bytes.Buffer) string {
	return string(bytes.TrimSpace(buf.Bytes()))
}
