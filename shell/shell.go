// Package shell drives an interactive or one-shot remote command over
// a sshsession.Channel, in PTY or dumb (no-PTY) mode, translating local
// key events to the byte sequences webOS's remote shell expects and
// multiplexing the channel's stdout/stderr without blocking on either.
//
// Grounded on original_source/ares-shell/src/{pty,dumb}.rs's
// read_nonblocking/sleep(1ms) loop, restructured around
// sshsession.Channel's bounded-wait reads and a context.Context-driven
// local input goroutine instead of the Rust original's
// Arc<Mutex<bool>> "terminated" flag — cooperative goroutine shutdown
// via select-on-ctx.Done(), the same idiom lib/client/client.go's
// handleGlobalRequests uses.
package shell

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webosbrew/ares-core/sshsession"
)

var log = logrus.WithField("component", "shell")

// pollInterval is the sleep between successive ErrTryAgain/zero-byte
// reads, matching the Rust original's thread::sleep(1ms).
const pollInterval = time.Millisecond

// PTYRequest asks Run to allocate a remote pseudo-terminal before
// starting cmd.
type PTYRequest struct {
	Width, Height uint16
	Term          string
}

// StreamIO is the local byte-stream boundary Run reads from and
// writes to.
type StreamIO struct {
	// Input supplies raw bytes to forward to the remote stdin. Unused
	// in PTY mode when Keys is set.
	Input io.Reader
	// Keys, when non-nil, is used instead of Input in PTY mode: each
	// received Key is translated via EncodeKey before being written.
	Keys <-chan Key
	// Stdout/Stderr receive remote output. Stderr is unused in PTY
	// mode (the remote PTY merges both streams into one).
	Stdout io.Writer
	Stderr io.Writer
}

// ResizeFn notifies Run's PTY of a terminal resize.
type ResizeFn func(w, h uint16) error

// Run executes cmd on a fresh channel derived from sess. When pty is
// non-nil, a remote pseudo-terminal is requested and the resize
// function it returns can be called on local terminal resize events.
// An empty cmd with a non-nil pty starts an interactive shell instead
// of a one-shot command. Run blocks until the remote command exits or
// ctx is canceled.
func Run(ctx context.Context, sess *sshsession.Session, cmd string, pty *PTYRequest, streams StreamIO) (exitStatus int, resize ResizeFn, err error) {
	ch, err := sess.OpenChannel(ctx)
	if err != nil {
		return -1, nil, err
	}
	defer ch.Close()

	if pty != nil {
		if err := ch.RequestPty(pty.Term, int(pty.Height), int(pty.Width)); err != nil {
			return -1, nil, err
		}
		if cmd == "" {
			if err := ch.Shell(); err != nil {
				return -1, nil, err
			}
		} else if err := ch.Start(cmd); err != nil {
			return -1, nil, err
		}
		resize = func(w, h uint16) error { return ch.WindowChange(int(h), int(w)) }
	} else if err := ch.Start(cmd); err != nil {
		return -1, nil, err
	}

	inputDone := make(chan struct{})
	go func() {
		defer close(inputDone)
		pumpInput(ctx, ch, pty != nil, streams)
	}()

	if pty != nil {
		pumpPTY(ctx, ch, streams.Stdout)
	} else {
		pumpDumb(ctx, ch, streams.Stdout, streams.Stderr)
	}

	<-inputDone
	return ch.Wait(), resize, nil
}
