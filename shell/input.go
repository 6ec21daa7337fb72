package shell

import (
	"context"
	"io"

	"github.com/webosbrew/ares-core/sshsession"
)

// pumpInput forwards local input to the channel's stdin until ctx is
// canceled or the input source is exhausted. In PTY mode with a Keys
// channel supplied, each Key is translated via EncodeKey; otherwise
// raw bytes from Input are forwarded unchanged. Runs on its own
// goroutine (spec.md's "unbounded MPSC" local input producer), its
// lifetime governed by ctx.Done() rather than a bespoke terminated
// flag.
func pumpInput(ctx context.Context, ch *sshsession.Channel, ptyMode bool, streams StreamIO) {
	if ptyMode && streams.Keys != nil {
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-streams.Keys:
				if !ok {
					return
				}
				if _, err := ch.Write(EncodeKey(key)); err != nil {
					return
				}
			}
		}
	}

	if streams.Input == nil {
		return
	}

	buf := make([]byte, 1024)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := streams.Input.Read(buf)
		if n > 0 {
			if _, werr := ch.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// pumpPTY copies the channel's single merged output stream to stdout
// until EOF/close, each read bounded by pollInterval.
func pumpPTY(ctx context.Context, ch *sshsession.Channel, stdout io.Writer) {
	for {
		if ch.IsEOF() || ch.IsClosed() || ctx.Err() != nil {
			return
		}
		data, err := ch.ReadNonblocking(sshsession.Stdout, pollInterval)
		if len(data) > 0 && stdout != nil {
			if _, werr := stdout.Write(data); werr != nil {
				log.WithError(werr).Debug("local stdout write failed")
				return
			}
		}
		if err == io.EOF {
			return
		}
	}
}
