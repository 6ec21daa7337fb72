package shell

import (
	"context"
	"io"

	"github.com/webosbrew/ares-core/sshsession"
)

// pumpDumb alternately polls the channel's stdout and stderr streams,
// flipping which one is checked each iteration so neither starves the
// other, matching original_source/ares-shell/src/dumb.rs's flip-flag
// loop exactly (a single "read this stream, then that one" poll would
// let a quiet stream block progress on a noisy one since each read
// already waits up to pollInterval). Each stream stops being polled
// once it individually reports EOF; the loop exits once both have.
func pumpDumb(ctx context.Context, ch *sshsession.Channel, stdout, stderr io.Writer) {
	stdoutDone, stderrDone := false, false
	stderrTurn := false
	for !(stdoutDone && stderrDone) {
		if ch.IsClosed() || ctx.Err() != nil {
			return
		}

		stream := sshsession.Stdout
		out := stdout
		done := &stdoutDone
		if stderrTurn {
			stream = sshsession.Stderr
			out = stderr
			done = &stderrDone
		}
		stderrTurn = !stderrTurn

		if *done {
			continue
		}

		data, err := ch.ReadNonblocking(stream, pollInterval)
		if len(data) > 0 && out != nil {
			if _, werr := out.Write(data); werr != nil {
				return
			}
		}
		if err == io.EOF {
			*done = true
		}
	}
}
