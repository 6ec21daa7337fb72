package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/webosbrew/ares-core/sshsession"
)

// pollInterval bounds each Channel.ReadNonblocking wait while draining
// an exec fallback's output streams.
const pollInterval = 10 * time.Millisecond

// putChunkSize is the size of each stdin write Put performs before
// invoking its progress callback, per spec.
const putChunkSize = 8 * 1024

func mkdirExec(ctx context.Context, sess *sshsession.Session, path string, mode int) error {
	cmd := fmt.Sprintf("mkdir -p %s && chmod %o %s", ShellQuote(path), mode, ShellQuote(path))
	return runSimple(ctx, sess, cmd)
}

func removeExec(ctx context.Context, sess *sshsession.Session, path string) error {
	cmd := fmt.Sprintf("rm -rf %s", ShellQuote(path))
	return runSimple(ctx, sess, cmd)
}

// runSimple runs cmd with no stdin/stdout payload, draining stderr and
// stdout so the remote process is never blocked on a full pipe, and
// translating a non-zero exit into ExitCodeError.
func runSimple(ctx context.Context, sess *sshsession.Session, cmd string) error {
	ch, err := sess.OpenChannel(ctx)
	if err != nil {
		return &SSHError{Err: err}
	}
	defer ch.Close()

	if err := ch.Start(cmd); err != nil {
		return &SSHError{Err: err}
	}
	if err := ch.SendEOF(); err != nil {
		return &SSHError{Err: err}
	}

	done := make(chan error, 2)
	go func() { done <- drainStream(ch, sshsession.Stdout, nil, nil) }()
	go func() { done <- drainStream(ch, sshsession.Stderr, nil, nil) }()
	<-done
	<-done

	status := ch.Wait()
	if status != 0 {
		return &ExitCodeError{Code: status, Reason: fmt.Sprintf("%q exited with status %d", cmd, status)}
	}
	return nil
}

// putExec streams r to the remote path via "cat > <quoted>", invoking
// progress with the cumulative byte count after each putChunkSize
// write (the last chunk may be smaller).
func putExec(ctx context.Context, sess *sshsession.Session, path string, r io.Reader, progress func(n int64)) error {
	cmd := fmt.Sprintf("cat > %s", ShellQuote(path))

	ch, err := sess.OpenChannel(ctx)
	if err != nil {
		return &SSHError{Err: err}
	}
	defer ch.Close()

	if err := ch.Start(cmd); err != nil {
		return &SSHError{Err: err}
	}

	stderrDone := make(chan error, 1)
	go func() { stderrDone <- drainStream(ch, sshsession.Stderr, nil, nil) }()
	stdoutDone := make(chan error, 1)
	go func() { stdoutDone <- drainStream(ch, sshsession.Stdout, nil, nil) }()

	var total int64
	buf := make([]byte, putChunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := ch.Write(buf[:n]); werr != nil {
				return &IOError{Err: werr}
			}
			total += int64(n)
			if progress != nil {
				progress(total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return &IOError{Err: rerr}
		}
	}

	if err := ch.SendEOF(); err != nil {
		return &SSHError{Err: err}
	}

	<-stderrDone
	<-stdoutDone

	status := ch.Wait()
	if status != 0 {
		return &ExitCodeError{Code: status, Reason: fmt.Sprintf("cat command exited with status %d", status)}
	}
	return nil
}

// getExec streams the remote path's contents to w via "cat <quoted>".
func getExec(ctx context.Context, sess *sshsession.Session, path string, w io.Writer) error {
	cmd := fmt.Sprintf("cat %s", ShellQuote(path))

	ch, err := sess.OpenChannel(ctx)
	if err != nil {
		return &SSHError{Err: err}
	}
	defer ch.Close()

	if err := ch.Start(cmd); err != nil {
		return &SSHError{Err: err}
	}
	if err := ch.SendEOF(); err != nil {
		return &SSHError{Err: err}
	}

	stderrDone := make(chan error, 1)
	go func() { stderrDone <- drainStream(ch, sshsession.Stderr, nil, nil) }()

	if err := drainStream(ch, sshsession.Stdout, w, nil); err != nil {
		return &IOError{Err: err}
	}
	<-stderrDone

	status := ch.Wait()
	if status != 0 {
		return &ExitCodeError{Code: status, Reason: fmt.Sprintf("cat command exited with status %d", status)}
	}
	return nil
}

// drainStream reads stream to completion, writing to out if non-nil,
// using the channel's bounded-wait read so it never blocks past the
// channel's lifetime.
func drainStream(ch *sshsession.Channel, stream sshsession.Stream, out io.Writer, progress func(n int)) error {
	total := 0
	for {
		data, err := ch.ReadNonblocking(stream, pollInterval)
		if len(data) > 0 {
			if out != nil {
				if _, werr := out.Write(data); werr != nil {
					return werr
				}
			}
			total += len(data)
			if progress != nil {
				progress(total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil && err != sshsession.ErrTryAgain {
			return err
		}
	}
}
