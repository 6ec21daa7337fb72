package sshsession

import (
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// ErrTryAgain is returned by Channel.ReadNonblocking when no data is
// currently available but the stream has not reached EOF.
var ErrTryAgain = errors.New("sshsession: try again")

// Stream identifies one of a Channel's two readable byte streams.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Channel represents one remote execution or shell, derived from a
// Session. It owns three byte streams (stdin, stdout, stderr), a
// close flag, an EOF flag, and an exit status available once the
// remote command completes.
//
// Grounded on lib/client/client.go's NodeClient exec/shell plumbing,
// generalized: NodeClient hands stdin/stdout/stderr straight to
// os.Stdin/Stdout/Stderr via io.Copy goroutines; Channel instead
// exposes non-blocking reads so package shell and package luna can
// multiplex a single goroutine over both output streams themselves
// ("alternately poll stdout/stderr" and "10ms read
// timeout / scan for newline" requirements need that control).
type Channel struct {
	sess *ssh.Session

	stdin io.WriteCloser

	mu         sync.Mutex
	closed     bool
	eof        bool
	exitStatus int
	waitOnce   sync.Once
	waitErr    error

	readers [2]*streamReader
}

func newChannel(sess *ssh.Session) *Channel {
	return &Channel{sess: sess, exitStatus: -1}
}

// prepare wires up the three pipes; must be called before Start/Shell.
func (c *Channel) prepare() error {
	stdin, err := c.sess.StdinPipe()
	if err != nil {
		return &LibSSHError{Err: err}
	}
	stdout, err := c.sess.StdoutPipe()
	if err != nil {
		return &LibSSHError{Err: err}
	}
	stderr, err := c.sess.StderrPipe()
	if err != nil {
		return &LibSSHError{Err: err}
	}
	c.stdin = stdin
	c.readers[Stdout] = newStreamReader(stdout)
	c.readers[Stderr] = newStreamReader(stderr)
	return nil
}

// Start runs cmd on the channel without allocating a PTY.
func (c *Channel) Start(cmd string) error {
	if err := c.prepare(); err != nil {
		return err
	}
	if err := c.sess.Start(cmd); err != nil {
		return &LibSSHError{Err: err}
	}
	return nil
}

// RequestPty allocates a remote pseudo-terminal sized w x h before the
// shell or command starts.
func (c *Channel) RequestPty(term string, h, w int) error {
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := c.sess.RequestPty(term, h, w, modes); err != nil {
		return &LibSSHError{Err: err}
	}
	return nil
}

// Shell starts an interactive shell (PTY mode should have called
// RequestPty first).
func (c *Channel) Shell() error {
	if err := c.prepare(); err != nil {
		return err
	}
	if err := c.sess.Shell(); err != nil {
		return &LibSSHError{Err: err}
	}
	return nil
}

// WindowChange notifies the remote PTY of a terminal resize.
func (c *Channel) WindowChange(h, w int) error {
	if err := c.sess.WindowChange(h, w); err != nil {
		return &LibSSHError{Err: err}
	}
	return nil
}

// Write sends bytes to the channel's stdin.
func (c *Channel) Write(p []byte) (int, error) {
	if c.stdin == nil {
		return 0, errors.New("sshsession: channel stdin not prepared")
	}
	return c.stdin.Write(p)
}

// SendEOF closes the write side of stdin, signaling EOF to the
// remote process.
func (c *Channel) SendEOF() error {
	if c.stdin == nil {
		return nil
	}
	return c.stdin.Close()
}

// Signal sends a named POSIX signal (e.g. "TERM") to the remote
// process.
func (c *Channel) Signal(name string) error {
	return c.sess.Signal(ssh.Signal(name))
}

// ReadNonblocking performs a single bounded-wait read from the given
// stream. It returns ErrTryAgain if no data arrived within timeout,
// io.EOF once the stream is exhausted (also latching the Channel's
// EOF flag), or any other read error.
func (c *Channel) ReadNonblocking(stream Stream, timeout time.Duration) ([]byte, error) {
	r := c.readers[stream]
	data, err := r.tryRead(timeout)
	if err == io.EOF {
		c.mu.Lock()
		c.eof = true
		c.mu.Unlock()
	}
	return data, err
}

// IsEOF reports whether either stream has reported EOF.
func (c *Channel) IsEOF() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eof
}

// IsClosed reports whether Close has been called.
func (c *Channel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Wait blocks until the remote command exits, recording its exit
// status (defaulting to -1 if it cannot be determined, per spec).
func (c *Channel) Wait() int {
	c.waitOnce.Do(func() {
		c.waitErr = c.sess.Wait()
		status := -1
		var exitErr *ssh.ExitError
		var exitMissing *ssh.ExitMissingError
		switch {
		case errors.As(c.waitErr, &exitErr):
			status = exitErr.ExitStatus()
		case errors.As(c.waitErr, &exitMissing):
			status = -1
		case c.waitErr == nil:
			status = 0
		}
		c.mu.Lock()
		c.exitStatus = status
		c.mu.Unlock()
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitStatus
}

// ExitStatus returns the exit status recorded by Wait, or -1 if the
// channel has not yet finished.
func (c *Channel) ExitStatus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exitStatus
}

// Close closes the underlying SSH session. Idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := c.sess.Close(); err != nil && err != io.EOF {
		return &IOError{Err: err}
	}
	return nil
}

// streamReader adapts a blocking io.Reader into one that supports
// bounded-wait reads, by pumping Read results onto a buffered channel
// from a single background goroutine.
type streamReader struct {
	results chan streamResult
}

type streamResult struct {
	data []byte
	err  error
}

func newStreamReader(r io.Reader) *streamReader {
	sr := &streamReader{results: make(chan streamResult, 64)}
	go sr.pump(r)
	return sr
}

func (sr *streamReader) pump(r io.Reader) {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sr.results <- streamResult{data: chunk}
		}
		if err != nil {
			sr.results <- streamResult{err: err}
			return
		}
	}
}

func (sr *streamReader) tryRead(timeout time.Duration) ([]byte, error) {
	select {
	case res := <-sr.results:
		return res.data, res.err
	case <-time.After(timeout):
		return nil, ErrTryAgain
	}
}
