// Package luna calls webOS's Luna service bus via the device-local
// luna-send/luna-send-pub executables, exposing a one-shot Call and a
// streaming Subscribe, both shelled out over a sshsession.Channel the
// same way package transport shells out "cat"/"mkdir"/"rm".
//
// Grounded on lib/client/client.go's exec-and-read-stdout pattern
// (teleport's own remote-exec helpers), generalized with the
// "subscription" half built on sshsession.Channel's bounded-wait reads
// (see sshsession/channel.go's streamReader) since nothing in the
// teacher repo itself streams newline-delimited JSON off an exec
// channel.
package luna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webosbrew/ares-core/sshsession"
	"github.com/webosbrew/ares-core/transport"
)

var log = logrus.WithField("component", "luna")

// subscribeReadTimeout bounds each ReadNonblocking wait while a
// Subscription scans for its next newline-delimited message.
const subscribeReadTimeout = 10 * time.Millisecond

// Client issues Luna-bus requests over a Session.
type Client struct {
	sess *sshsession.Session
}

// New wraps sess in a Client.
func New(sess *sshsession.Session) *Client {
	return &Client{sess: sess}
}

func lunaCommand(binary, uri string, payload []byte) string {
	return fmt.Sprintf("%s -n 1 %s %s", binary, transport.ShellQuote(uri), transport.ShellQuote(string(payload)))
}

func sendBinary(public bool) string {
	if public {
		return "luna-send-pub"
	}
	return "luna-send"
}

// Call performs a one-shot Luna request and decodes the reply as R.
func Call[R any](ctx context.Context, c *Client, uri string, payload any, public bool) (R, error) {
	var zero R

	body, err := json.Marshal(payload)
	if err != nil {
		return zero, &InvalidDataError{Err: err}
	}

	cmd := lunaCommand(sendBinary(public), uri, body)

	ch, err := c.sess.OpenChannel(ctx)
	if err != nil {
		return zero, &IOError{Err: err}
	}
	defer ch.Close()

	if err := ch.Start(cmd); err != nil {
		return zero, &IOError{Err: err}
	}
	if err := ch.SendEOF(); err != nil {
		return zero, &IOError{Err: err}
	}

	var stdout, stderr bytes.Buffer
	done := make(chan struct{}, 2)
	go func() { drainInto(ch, sshsession.Stderr, &stderr); done <- struct{}{} }()
	go func() { drainInto(ch, sshsession.Stdout, &stdout); done <- struct{}{} }()
	<-done
	<-done

	if ch.Wait() != 0 {
		return zero, &NotAvailableError{URI: uri}
	}

	if err := json.Unmarshal(stdout.Bytes(), &zero); err != nil {
		return zero, &InvalidDataError{Err: err}
	}
	return zero, nil
}

func drainInto(ch *sshsession.Channel, stream sshsession.Stream, buf *bytes.Buffer) {
	for {
		data, err := ch.ReadNonblocking(stream, subscribeReadTimeout)
		buf.Write(data)
		if err != nil && err != sshsession.ErrTryAgain {
			return
		}
	}
}

// Subscription is a long-lived Luna subscription opened by Subscribe.
// Next yields one decoded message at a time; Close should always be
// called once the caller is done (or has received a terminal event).
type Subscription[R any] struct {
	ch  *sshsession.Channel
	buf []byte
	uri string
}

// Subscribe opens a streaming Luna subscription. The channel remains
// open for the life of the returned Subscription.
func Subscribe[R any](ctx context.Context, c *Client, uri string, payload any, public bool) (*Subscription[R], error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &InvalidDataError{Err: err}
	}

	cmd := fmt.Sprintf("%s -i %s %s", sendBinary(public), transport.ShellQuote(uri), transport.ShellQuote(string(body)))

	ch, err := c.sess.OpenChannel(ctx)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	if err := ch.Start(cmd); err != nil {
		ch.Close()
		return nil, &IOError{Err: err}
	}

	return &Subscription[R]{ch: ch, uri: uri}, nil
}

// Next reads the next newline-delimited JSON message and decodes it as
// R. It returns (zero, io.EOF) once the channel is closed or reaches
// EOF before a full line accumulates; a read failure returns an
// *IOError and a decode failure returns an *InvalidDataError (the
// offending line is still consumed, so subsequent calls can make
// progress).
func (s *Subscription[R]) Next(ctx context.Context) (R, error) {
	var zero R
	for {
		if idx := bytes.IndexByte(s.buf, '\n'); idx >= 0 {
			line := s.buf[:idx]
			s.buf = s.buf[idx+1:]
			var v R
			if err := json.Unmarshal(line, &v); err != nil {
				return zero, &InvalidDataError{Err: err}
			}
			return v, nil
		}

		data, err := s.ch.ReadNonblocking(sshsession.Stdout, subscribeReadTimeout)
		if len(data) > 0 {
			s.buf = append(s.buf, data...)
			continue
		}
		if err == sshsession.ErrTryAgain {
			if s.ch.IsEOF() || s.ch.IsClosed() {
				return zero, io.EOF
			}
			continue
		}
		if err == io.EOF {
			return zero, io.EOF
		}
		if err != nil {
			return zero, &IOError{Err: err}
		}
		return zero, io.EOF
	}
}

// Close tears down the subscription's underlying channel, attempting
// a clean shutdown (EOF, then SIGTERM) before closing outright. All
// errors are logged and swallowed per spec: callers cannot act on a
// subscription teardown failure.
func (s *Subscription[R]) Close() {
	if err := s.ch.SendEOF(); err != nil {
		log.WithField("uri", s.uri).WithError(err).Warn("subscription send_eof failed")
	}
	if err := s.ch.Signal("TERM"); err != nil {
		log.WithField("uri", s.uri).WithError(err).Warn("subscription signal TERM failed")
	}
	if err := s.ch.Close(); err != nil {
		log.WithField("uri", s.uri).WithError(err).Warn("subscription close failed")
	}
}
