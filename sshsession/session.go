// Package sshsession establishes authenticated SSH sessions to webOS
// devices and exposes a Channel factory for higher-level operations
// (Transport, Luna RPC, the interactive shell). A Session owns exactly
// one underlying *ssh.Client connection and is not safe for concurrent
// use: the contract, matching spec.md, is one Channel open at a time.
//
// Grounded on lib/client/client.go's NewNodeClient / newClientConn
// pairing: an *ssh.ClientConfig built up-front, then a single dial
// wrapped so context cancellation can interrupt it.
package sshsession

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/webosbrew/ares-core/device"
)

var log = logrus.WithField("component", "sshsession")

// connectTimeout bounds the initial TCP dial + SSH handshake.
const connectTimeout = 10 * time.Second

// Session owns one authenticated SSH connection to a single Device.
type Session struct {
	client *ssh.Client
	device device.Device
}

// Open dials and authenticates an SSH session to device. keyStoreDir
// resolves device.KeyStoreName private-key references; it may be
// empty if the device never uses that form.
func Open(ctx context.Context, d device.Device, keyStoreDir string) (*Session, error) {
	if err := d.Validate(); err != nil {
		return nil, trace.Wrap(err)
	}

	auth, err := authMethods(d, keyStoreDir)
	if err != nil {
		return nil, &AuthorizationError{Message: err.Error()}
	}

	config := &ssh.ClientConfig{
		User:              d.Username,
		Auth:              auth,
		HostKeyCallback:   nullSinkHostKeyCallback,
		HostKeyAlgorithms: HostKeyAlgorithms,
		Timeout:           connectTimeout,
		Config: ssh.Config{
			KeyExchanges: KeyExchanges,
			MACs:         MACs,
		},
	}

	addr := net.JoinHostPort(d.Host, strconv.Itoa(d.PortOrDefault()))

	log.WithField("device", d.Name).Debugf("dialing %s", addr)

	client, err := dialContext(ctx, addr, config)
	if err != nil {
		return nil, classifyDialError(err)
	}

	return &Session{client: client, device: d}, nil
}

// dialContext is ssh.Dial with the dial itself interruptible by ctx;
// the handshake still runs to completion on its own goroutine once
// started (grounded on lib/client/client.go's newClientConn, which
// wraps the handshake in a response channel selected against
// ctx.Done()).
func dialContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	type result struct {
		client *ssh.Client
		err    error
	}
	resultCh := make(chan result, 1)
	go func() {
		sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
		if err != nil {
			resultCh <- result{err: err}
			return
		}
		resultCh <- result{client: ssh.NewClient(sshConn, chans, reqs)}
	}()

	select {
	case r := <-resultCh:
		return r.client, r.err
	case <-ctx.Done():
		conn.Close()
		return nil, ctx.Err()
	}
}

// authFailureSubstring is the message golang.org/x/crypto/ssh.NewClientConn
// returns when every offered auth method is rejected by the remote
// side; the package exports no type for this case (see
// ssh.Client.handleAuth's "unable to authenticate" error), so matching
// the message is the only way to distinguish it from a genuine
// transport/protocol failure.
const authFailureSubstring = "unable to authenticate"

func classifyDialError(err error) error {
	if strings.Contains(err.Error(), authFailureSubstring) {
		return &AuthorizationError{Message: err.Error()}
	}
	if _, ok := err.(net.Error); ok {
		return &IOError{Err: err}
	}
	return &LibSSHError{Err: err}
}

// nullSinkHostKeyCallback accepts any host key unconditionally,
// implemented directly against the Go ssh.ClientConfig API: there is
// no known_hosts file to point anywhere, so the callback itself is the
// null sink.
func nullSinkHostKeyCallback(hostname string, remote net.Addr, key ssh.PublicKey) error {
	return nil
}

// nullDevicePath is not called by Open, which uses
// nullSinkHostKeyCallback instead: it names the platform null sink a
// tool shelling out to a real ssh(1) client would pass as
// -o UserKnownHostsFile.
func nullDevicePath() string {
	if os.PathSeparator == '\\' {
		return `C:\nul`
	}
	return os.DevNull
}

// authMethods builds the SSH auth method list in spec order: private
// key (if present) takes precedence over password, and an empty Device
// falls back to "none" auth (an empty Auth slice still causes the
// client to attempt the "none" method once during negotiation).
func authMethods(d device.Device, keyStoreDir string) ([]ssh.AuthMethod, error) {
	if d.PrivateKey != nil {
		signer, err := privateKeySigner(d.PrivateKey, d.EffectivePassphrase(), keyStoreDir)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if d.Password != nil {
		return []ssh.AuthMethod{ssh.Password(*d.Password)}, nil
	}
	return nil, nil
}

// OpenChannel opens a new exec/shell channel on this session. Only one
// Channel should be in use at a time per spec.
func (s *Session) OpenChannel(ctx context.Context) (*Channel, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, &LibSSHError{Err: err}
	}
	return newChannel(sess), nil
}

// NewSFTPClient opens a fresh SFTP subsystem channel over this
// session's connection, grounded on lib/sshutils/sftp.remoteFS's
// sftp.NewClient(sshClient) construction. The caller owns the
// returned client's lifetime.
func (s *Session) NewSFTPClient() (*sftp.Client, error) {
	client, err := sftp.NewClient(s.client)
	if err != nil {
		return nil, &LibSSHError{Err: err}
	}
	return client, nil
}

// Device returns the device this session is connected to.
func (s *Session) Device() device.Device { return s.device }

// Close tears down the underlying SSH connection.
func (s *Session) Close() error {
	if err := s.client.Close(); err != nil {
		return &IOError{Err: err}
	}
	return nil
}
