// Package testsrv provides a minimal in-memory SSH server used by
// package tests (sshsession, transport, luna) to exercise real
// golang.org/x/crypto/ssh wire traffic without a live webOS device.
//
// Grounded on lib/sshutils/server_test.go's pattern of spinning up a
// bare ssh.Dial-reachable listener with a fixed host key and password
// credential for unit tests, generalized to dispatch "exec"/"shell"/
// "subsystem" requests to caller-supplied handlers instead of
// teleport's own ConnectionContext plumbing (which belongs to the
// server side of a product this module does not implement).
package testsrv

import (
	"io"
	"net"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ExecHandler processes one "exec" request's command string against
// the given channel, writing to stdout/stderr and returning the exit
// status to report.
type ExecHandler func(cmd string, ch ssh.Channel) (exitStatus uint32)

// ShellHandler drives an interactive "shell" channel until the remote
// side is done with it.
type ShellHandler func(ch ssh.Channel)

// Server is a tiny SSH server for tests; each accepted connection is
// served on its own goroutine.
type Server struct {
	Addr string

	listener   net.Listener
	config     *ssh.ServerConfig
	exec       ExecHandler
	shell      ShellHandler
	sftpRoot   string
	wg         sync.WaitGroup
	acceptDone chan struct{}
}

// Options configures a Server.
type Options struct {
	// Password, if non-empty, is the only credential the server
	// accepts.
	Password string
	// Exec handles "exec" requests. May be nil if the test never
	// execs a command.
	Exec ExecHandler
	// Shell handles "shell" requests (interactive / dumb-mode shell
	// tests). May be nil.
	Shell ShellHandler
	// SFTPRoot, if non-empty, makes the server answer an "sftp"
	// subsystem request by rooting an *sftp.Server at this directory.
	SFTPRoot string
}

// New starts listening on a loopback port and returns the Server. Call
// Serve to start accepting, and Close to shut down.
func New(signer ssh.Signer, opts Options) (*Server, error) {
	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if opts.Password != "" && string(password) == opts.Password {
				return nil, nil
			}
			if opts.Password == "" {
				return nil, nil
			}
			return nil, io.EOF
		},
		NoClientAuth: opts.Password == "",
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	return &Server{
		Addr:       ln.Addr().String(),
		listener:   ln,
		config:     config,
		exec:       opts.Exec,
		shell:      opts.Shell,
		sftpRoot:   opts.SFTPRoot,
		acceptDone: make(chan struct{}),
	}, nil
}

// Serve accepts connections until Close is called.
func (s *Server) Serve() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConn(conn)
			}()
		}
	}()
}

func (s *Server) handleConn(conn net.Conn) {
	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleSession(ch, requests)
		}()
	}
}

type sessionRequest struct {
	Command string
}

type subsystemRequest struct {
	Name string
}

func (s *Server) handleSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	for req := range requests {
		switch req.Type {
		case "pty-req", "window-change", "env", "shell":
			if req.WantReply {
				req.Reply(true, nil)
			}
			if req.Type == "shell" && s.shell != nil {
				s.shell(ch)
				sendExitStatus(ch, 0)
				return
			}
		case "exec":
			var payload sessionRequest
			ssh.Unmarshal(req.Payload, &payload)
			if req.WantReply {
				req.Reply(true, nil)
			}
			status := uint32(127)
			if s.exec != nil {
				status = s.exec(payload.Command, ch)
			}
			sendExitStatus(ch, status)
			return
		case "subsystem":
			var payload subsystemRequest
			ssh.Unmarshal(req.Payload, &payload)
			if req.WantReply {
				req.Reply(true, nil)
			}
			if payload.Name == "sftp" && s.sftpRoot != "" {
				s.serveSFTP(ch)
			}
			return
		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}
}

func (s *Server) serveSFTP(ch ssh.Channel) {
	server, err := sftp.NewServer(ch, sftp.WithServerWorkingDirectory(s.sftpRoot))
	if err != nil {
		return
	}
	server.Serve()
}

func sendExitStatus(ch ssh.Channel, status uint32) {
	type exitStatusMsg struct {
		Status uint32
	}
	ch.SendRequest("exit-status", false, ssh.Marshal(exitStatusMsg{Status: status}))
}

// Close stops accepting new connections and waits for in-flight ones
// to finish.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.wg.Wait()
	return err
}
