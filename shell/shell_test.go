package shell_test

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/webosbrew/ares-core/device"
	"github.com/webosbrew/ares-core/internal/testsrv"
	"github.com/webosbrew/ares-core/shell"
	"github.com/webosbrew/ares-core/sshsession"
)

func TestRun_DumbMode_SeparatesStreams(t *testing.T) {
	signer, err := testsrv.GenerateSigner()
	require.NoError(t, err)
	srv, err := testsrv.New(signer, testsrv.Options{
		Password: "abc123",
		Exec: func(cmd string, ch ssh.Channel) uint32 {
			ch.Write([]byte("hello\n"))
			ch.Stderr().Write([]byte("err\n"))
			return 0
		},
	})
	require.NoError(t, err)
	srv.Serve()
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	password := "abc123"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := sshsession.Open(ctx, device.Device{
		Name: "test", Host: host, Port: port, Username: "dev", Password: &password,
	}, "")
	require.NoError(t, err)
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	status, resize, err := shell.Run(ctx, sess, "echo hello; echo err 1>&2", nil, shell.StreamIO{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	require.NoError(t, err)
	require.Nil(t, resize)
	require.Equal(t, 0, status)
	require.Equal(t, "hello\n", stdout.String())
	require.Equal(t, "err\n", stderr.String())
}

func TestEncodeKey(t *testing.T) {
	cases := []struct {
		name string
		key  shell.Key
		want []byte
	}{
		{"backspace", shell.Key{Code: shell.KeyBackspace}, []byte{0x08, 0x20, 0x08}},
		{"enter", shell.Key{Code: shell.KeyEnter}, []byte{0x0d}},
		{"left", shell.Key{Code: shell.KeyLeft}, []byte{0x1b, 0x5b, 0x44}},
		{"ctrl-c", shell.Key{Code: shell.KeyChar, Char: 'c', Ctrl: true}, []byte{'c' - 0x60}},
		{"alt-x", shell.Key{Code: shell.KeyChar, Char: 'x', Alt: true}, []byte{0x1b, 'x'}},
		{"plain", shell.Key{Code: shell.KeyChar, Char: 'q'}, []byte("q")},
		{"f1", shell.Key{Code: shell.KeyFunction, Function: 1}, []byte{0x1b, 0x5b, 0x4f, 0x31}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, shell.EncodeKey(c.key))
		})
	}
}
