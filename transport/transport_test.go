package transport_test

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/webosbrew/ares-core/device"
	"github.com/webosbrew/ares-core/internal/testsrv"
	"github.com/webosbrew/ares-core/sshsession"
	"github.com/webosbrew/ares-core/transport"
)

func openSession(t *testing.T, opts testsrv.Options, files device.FileTransferMode) (*sshsession.Session, func()) {
	t.Helper()
	signer, err := testsrv.GenerateSigner()
	require.NoError(t, err)
	srv, err := testsrv.New(signer, opts)
	require.NoError(t, err)
	srv.Serve()

	host, portStr, err := net.SplitHostPort(srv.Addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	password := "abc123"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := sshsession.Open(ctx, device.Device{
		Name: "test", Host: host, Port: port, Username: "dev", Password: &password, Files: files,
	}, "")
	require.NoError(t, err)

	return sess, func() {
		sess.Close()
		srv.Close()
	}
}

func TestTransport_PutGet_SFTP(t *testing.T) {
	root := t.TempDir()
	sess, cleanup := openSession(t, testsrv.Options{Password: "abc123", SFTPRoot: root}, device.FilesAuto)
	defer cleanup()

	tr := transport.New(sess)
	target := filepath.Join(root, "file.txt")

	var progressed []int64
	err := tr.Put(context.Background(), bytes.NewBufferString("hello world"), target, func(n int64) {
		progressed = append(progressed, n)
	})
	require.NoError(t, err)
	require.NotEmpty(t, progressed)

	var out bytes.Buffer
	require.NoError(t, tr.Get(context.Background(), target, &out))
	require.Equal(t, "hello world", out.String())
}

func TestTransport_Mkdir_AlreadyExistsAsDir(t *testing.T) {
	root := t.TempDir()
	sess, cleanup := openSession(t, testsrv.Options{Password: "abc123", SFTPRoot: root}, device.FilesAuto)
	defer cleanup()

	tr := transport.New(sess)
	require.NoError(t, tr.Mkdir(context.Background(), root, 0755))
}

func TestTransport_Mkdir_ExistsAsFile(t *testing.T) {
	root := t.TempDir()
	filePath := filepath.Join(root, "notadir")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	sess, cleanup := openSession(t, testsrv.Options{Password: "abc123", SFTPRoot: root}, device.FilesAuto)
	defer cleanup()

	tr := transport.New(sess)
	err := tr.Mkdir(context.Background(), filePath, 0755)
	require.Error(t, err)
}

func TestTransport_ExecFallback_StreamMode(t *testing.T) {
	var execCalls int
	sess, cleanup := openSession(t, testsrv.Options{
		Password: "abc123",
		Exec: func(cmd string, ch ssh.Channel) uint32 {
			execCalls++
			io.Copy(io.Discard, ch)
			return 0
		},
	}, device.FilesStream)
	defer cleanup()

	tr := transport.New(sess)

	err := tr.Put(context.Background(), bytes.NewBufferString("data"), "ignored", nil)
	require.NoError(t, err)
	require.Equal(t, 1, execCalls)
}
