// Command aresshell opens an interactive or one-shot remote shell on
// a device: with no command argument it allocates a remote PTY and
// puts the local terminal in raw mode; with a command argument it
// runs dumb (no-PTY) mode with stdout/stderr kept separate, per
// spec.md §4.5/§8 Scenario F.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/creack/pty"
	"github.com/gravitational/kingpin"
	"golang.org/x/term"

	"github.com/webosbrew/ares-core/cmd/internal/clicommon"
	"github.com/webosbrew/ares-core/shell"
	"github.com/webosbrew/ares-core/sshsession"
)

func main() {
	app := kingpin.New("aresshell", "Open a shell on a device")
	var flags clicommon.DeviceFlags
	flags.BindToApp(app)
	var command []string
	app.Arg("command", "Command to run (interactive shell if omitted)").StringsVar(&command)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()
	sess, err := clicommon.OpenSession(ctx, &flags)
	if err != nil {
		clicommon.Fatal(err)
	}
	defer sess.Close()

	var status int
	if cmd := strings.Join(command, " "); cmd == "" {
		status, err = runInteractive(ctx, sess)
	} else {
		status, err = runDumb(ctx, sess, cmd)
	}
	if err != nil {
		clicommon.Fatal(err)
	}
	os.Exit(status)
}

// runInteractive allocates a remote PTY and puts the local terminal in
// raw mode, forwarding stdin bytes through unchanged: shell.Run's
// StreamIO.Input is used verbatim whenever Keys is nil, so raw-mode
// stdin bytes already carry the escape sequences a real terminal
// produces and need no re-encoding through shell.EncodeKey.
func runInteractive(ctx context.Context, sess *sshsession.Session) (int, error) {
	width, height := 80, 24
	if ws, err := pty.GetsizeFull(os.Stdin); err == nil {
		width, height = int(ws.Cols), int(ws.Rows)
	}

	fd := int(os.Stdin.Fd())
	if state, err := term.MakeRaw(fd); err == nil {
		defer term.Restore(fd, state)
	}

	status, _, err := shell.Run(ctx, sess, "", &shell.PTYRequest{
		Width: uint16(width), Height: uint16(height), Term: termType(),
	}, shell.StreamIO{Input: os.Stdin, Stdout: os.Stdout})
	return status, err
}

// runDumb runs cmd without a PTY, keeping stdout and stderr separate.
func runDumb(ctx context.Context, sess *sshsession.Session, cmd string) (int, error) {
	status, _, err := shell.Run(ctx, sess, cmd, nil, shell.StreamIO{
		Stdout: os.Stdout, Stderr: os.Stderr,
	})
	return status, err
}

func termType() string {
	if t := os.Getenv("TERM"); t != "" {
		return t
	}
	return "xterm"
}
