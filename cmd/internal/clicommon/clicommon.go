// Package clicommon is the small seam every cmd/ binary in the suite
// shares: config-directory resolution, device-selection flag wiring,
// session setup, and the FatalError exit convention. None of it is
// part of the core subsystems (sshsession, luna, appctl, transport,
// packager) — it exists purely so the individual binaries stay thin,
// the way tool/tctl/common factors flag/run scaffolding out of
// tctl.go's command files.
package clicommon

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/webosbrew/ares-core/device"
	"github.com/webosbrew/ares-core/devicestore"
	"github.com/webosbrew/ares-core/picker"
	"github.com/webosbrew/ares-core/sshsession"
)

// deviceEnvVar is spec.md §6's environment override: it selects the
// target device when no explicit --device/--pick flag is given.
const deviceEnvVar = "ARES_DEVICE"

// configDirEnvVar overrides the default config directory, matching the
// teacher's convention of a home-relative default with an environment
// escape hatch (lib/config resolves TELEPORT_HOME the same way).
const configDirEnvVar = "ARES_CONFIG_DIR"

// ConfigDir returns the directory holding the device registry and SSH
// key store, honoring ARES_CONFIG_DIR before falling back to
// "<home>/.ares".
func ConfigDir() string {
	if dir := os.Getenv(configDirEnvVar); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ares"
	}
	return filepath.Join(home, ".ares")
}

// RegistryPath is the JSON device registry file devicestore.Open reads.
func RegistryPath() string { return filepath.Join(ConfigDir(), "devices.json") }

// KeyStoreDir is where device.KeyStoreName private-key references are
// resolved relative to.
func KeyStoreDir() string { return filepath.Join(ConfigDir(), "keys") }

// OpenStore opens the shared device registry.
func OpenStore() (*devicestore.Manager, error) {
	m, err := devicestore.Open(RegistryPath())
	return m, trace.Wrap(err)
}

// DeviceFlags binds the --device/--pick flags every device-targeting
// command exposes.
type DeviceFlags struct {
	name string
	pick bool
}

// Bind registers --device and --pick on cmd, defaulting --device to
// ARES_DEVICE when set.
func (f *DeviceFlags) Bind(cmd *kingpin.CmdClause) {
	cmd.Flag("device", "Device name (defaults to $ARES_DEVICE, then the registry default)").
		Short('d').Default(os.Getenv(deviceEnvVar)).StringVar(&f.name)
	cmd.Flag("pick", "Choose the device interactively").BoolVar(&f.pick)
}

// BindToApp registers --device and --pick directly on app, for
// binaries with no subcommands of their own.
func (f *DeviceFlags) BindToApp(app *kingpin.Application) {
	app.Flag("device", "Device name (defaults to $ARES_DEVICE, then the registry default)").
		Short('d').Default(os.Getenv(deviceEnvVar)).StringVar(&f.name)
	app.Flag("pick", "Choose the device interactively").BoolVar(&f.pick)
}

// Selection converts the parsed flags into a picker.Selection.
func (f *DeviceFlags) Selection() picker.Selection {
	sel := picker.Selection{Pick: f.pick}
	if f.name != "" {
		sel.Name = &f.name
	}
	return sel
}

// ResolveDevice opens the registry, resolves flags against it (via an
// interactive terminal prompt when --pick is set), and returns the
// chosen device.
func ResolveDevice(ctx context.Context, flags *DeviceFlags) (*device.Device, error) {
	store, err := OpenStore()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	p := picker.New(store, TerminalPrompt{})
	d, err := p.Pick(ctx, flags.Selection())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return d, nil
}

// OpenSession resolves flags to a device and opens a Session to it.
func OpenSession(ctx context.Context, flags *DeviceFlags) (*sshsession.Session, error) {
	d, err := ResolveDevice(ctx, flags)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	sess, err := sshsession.Open(ctx, *d, KeyStoreDir())
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return sess, nil
}

// TerminalPrompt implements picker.PickPrompt by numbering the
// registry's devices on stdout and reading a choice from stdin.
type TerminalPrompt struct{}

// Pick lists devices and reads a 1-based index from stdin, returning
// nil, nil if the user enters nothing.
func (TerminalPrompt) Pick(ctx context.Context, devices []device.Device) (*device.Device, error) {
	for i, d := range devices {
		fmt.Fprintf(os.Stdout, "%2d) %s (%s@%s)\n", i+1, d.Name, d.Username, d.Host)
	}
	fmt.Fprint(os.Stdout, "Select a device: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, trace.ConvertSystemError(err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(devices) {
		return nil, trace.BadParameter("invalid selection %q", line)
	}
	return &devices[idx-1], nil
}

// NewProgressBar renders a byte-count progress bar the way
// lib/sshutils/sftp.NewProgressBar does, reused here for install/push
// transfers so every cmd/ binary gets identical progress rendering.
func NewProgressBar(size int64, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Fatal prints err the way a CLI front-end should — stripped of
// gravitational/trace's debug frames unless debug logging is on — and
// exits with status 1, matching lib/utils.FatalError.
func Fatal(err error) {
	if logrus.GetLevel() == logrus.DebugLevel {
		fmt.Fprintln(os.Stderr, trace.DebugReport(err))
	} else {
		fmt.Fprintln(os.Stderr, "ERROR: "+err.Error())
	}
	os.Exit(1)
}
