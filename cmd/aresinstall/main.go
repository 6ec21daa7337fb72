// Command aresinstall uploads and installs a .ipk package on a
// device, driving appctl.Install to completion and reporting progress
// on stderr.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/appctl"
	"github.com/webosbrew/ares-core/cmd/internal/clicommon"
	"github.com/webosbrew/ares-core/luna"
	"github.com/webosbrew/ares-core/transport"
)

func main() {
	app := kingpin.New("aresinstall", "Install a webOS app package on a device")
	var flags clicommon.DeviceFlags
	var ipkPath string
	flags.BindToApp(app)
	app.Arg("ipk", "Path to the .ipk package").Required().StringVar(&ipkPath)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := context.Background()
	sess, err := clicommon.OpenSession(ctx, &flags)
	if err != nil {
		clicommon.Fatal(err)
	}
	defer sess.Close()

	data, err := os.ReadFile(ipkPath)
	if err != nil {
		clicommon.Fatal(trace.ConvertSystemError(err))
	}

	ctl := appctl.New(luna.New(sess), transport.New(sess))
	id, err := ctl.Install(ctx, data, func(state string) {
		fmt.Fprintf(os.Stderr, "install: %s\n", state)
	})
	if err != nil {
		clicommon.Fatal(trace.Wrap(err))
	}
	fmt.Println(id)
}
