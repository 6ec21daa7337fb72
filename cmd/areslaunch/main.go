// Command areslaunch drives app lifecycle operations over a device's
// Luna bus: launch, close, list installed apps, and list running apps.
package main

import (
	"context"
	"encoding/json"
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
	app := kingpin.New("areslaunch", "Launch and manage webOS apps on a device")
	var flags clicommon.DeviceFlags
	flags.BindToApp(app)

	launch := app.Command("launch", "Launch an app")
	var launchID, params string
	launch.Arg("app-id", "App id to launch").Required().StringVar(&launchID)
	launch.Flag("params", "JSON launch parameters").StringVar(&params)

	closeCmd := app.Command("close", "Close a running app")
	var closeID string
	closeCmd.Arg("app-id", "App id to close").Required().StringVar(&closeID)

	list := app.Command("list", "List installed apps")
	running := app.Command("running", "List running apps")

	ctx := context.Background()
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	sess, err := clicommon.OpenSession(ctx, &flags)
	if err != nil {
		clicommon.Fatal(err)
	}
	defer sess.Close()
	ctl := appctl.New(luna.New(sess), transport.New(sess))

	switch cmd {
	case launch.FullCommand():
		var raw json.RawMessage
		if params != "" {
			raw = json.RawMessage(params)
		}
		if err := ctl.Launch(ctx, launchID, raw); err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
	case closeCmd.FullCommand():
		if err := ctl.Close(ctx, closeID); err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
	case list.FullCommand():
		apps, err := ctl.ListApps(ctx)
		if err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
		for _, a := range apps {
			fmt.Printf("%s\t%s\t%s\n", a.ID, a.Version, a.Title)
		}
	case running.FullCommand():
		apps, err := ctl.Running(ctx)
		if err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
		for _, a := range apps {
			fmt.Println(a.ID)
		}
	}
}
