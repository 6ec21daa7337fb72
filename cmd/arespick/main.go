// Command arespick resolves a device interactively and prints its
// name, standing in for the native GUI device picker the suite's
// other front-ends show: no GUI toolkit is in scope for this module,
// so selection falls back to clicommon.TerminalPrompt (see
// cmd/internal/clicommon).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/cmd/internal/clicommon"
	"github.com/webosbrew/ares-core/picker"
)

func main() {
	app := kingpin.New("arespick", "Choose a device interactively")
	kingpin.MustParse(app.Parse(os.Args[1:]))

	store, err := clicommon.OpenStore()
	if err != nil {
		clicommon.Fatal(err)
	}
	p := picker.New(store, clicommon.TerminalPrompt{})

	d, err := p.Pick(context.Background(), picker.Selection{Pick: true})
	if err != nil {
		clicommon.Fatal(trace.Wrap(err))
	}
	fmt.Println(d.Name)
}
