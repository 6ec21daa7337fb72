// Command arespush moves files to and from a device over
// package transport: put, get, and rm.
package main

import (
	"context"
	"os"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/cmd/internal/clicommon"
	"github.com/webosbrew/ares-core/transport"
)

func main() {
	app := kingpin.New("arespush", "Transfer files to and from a device")
	var flags clicommon.DeviceFlags
	flags.BindToApp(app)

	put := app.Command("put", "Upload a local file to the device")
	var putLocal, putRemote string
	put.Arg("local", "Local source file").Required().StringVar(&putLocal)
	put.Arg("remote", "Remote destination path").Required().StringVar(&putRemote)

	get := app.Command("get", "Download a remote file")
	var getRemote, getLocal string
	get.Arg("remote", "Remote source path").Required().StringVar(&getRemote)
	get.Arg("local", "Local destination file").Required().StringVar(&getLocal)

	rm := app.Command("rm", "Remove a remote path")
	var rmPath string
	rm.Arg("remote", "Remote path to remove").Required().StringVar(&rmPath)

	ctx := context.Background()
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	sess, err := clicommon.OpenSession(ctx, &flags)
	if err != nil {
		clicommon.Fatal(err)
	}
	defer sess.Close()
	tr := transport.New(sess)

	switch cmd {
	case put.FullCommand():
		f, err := os.Open(putLocal)
		if err != nil {
			clicommon.Fatal(trace.ConvertSystemError(err))
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			clicommon.Fatal(trace.ConvertSystemError(err))
		}
		bar := clicommon.NewProgressBar(info.Size(), putRemote)
		err = tr.Put(ctx, f, putRemote, func(n int64) { bar.Set64(n) })
		if err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
	case get.FullCommand():
		f, err := os.Create(getLocal)
		if err != nil {
			clicommon.Fatal(trace.ConvertSystemError(err))
		}
		defer f.Close()
		if err := tr.Get(ctx, getRemote, f); err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
	case rm.FullCommand():
		if err := tr.Remove(ctx, rmPath); err != nil {
			clicommon.Fatal(trace.Wrap(err))
		}
	}
}
