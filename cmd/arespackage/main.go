// Command arespackage builds a webOS .ipk from an app directory and
// zero or more service directories, wrapping packager.Build.
package main

import (
	"fmt"
	"os"

	"github.com/gravitational/kingpin"
	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/cmd/internal/clicommon"
	"github.com/webosbrew/ares-core/packager"
)

func main() {
	app := kingpin.New("arespackage", "Build a webOS .ipk package")

	var appDir, outDir, archFlag, packagerVersion string
	var appExcludes, serviceDirs, excludes []string

	app.Arg("app-dir", "App directory (containing appinfo.json)").Required().StringVar(&appDir)
	app.Flag("service", "Service directory (containing services.json); repeatable").StringsVar(&serviceDirs)
	app.Flag("exclude", "Glob pattern to exclude from every component; repeatable").StringsVar(&excludes)
	app.Flag("app-exclude", "Glob pattern to exclude from the app only; repeatable").StringsVar(&appExcludes)
	app.Flag("out-dir", "Output directory (defaults to the app directory's parent)").StringVar(&outDir)
	app.Flag("arch", "Force the package architecture (arm or x86)").StringVar(&archFlag)
	app.Flag("packager-version", "Recorded webOS-Packager-Version").StringVar(&packagerVersion)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	var forceArch *packager.Arch
	switch archFlag {
	case "":
	case "arm":
		a := packager.Arch{Kind: packager.ArchARM}
		forceArch = &a
	case "x86":
		a := packager.Arch{Kind: packager.ArchX86, Variant: "x86"}
		forceArch = &a
	default:
		clicommon.Fatal(trace.BadParameter("unknown --arch %q (want arm or x86)", archFlag))
	}

	var services []packager.ComponentSource
	for _, dir := range serviceDirs {
		services = append(services, packager.ComponentSource{Dir: dir})
	}

	outPath, err := packager.Build(packager.BuildOptions{
		AppDir:          appDir,
		AppExcludes:     appExcludes,
		Services:        services,
		GlobalExcludes:  excludes,
		OutDir:          outDir,
		ForceArch:       forceArch,
		PackagerVersion: packagerVersion,
	})
	if err != nil {
		clicommon.Fatal(trace.Wrap(err))
	}
	fmt.Println(outPath)
}
