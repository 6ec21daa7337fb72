// Package packager builds a webOS .ipk from an app directory and zero
// or more service directories: a deterministic BSD-ar archive of
// debian-binary, control.tar.gz, and data.tar.gz, following the
// Debian/Opkg package layout.
//
// Grounded on original_source/ares-package/src/main.rs's top-level
// orchestration (parse manifests, validate, assemble, write), split
// across packager/input, packager/arwriter, packager/datatar, and
// packager/control the way the original splits input.rs/data.rs/
// control.rs — one concern per file, matching lib/sshutils/scp's
// layout (command/filesystem/wire-format as separate files under one
// package tree).
package packager

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/packager/arwriter"
	"github.com/webosbrew/ares-core/packager/control"
	"github.com/webosbrew/ares-core/packager/datatar"
	"github.com/webosbrew/ares-core/packager/input"
)

// Arch aliases input.Arch so callers of this package never need to
// import packager/input directly just to name a forced architecture.
type Arch = input.Arch

const (
	ArchNone = input.ArchNone
	ArchARM  = input.ArchARM
	ArchX86  = input.ArchX86
)

// DefaultPackagerVersion is recorded in the control paragraph's
// webOS-Packager-Version field when BuildOptions.PackagerVersion is
// unset.
const DefaultPackagerVersion = "1.0.0"

// PackageInfo is the packageinfo.json payload embedded in data.tar.gz.
type PackageInfo struct {
	ID       string   `json:"id"`
	Version  string   `json:"version"`
	App      string   `json:"app"`
	Services []string `json:"services,omitempty"`
}

// ComponentSource names one input directory (the app, or one service)
// plus exclude patterns specific to it.
type ComponentSource struct {
	Dir      string
	Excludes []string
}

// BuildOptions configures Build.
type BuildOptions struct {
	AppDir      string
	AppExcludes []string
	Services    []ComponentSource

	// GlobalExcludes applies to every component in addition to its own
	// Excludes.
	GlobalExcludes []string

	// OutDir defaults to the app directory's parent.
	OutDir string

	// ForceArch, if set, must match the inferred architecture (by
	// Kind+Variant, never by rendered string) or Build fails.
	ForceArch *Arch

	PackagerVersion string

	// Mtime defaults to time.Now() and is stamped on every archive
	// member and tar entry, so callers needing reproducible output
	// should set it explicitly.
	Mtime time.Time
}

// Build assembles the .ipk and returns its path.
func Build(opts BuildOptions) (string, error) {
	mtime := opts.Mtime
	if mtime.IsZero() {
		mtime = time.Now()
	}

	appInfo, err := input.ParseAppInfo(opts.AppDir)
	if err != nil {
		return "", trace.Wrap(err)
	}

	appExclude, err := input.CompileExcludes(mergeExcludes(opts.GlobalExcludes, opts.AppExcludes))
	if err != nil {
		return "", trace.Wrap(err)
	}
	app := input.ComponentInfo[input.AppInfo]{Path: opts.AppDir, Info: appInfo, Exclude: appExclude}

	var services []input.ComponentInfo[input.ServiceInfo]
	var serviceIDs []string
	for _, src := range opts.Services {
		svcInfo, err := input.ParseServiceInfo(src.Dir)
		if err != nil {
			return "", trace.Wrap(err)
		}
		svcExclude, err := input.CompileExcludes(mergeExcludes(opts.GlobalExcludes, src.Excludes))
		if err != nil {
			return "", trace.Wrap(err)
		}
		services = append(services, input.ComponentInfo[input.ServiceInfo]{
			Path: src.Dir, Info: svcInfo, Exclude: svcExclude,
		})
		serviceIDs = append(serviceIDs, svcInfo.ID)
	}

	pkgInfo := PackageInfo{ID: appInfo.ID, Version: appInfo.Version, App: appInfo.ID, Services: serviceIDs}
	pkgInfoBytes, err := json.MarshalIndent(pkgInfo, "", "  ")
	if err != nil {
		return "", trace.Wrap(err)
	}
	pkgInfoBytes = append(pkgInfoBytes, '\n')

	appValidation, err := app.Validate()
	if err != nil {
		return "", trace.Wrap(err)
	}

	totalSize := int64(len(pkgInfoBytes)) + appValidation.Size
	archSet := newArchSet()
	archSet.add(appValidation.Arch)

	for _, svc := range services {
		v, err := svc.Validate()
		if err != nil {
			return "", trace.Wrap(err)
		}
		totalSize += v.Size
		archSet.add(v.Arch)
	}

	arch, err := archSet.resolve()
	if err != nil {
		return "", trace.Wrap(err)
	}

	if opts.ForceArch != nil {
		if !opts.ForceArch.Equal(arch) {
			return "", trace.Wrap(&input.InvalidDataError{
				Err: fmt.Errorf("forced architecture %s does not match inferred architecture %s", *opts.ForceArch, arch),
			})
		}
		arch = *opts.ForceArch
	}

	controlBytes, err := control.Build(control.Info{
		Package:         appInfo.ID,
		Version:         appInfo.Version,
		Architecture:    arch.String(),
		InstalledSize:   totalSize,
		PackagerVersion: packagerVersion(opts.PackagerVersion),
	}, mtime)
	if err != nil {
		return "", trace.Wrap(err)
	}

	components := []datatar.Component{
		{SourceDir: app.Path, ArchiveDir: "usr/palm/applications/" + appInfo.ID, Exclude: app.Exclude},
	}
	for _, svc := range services {
		components = append(components, datatar.Component{
			SourceDir:  svc.Path,
			ArchiveDir: "usr/palm/services/" + svc.Info.ID,
			Exclude:    svc.Exclude,
		})
	}

	dataBytes, err := datatar.Build(datatar.BuildOptions{
		Components: components,
		ExtraFiles: []datatar.ExtraFile{{
			ArchivePath: "usr/palm/packages/" + appInfo.ID + "/packageinfo.json",
			Data:        pkgInfoBytes,
			Mode:        0100644,
		}},
		Mtime: mtime,
	})
	if err != nil {
		return "", trace.Wrap(err)
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(opts.AppDir)
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("%s_%s_%s.ipk", appInfo.ID, appInfo.Version, arch.String()))

	if err := writeIPK(outPath, mtime, controlBytes, dataBytes); err != nil {
		return "", trace.Wrap(err)
	}
	return outPath, nil
}

func writeIPK(outPath string, mtime time.Time, controlBytes, dataBytes []byte) error {
	f, err := os.Create(outPath)
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	defer f.Close()

	debianBinary := []byte("2.0\n")
	aw := arwriter.NewWriter(f)
	mtimeUnix := mtime.Unix()

	members := []struct {
		name string
		data []byte
	}{
		{"debian-binary", debianBinary},
		{"control.tar.gz", controlBytes},
		{"data.tar.gz", dataBytes},
	}
	for _, m := range members {
		header := arwriter.Header{Name: m.name, Mtime: mtimeUnix, Mode: 0100644, Size: int64(len(m.data))}
		if err := aw.AddMember(header, m.data); err != nil {
			return err
		}
	}
	return nil
}

func packagerVersion(v string) string {
	if v == "" {
		return DefaultPackagerVersion
	}
	return v
}

func mergeExcludes(global, component []string) []string {
	if len(global) == 0 {
		return component
	}
	if len(component) == 0 {
		return global
	}
	out := make([]string, 0, len(global)+len(component))
	out = append(out, global...)
	out = append(out, component...)
	return out
}

// archSet tracks the distinct architectures seen across a package's
// components, enforcing spec.md's "mixing ARM and X86 is forbidden"
// rule.
type archSet struct {
	seen map[Arch]bool
	list []Arch
}

func newArchSet() *archSet {
	return &archSet{seen: map[Arch]bool{}}
}

func (s *archSet) add(a *Arch) {
	if a == nil {
		return
	}
	if !s.seen[*a] {
		s.seen[*a] = true
		s.list = append(s.list, *a)
	}
}

func (s *archSet) resolve() (Arch, error) {
	switch len(s.list) {
	case 0:
		return Arch{Kind: ArchNone}, nil
	case 1:
		return s.list[0], nil
	default:
		return Arch{}, &input.InvalidDataError{Err: errors.New("Mixed architecture is not allowed")}
	}
}
