// Package control renders and packs the IPK's control.tar.gz member:
// a single-file gzipped tar containing a Debian-style control
// paragraph.
package control

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"time"
)

// Info holds the fields rendered into the control paragraph.
type Info struct {
	Package         string
	Version         string
	Architecture    string
	InstalledSize   int64
	PackagerVersion string
}

// Render produces the control paragraph's exact text, field order
// matching the IPK format spec.
func (i Info) Render() string {
	return fmt.Sprintf(
		"Package: %s\n"+
			"Version: %s\n"+
			"Section: misc\n"+
			"Priority: optional\n"+
			"Architecture: %s\n"+
			"Installed-Size: %d\n"+
			"Maintainer: N/A <nobody@example.com>\n"+
			"Description: This is a webOS application.\n"+
			"webOS-Package-Format-Version: 2\n"+
			"webOS-Packager-Version: %s\n",
		i.Package, i.Version, i.Architecture, i.InstalledSize, i.PackagerVersion,
	)
}

// Build renders info and wraps it in a gzipped tar containing a
// single regular file named "./control", using mtime for the tar
// entry's modification time.
func Build(info Info, mtime time.Time) ([]byte, error) {
	control := []byte(info.Render())

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	header := &tar.Header{
		Name:     "./control",
		Typeflag: tar.TypeReg,
		Mode:     0644,
		Size:     int64(len(control)),
		ModTime:  mtime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}
	if _, err := tw.Write(control); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
