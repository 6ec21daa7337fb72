package control_test

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/ares-core/packager/control"
)

func TestRender_FieldOrderAndContent(t *testing.T) {
	info := control.Info{
		Package: "com.example.foo", Version: "1.0", Architecture: "arm",
		InstalledSize: 256, PackagerVersion: "1.0.0",
	}
	got := info.Render()
	want := "Package: com.example.foo\n" +
		"Version: 1.0\n" +
		"Section: misc\n" +
		"Priority: optional\n" +
		"Architecture: arm\n" +
		"Installed-Size: 256\n" +
		"Maintainer: N/A <nobody@example.com>\n" +
		"Description: This is a webOS application.\n" +
		"webOS-Package-Format-Version: 2\n" +
		"webOS-Packager-Version: 1.0.0\n"
	require.Equal(t, want, got)
}

func TestBuild_SingleControlFile(t *testing.T) {
	data, err := control.Build(control.Info{
		Package: "com.example.foo", Version: "1.0", Architecture: "arm",
		InstalledSize: 10, PackagerVersion: "1.0.0",
	}, time.Unix(1700000000, 0))
	require.NoError(t, err)

	gz, err := gzip.NewReader(&byteReader{b: data})
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	h, err := tr.Next()
	require.NoError(t, err)
	require.Equal(t, "./control", h.Name)

	content, err := io.ReadAll(tr)
	require.NoError(t, err)
	require.Contains(t, string(content), "Package: com.example.foo")

	_, err = tr.Next()
	require.ErrorIs(t, err, io.EOF)
}

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
