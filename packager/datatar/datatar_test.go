package datatar_test

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/ares-core/packager/datatar"
)

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

func untar(t *testing.T, data []byte) []*tar.Header {
	t.Helper()
	gz, err := gzip.NewReader(&byteReader{b: data})
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var headers []*tar.Header
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		hdr := *h
		headers = append(headers, &hdr)
	}
	return headers
}

func TestBuild_DirectoriesEmittedOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "f.txt"), []byte("x"), 0644))

	data, err := datatar.Build(datatar.BuildOptions{
		Components: []datatar.Component{{SourceDir: dir, ArchiveDir: "usr/palm/applications/com.example.foo"}},
		Mtime:      time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	headers := untar(t, data)
	seen := map[string]int{}
	for _, h := range headers {
		seen[h.Name]++
	}
	for name, count := range seen {
		require.Equalf(t, 1, count, "entry %q emitted %d times", name, count)
	}
	require.Contains(t, seen, "usr/")
	require.Contains(t, seen, "usr/palm/")
	require.Contains(t, seen, "usr/palm/applications/")
	require.Contains(t, seen, "usr/palm/applications/com.example.foo/")
	require.Contains(t, seen, "usr/palm/applications/com.example.foo/a/")
	require.Contains(t, seen, "usr/palm/applications/com.example.foo/a/b/")
	require.Contains(t, seen, "usr/palm/applications/com.example.foo/a/b/f.txt")
}

func TestBuild_DirectoryModeAndOwnership(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	data, err := datatar.Build(datatar.BuildOptions{
		Components: []datatar.Component{{SourceDir: dir, ArchiveDir: "usr/palm/applications/foo"}},
		Mtime:      time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	for _, h := range untar(t, data) {
		if h.Typeflag == tar.TypeDir {
			require.EqualValues(t, 0100775, h.Mode)
			require.Equal(t, 0, h.Uid)
			require.Equal(t, 5000, h.Gid)
		}
	}
}

func TestBuild_ExcludeMatchesNestedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.log"), []byte("c"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))

	data, err := datatar.Build(datatar.BuildOptions{
		Components: []datatar.Component{{
			SourceDir:  dir,
			ArchiveDir: "usr/palm/applications/foo",
			Exclude:    regexp.MustCompile(`(?i)\.log$`),
		}},
		Mtime: time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, h := range untar(t, data) {
		seen[h.Name] = true
	}
	require.True(t, seen["usr/palm/applications/foo/a.txt"])
	require.False(t, seen["usr/palm/applications/foo/sub/c.log"])
}

func TestBuild_ExtraFile(t *testing.T) {
	dir := t.TempDir()
	data, err := datatar.Build(datatar.BuildOptions{
		Components: []datatar.Component{{SourceDir: dir, ArchiveDir: "usr/palm/applications/foo"}},
		ExtraFiles: []datatar.ExtraFile{{
			ArchivePath: "usr/palm/packages/foo/packageinfo.json",
			Data:        []byte(`{"id":"foo"}` + "\n"),
			Mode:        0100644,
		}},
		Mtime: time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	var found bool
	for _, h := range untar(t, data) {
		if h.Name == "usr/palm/packages/foo/packageinfo.json" {
			found = true
		}
	}
	require.True(t, found)
}
