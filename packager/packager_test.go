package packager_test

import (
	"archive/tar"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/ares-core/packager"
)

const (
	emARM = 40
	em386 = 3
)

// writeELF writes a minimal, valid-enough ELF32 header that
// debug/elf.Open will parse, padded to totalSize bytes, with the given
// e_machine value.
func writeELF(t *testing.T, path string, machine uint16, totalSize int) {
	t.Helper()
	buf := make([]byte, totalSize)
	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 1 // ELFCLASS32
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EI_VERSION

	le := binary.LittleEndian
	le.PutUint16(buf[16:18], 2)       // e_type = ET_EXEC
	le.PutUint16(buf[18:20], machine) // e_machine
	le.PutUint32(buf[20:24], 1)       // e_version
	le.PutUint16(buf[40:42], 52)      // e_ehsize

	require.NoError(t, os.WriteFile(path, buf, 0755))
}

func writeAppInfo(t *testing.T, dir string, info map[string]any) {
	t.Helper()
	data, err := json.Marshal(info)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appinfo.json"), data, 0644))
}

// arMember is one parsed BSD ar archive member, used only to verify
// packager's own arwriter output in tests.
type arMember struct {
	Name string
	Data []byte
}

func parseAr(t *testing.T, data []byte) []arMember {
	t.Helper()
	require.True(t, strings.HasPrefix(string(data), "!<arch>\n"))
	data = data[len("!<arch>\n"):]

	var members []arMember
	for len(data) > 0 {
		require.GreaterOrEqual(t, len(data), 60)
		header := data[:60]
		data = data[60:]

		name := strings.TrimSpace(string(header[0:16]))
		sizeStr := strings.TrimSpace(string(header[48:58]))
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		require.NoError(t, err)

		memberData := data[:size]
		data = data[size:]
		if size%2 != 0 {
			data = data[1:]
		}
		members = append(members, arMember{Name: name, Data: memberData})
	}
	return members
}

func readTarGz(t *testing.T, data []byte) map[string]*tar.Header {
	t.Helper()
	gz, err := gzip.NewReader(bytesReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	entries := map[string]*tar.Header{}
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		hdr := *h
		entries[h.Name] = &hdr
	}
	return entries
}

func bytesReader(b []byte) io.Reader {
	return &sliceReader{b: b}
}

type sliceReader struct {
	b   []byte
	pos int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func TestBuild_ScenarioA_ARMNativeApp(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "app")
	require.NoError(t, os.Mkdir(appDir, 0755))
	writeAppInfo(t, appDir, map[string]any{
		"id": "com.example.foo", "version": "1.0", "type": "native",
		"main": "foo", "title": "Foo",
	})
	writeELF(t, filepath.Join(appDir, "foo"), emARM, 128)

	outDir := t.TempDir()
	path, err := packager.Build(packager.BuildOptions{
		AppDir: appDir,
		OutDir: outDir,
		Mtime:  time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "com.example.foo_1.0_arm.ipk"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	members := parseAr(t, raw)
	require.Len(t, members, 3)
	require.Equal(t, "debian-binary", members[0].Name)
	require.Equal(t, []byte("2.0\n"), members[0].Data)
	require.Equal(t, "control.tar.gz", members[1].Name)
	require.Equal(t, "data.tar.gz", members[2].Name)

	control := readTarGz(t, members[1].Data)
	require.Contains(t, control, "./control")

	data := readTarGz(t, members[2].Data)
	_, ok := data["usr/palm/packages/com.example.foo/packageinfo.json"]
	require.True(t, ok)
	_, ok = data["usr/palm/applications/com.example.foo/foo"]
	require.True(t, ok)
}

func TestBuild_ScenarioB_ExcludeFilter(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "app")
	require.NoError(t, os.Mkdir(appDir, 0755))
	writeAppInfo(t, appDir, map[string]any{
		"id": "com.example.bar", "version": "1.0", "type": "web",
		"main": "index.html", "title": "Bar",
	})
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "b.log"), []byte("b"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(appDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "sub", "c.log"), []byte("c"), 0644))

	outDir := t.TempDir()
	path, err := packager.Build(packager.BuildOptions{
		AppDir:      appDir,
		AppExcludes: []string{"*.log"},
		OutDir:      outDir,
		Mtime:       time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	members := parseAr(t, raw)
	data := readTarGz(t, members[2].Data)

	_, ok := data["usr/palm/applications/com.example.bar/a.txt"]
	require.True(t, ok)
	_, ok = data["usr/palm/applications/com.example.bar/b.log"]
	require.False(t, ok)
	_, ok = data["usr/palm/applications/com.example.bar/sub/c.log"]
	require.False(t, ok)
}

func TestBuild_ScenarioE_MixedArchitecture(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "app")
	require.NoError(t, os.Mkdir(appDir, 0755))
	writeAppInfo(t, appDir, map[string]any{
		"id": "com.example.mixed", "version": "1.0", "type": "native",
		"main": "foo", "title": "Mixed",
	})
	writeELF(t, filepath.Join(appDir, "foo"), emARM, 64)

	svcDir := filepath.Join(dir, "svc")
	require.NoError(t, os.Mkdir(svcDir, 0755))
	svcInfo := map[string]any{
		"id": "com.example.mixed.service", "engine": "native", "executable": "svc",
	}
	data, err := json.Marshal(svcInfo)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(svcDir, "services.json"), data, 0644))
	writeELF(t, filepath.Join(svcDir, "svc"), em386, 64)

	outDir := t.TempDir()
	_, err = packager.Build(packager.BuildOptions{
		AppDir:   appDir,
		Services: []packager.ComponentSource{{Dir: svcDir}},
		OutDir:   outDir,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Mixed architecture")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBuild_NonNativeApp_ArchAll(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "app")
	require.NoError(t, os.Mkdir(appDir, 0755))
	writeAppInfo(t, appDir, map[string]any{
		"id": "com.example.web", "version": "2.3", "type": "web",
		"main": "index.html", "title": "Web",
	})
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "index.html"), []byte("<html></html>"), 0644))

	outDir := t.TempDir()
	path, err := packager.Build(packager.BuildOptions{AppDir: appDir, OutDir: outDir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(outDir, "com.example.web_2.3_all.ipk"), path)
}

func TestBuild_NoDirectoryWrittenTwice(t *testing.T) {
	dir := t.TempDir()
	appDir := filepath.Join(dir, "app")
	require.NoError(t, os.Mkdir(appDir, 0755))
	writeAppInfo(t, appDir, map[string]any{
		"id": "com.example.dirs", "version": "1.0", "type": "web",
		"main": "index.html", "title": "Dirs",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(appDir, "assets", "img"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "assets", "img", "a.png"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "assets", "b.css"), []byte("b"), 0644))

	outDir := t.TempDir()
	path, err := packager.Build(packager.BuildOptions{AppDir: appDir, OutDir: outDir})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	members := parseAr(t, raw)

	gz, err := gzip.NewReader(bytesReader(members[2].Data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	seen := map[string]int{}
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		seen[h.Name]++
	}
	for name, count := range seen {
		require.Equalf(t, 1, count, "entry %q written %d times", name, count)
	}
}
