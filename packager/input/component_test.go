package input_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/ares-core/packager/input"
)

func TestDirSize_SumsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("12345"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("ab"), 0644))

	size, err := input.DirSize(dir, nil)
	require.NoError(t, err)
	require.EqualValues(t, 7, size)
}

func TestDirSize_ExcludesSubtree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("12345"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("ab"), 0644))

	exclude, err := input.CompileExcludes([]string{"*sub"})
	require.NoError(t, err)

	size, err := input.DirSize(dir, exclude)
	require.NoError(t, err)
	require.EqualValues(t, 5, size)
}

func TestComponentInfo_Validate_NonNative(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html/>"), 0644))

	c := input.ComponentInfo[input.AppInfo]{
		Path: dir,
		Info: input.AppInfo{ID: "com.example.web", Version: "1.0", Type: "web", Main: "index.html"},
	}
	v, err := c.Validate()
	require.NoError(t, err)
	require.Nil(t, v.Arch)
	require.EqualValues(t, 7, v.Size)
}
