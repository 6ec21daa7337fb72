package devicestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/ares-core/device"
	"github.com/webosbrew/ares-core/devicestore"
)

func openStore(t *testing.T) (*devicestore.Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.json")
	store, err := devicestore.Open(path)
	require.NoError(t, err)
	return store, path
}

func TestOpen_MissingFile(t *testing.T) {
	store, _ := openStore(t)
	require.Empty(t, store.List())
}

func TestAdd_List_Order(t *testing.T) {
	store, _ := openStore(t)
	require.NoError(t, store.Add(device.Device{Name: "b", Host: "1.2.3.4", Username: "root"}))
	require.NoError(t, store.Add(device.Device{Name: "a", Host: "1.2.3.5", Username: "root"}))

	list := store.List()
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Name)
	require.Equal(t, "b", list[1].Name)
}

func TestAdd_DuplicateName(t *testing.T) {
	store, _ := openStore(t)
	d := device.Device{Name: "tv", Host: "1.2.3.4", Username: "root"}
	require.NoError(t, store.Add(d))
	require.Error(t, store.Add(d))
}

func TestAdd_InvalidDevice(t *testing.T) {
	store, _ := openStore(t)
	require.Error(t, store.Add(device.Device{Name: "tv"}))
}

func TestAdd_SecondDefaultClearsFirst(t *testing.T) {
	store, _ := openStore(t)
	require.NoError(t, store.Add(device.Device{Name: "tv", Host: "1.2.3.4", Username: "root", Default: true}))
	require.NoError(t, store.Add(device.Device{Name: "emulator", Host: "127.0.0.1", Username: "root", Default: true}))

	def, err := store.Default()
	require.NoError(t, err)
	require.Equal(t, "emulator", def.Name)
}

func TestRemove(t *testing.T) {
	store, _ := openStore(t)
	require.NoError(t, store.Add(device.Device{Name: "tv", Host: "1.2.3.4", Username: "root"}))
	require.NoError(t, store.Remove("tv"))
	require.Empty(t, store.List())
}

func TestRemove_NotFound(t *testing.T) {
	store, _ := openStore(t)
	require.Error(t, store.Remove("missing"))
}

func TestSetDefault(t *testing.T) {
	store, _ := openStore(t)
	require.NoError(t, store.Add(device.Device{Name: "tv", Host: "1.2.3.4", Username: "root"}))
	require.NoError(t, store.Add(device.Device{Name: "emulator", Host: "127.0.0.1", Username: "root"}))

	require.NoError(t, store.SetDefault("emulator"))
	def, err := store.Default()
	require.NoError(t, err)
	require.Equal(t, "emulator", def.Name)

	require.NoError(t, store.SetDefault("tv"))
	def, err = store.Default()
	require.NoError(t, err)
	require.Equal(t, "tv", def.Name)
}

func TestSetDefault_NotFound(t *testing.T) {
	store, _ := openStore(t)
	require.Error(t, store.SetDefault("missing"))
}

func TestGet(t *testing.T) {
	store, _ := openStore(t)
	require.NoError(t, store.Add(device.Device{Name: "tv", Host: "1.2.3.4", Username: "root"}))

	d, err := store.Get("tv")
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", d.Host)

	_, err = store.Get("missing")
	require.Error(t, err)
}

func TestPersistence_SurvivesReopen(t *testing.T) {
	store, path := openStore(t)
	require.NoError(t, store.Add(device.Device{Name: "tv", Host: "1.2.3.4", Username: "root"}))

	reopened, err := devicestore.Open(path)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)
	require.Equal(t, "tv", reopened.List()[0].Name)

	// No stray temp files left behind by the atomic write.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp")
	}
}

func TestEmptyFile_TreatedAsEmptyRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store, err := devicestore.Open(path)
	require.NoError(t, err)
	require.Empty(t, store.List())
}
