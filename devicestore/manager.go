// Package devicestore implements the on-disk device registry: a JSON
// file of device.Device records, written atomically (temp file +
// rename) on every mutation, since the registry and the SSH key store
// are shared across processes.
//
// Grounded on original_source/common/device/src/manager.rs, adapted to
// the "replace state file atomically" idiom used for persistent local
// state elsewhere (lib/services/local/presence.go does the same
// temp-then-rename dance for its backend records).
package devicestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/device"
)

// Manager owns a registry file and keeps an in-memory mirror of its
// contents, synchronized on every mutating call.
type Manager struct {
	mu   sync.Mutex
	path string

	devices []device.Device
}

// Open loads the registry at path. A missing or empty file yields an
// empty registry; the file itself is first written by the first
// mutating call.
func Open(path string) (*Manager, error) {
	m := &Manager{path: path}
	if err := m.load(); err != nil {
		return nil, trace.Wrap(err)
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.devices = nil
		return nil
	}
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	if len(data) == 0 {
		m.devices = nil
		return nil
	}
	var devices []device.Device
	if err := json.Unmarshal(data, &devices); err != nil {
		return trace.Wrap(err, "parsing device registry %q", m.path)
	}
	m.devices = devices
	return nil
}

// save serializes the in-memory device list and replaces the registry
// file atomically: write to a sibling temp file, fsync, then rename
// over the original.
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.devices, "", "  ")
	if err != nil {
		return trace.Wrap(err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return trace.ConvertSystemError(err)
	}

	tmp, err := os.CreateTemp(dir, ".devices-*.json.tmp")
	if err != nil {
		return trace.ConvertSystemError(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return trace.ConvertSystemError(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return trace.ConvertSystemError(err)
	}
	if err := tmp.Close(); err != nil {
		return trace.ConvertSystemError(err)
	}

	if err := os.Rename(tmpName, m.path); err != nil {
		return trace.ConvertSystemError(err)
	}
	return nil
}

// List returns a copy of the registry, ordered the way the CLI
// presents devices (by the Order field, then by name).
func (m *Manager) List() []device.Device {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]device.Device, len(m.devices))
	copy(out, m.devices)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Get looks up a device by exact name.
func (m *Manager) Get(name string) (*device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.devices {
		if m.devices[i].Name == name {
			d := m.devices[i]
			return &d, nil
		}
	}
	return nil, trace.NotFound("device %q not found", name)
}

// Default returns the device with Default=true, if any.
func (m *Manager) Default() (*device.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.devices {
		if m.devices[i].Default {
			d := m.devices[i]
			return &d, nil
		}
	}
	return nil, trace.NotFound("no default device is set")
}

// Add inserts a new device, enforcing name uniqueness and the
// at-most-one-default invariant.
func (m *Manager) Add(d device.Device) error {
	if err := d.Validate(); err != nil {
		return trace.Wrap(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.devices {
		if existing.Name == d.Name {
			return trace.AlreadyExists("device %q already exists", d.Name)
		}
	}

	if d.Default {
		m.clearDefaultLocked()
	}

	m.devices = append(m.devices, d)
	return trace.Wrap(m.save())
}

// Remove deletes a device by name.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.devices {
		if m.devices[i].Name == name {
			m.devices = append(m.devices[:i], m.devices[i+1:]...)
			return trace.Wrap(m.save())
		}
	}
	return trace.NotFound("device %q not found", name)
}

// SetDefault marks name as the sole default device, clearing the flag
// on every other device.
func (m *Manager) SetDefault(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i := range m.devices {
		if m.devices[i].Name == name {
			found = true
			break
		}
	}
	if !found {
		return trace.NotFound("device %q not found", name)
	}

	m.clearDefaultLocked()
	for i := range m.devices {
		if m.devices[i].Name == name {
			m.devices[i].Default = true
		}
	}
	return trace.Wrap(m.save())
}

func (m *Manager) clearDefaultLocked() {
	for i := range m.devices {
		m.devices[i].Default = false
	}
}
