// Package device defines the Device value type: the connection
// coordinates and credential locator for a single webOS target, plus
// the small value types layered on top of it (file-transfer
// preference, private-key locator).
package device

import (
	"strings"

	"github.com/gravitational/trace"
)

// FileTransferMode selects how Transport moves bytes to and from a
// Device.
type FileTransferMode string

const (
	// FilesAuto lets Transport try SFTP first and fall back to
	// exec-over-cat on failure. This is the zero value so a Device
	// read from an older registry entry without a "files" field
	// behaves exactly as it always did.
	FilesAuto FileTransferMode = ""
	// FilesStream forces the exec-over-cat path; SFTP is never
	// attempted.
	FilesStream FileTransferMode = "stream"
	// FilesSFTP is accepted for completeness but behaves like
	// FilesAuto: SFTP is still attempted first, exec is still the
	// fallback on error.
	FilesSFTP FileTransferMode = "sftp"
)

// PrivateKeyKind discriminates the three ways a Device may locate its
// private key, matching original_source/common/device/src/privkey.rs.
type PrivateKeyKind int

const (
	// KeyStoreName names a key file relative to the local SSH key
	// store directory.
	KeyStoreName PrivateKeyKind = iota
	// KeyPath is an absolute filesystem path to a key file.
	KeyPath
	// KeyRaw carries the PEM-encoded key bytes directly.
	KeyRaw
)

// PrivateKeyRef locates a private key for a Device. Exactly one
// Kind/value pair is meaningful at a time.
type PrivateKeyRef struct {
	Kind PrivateKeyKind
	// Value is the key store name, the absolute path, or the raw PEM
	// bytes (as a string), depending on Kind.
	Value string
}

// NewPrivateKeyRef classifies a string the way the registry's JSON
// historically stored it: raw PEM content is detected by its header,
// an absolute path by a leading path separator, and everything else is
// treated as a key-store-relative name.
func NewPrivateKeyRef(s string) PrivateKeyRef {
	switch {
	case strings.Contains(s, "-----BEGIN"):
		return PrivateKeyRef{Kind: KeyRaw, Value: s}
	case strings.HasPrefix(s, "/") || strings.HasPrefix(s, `\`) || hasWindowsDriveLetter(s):
		return PrivateKeyRef{Kind: KeyPath, Value: s}
	default:
		return PrivateKeyRef{Kind: KeyStoreName, Value: s}
	}
}

func hasWindowsDriveLetter(s string) bool {
	return len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/')
}

// Device identifies a reachable webOS target.
type Device struct {
	Name        string         `json:"name"`
	Host        string         `json:"host"`
	Port        int            `json:"port"`
	Username    string         `json:"username"`
	Password    *string        `json:"password,omitempty"`
	PrivateKey  *PrivateKeyRef `json:"privateKey,omitempty"`
	Passphrase  *string        `json:"passphrase,omitempty"`
	Files       FileTransferMode `json:"files,omitempty"`
	Default     bool           `json:"default,omitempty"`
	Profile     string         `json:"profile,omitempty"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order,omitempty"`
}

// EffectivePassphrase returns the device's passphrase, treating a
// blank passphrase as absent per spec.
func (d *Device) EffectivePassphrase() string {
	if d.Passphrase == nil {
		return ""
	}
	return *d.Passphrase
}

// Validate checks the invariants a Device must hold before it can be
// used to open a Session: a non-empty name/host/username, and a
// non-negative port.
func (d *Device) Validate() error {
	if d.Name == "" {
		return trace.BadParameter("device name is required")
	}
	if d.Host == "" {
		return trace.BadParameter("device %q: host is required", d.Name)
	}
	if d.Username == "" {
		return trace.BadParameter("device %q: username is required", d.Name)
	}
	if d.Port < 0 {
		return trace.BadParameter("device %q: invalid port %d", d.Name, d.Port)
	}
	return nil
}

// PortOrDefault returns the configured port, defaulting to the
// standard SSH port when unset.
func (d *Device) PortOrDefault() int {
	if d.Port == 0 {
		return 22
	}
	return d.Port
}
