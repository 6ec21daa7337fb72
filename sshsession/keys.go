package sshsession

import (
	"os"
	"path/filepath"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/ssh"

	"github.com/webosbrew/ares-core/device"
)

// loadPrivateKeyBytes resolves a device.PrivateKeyRef to raw PEM
// bytes, consulting keyStoreDir for key-store-relative names.
func loadPrivateKeyBytes(ref *device.PrivateKeyRef, keyStoreDir string) ([]byte, error) {
	switch ref.Kind {
	case device.KeyRaw:
		return []byte(ref.Value), nil
	case device.KeyPath:
		data, err := os.ReadFile(ref.Value)
		if err != nil {
			return nil, trace.ConvertSystemError(err)
		}
		return data, nil
	case device.KeyStoreName:
		data, err := os.ReadFile(filepath.Join(keyStoreDir, ref.Value))
		if err != nil {
			return nil, trace.ConvertSystemError(err)
		}
		return data, nil
	default:
		return nil, trace.BadParameter("unknown private key kind %v", ref.Kind)
	}
}

// privateKeySigner parses a device's private key (optionally
// passphrase-protected; a blank passphrase is treated the same as no
// passphrase, per spec) into an ssh.Signer.
func privateKeySigner(ref *device.PrivateKeyRef, passphrase, keyStoreDir string) (ssh.Signer, error) {
	data, err := loadPrivateKeyBytes(ref, keyStoreDir)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	if passphrase == "" {
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return signer, nil
	}

	signer, err := ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return signer, nil
}
