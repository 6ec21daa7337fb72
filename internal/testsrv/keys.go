package testsrv

import (
	"crypto/ed25519"
	"crypto/rand"

	"golang.org/x/crypto/ssh"
)

// GenerateSigner creates an ephemeral ed25519 host/client key for
// tests. Key generation is explicitly out of scope for the shipped
// CLI (spec.md Non-goals), but an in-memory test fixture needs one to
// exist somewhere, and nothing in this module's production code path
// calls it.
func GenerateSigner() (ssh.Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(priv)
}
