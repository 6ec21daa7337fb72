package sshsession

// Algorithm whitelists negotiated with webOS targets, in preference
// order. Older webOS releases only speak SHA-1/MD5-era primitives, so
// the lists stay legacy-inclusive even though the primitives at the
// tail are weak by modern standards; a caller that wants a stricter
// profile can build its own *ssh.ClientConfig from device.Device
// directly rather than calling Open.
//
// Grounded on lib/client/client.go's practice of populating
// ssh.ClientConfig / ssh.Config fields directly rather than hiding them
// behind a helper that only offers teleport's own FIPS-restricted
// profile.
var (
	// KeyExchanges is the ordered KEX algorithm whitelist.
	KeyExchanges = []string{
		"curve25519-sha256",
		"curve25519-sha256@libssh.org",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
		"diffie-hellman-group18-sha512",
		"diffie-hellman-group16-sha512",
		"diffie-hellman-group-exchange-sha256",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group1-sha1",
		"diffie-hellman-group14-sha1",
	}

	// MACs is the ordered MAC whitelist, applied to both directions.
	MACs = []string{
		"hmac-sha2-256-etm@openssh.com",
		"hmac-sha2-512-etm@openssh.com",
		"hmac-sha2-256",
		"hmac-sha2-512",
		"hmac-sha1-96",
		"hmac-sha1",
		"hmac-md5",
	}

	// HostKeyAlgorithms is the ordered host-key algorithm whitelist.
	// Open applies it to host-key negotiation only; it does not
	// restrict the signature algorithms used for public-key auth.
	HostKeyAlgorithms = []string{
		"ssh-ed25519",
		"ecdsa-sha2-nistp521",
		"ecdsa-sha2-nistp384",
		"ecdsa-sha2-nistp256",
		"rsa-sha2-512",
		"rsa-sha2-256",
		"ssh-rsa",
	}
)
