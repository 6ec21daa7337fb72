package transport

import "strings"

// ShellQuote wraps s in single quotes, escaping any embedded single
// quote as '\'' so the result is safe to splice into a remote shell
// command line. Grounded on lib/sshutils/scp's quoting idiom for
// remote paths, generalized here to also cover luna-send URIs/JSON
// payloads (package luna reuses this helper rather than duplicating
// it).
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
