package arwriter_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webosbrew/ares-core/packager/arwriter"
)

func TestAddMember_MagicAndLayout(t *testing.T) {
	var buf bytes.Buffer
	w := arwriter.NewWriter(&buf)

	require.NoError(t, w.AddMember(arwriter.Header{
		Name: "debian-binary", Mtime: 1700000000, Mode: 0100644, Size: 4,
	}, []byte("2.0\n")))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "!<arch>\n"))

	rest := out[len("!<arch>\n"):]
	require.GreaterOrEqual(t, len(rest), 60)
	header := rest[:60]
	require.Equal(t, "debian-binary   ", header[0:16])
	require.Equal(t, "`\n", header[58:60])
	require.Equal(t, "2.0\n", rest[60:64])
}

func TestAddMember_OddSizePadded(t *testing.T) {
	var buf bytes.Buffer
	w := arwriter.NewWriter(&buf)
	require.NoError(t, w.AddMember(arwriter.Header{Name: "x", Size: 3}, []byte("abc")))

	out := buf.Bytes()
	body := out[len("!<arch>\n")+60:]
	require.Equal(t, []byte("abc\n"), body)
}

func TestAddMember_MultipleMembersSequential(t *testing.T) {
	var buf bytes.Buffer
	w := arwriter.NewWriter(&buf)
	require.NoError(t, w.AddMember(arwriter.Header{Name: "a", Size: 1}, []byte("1")))
	require.NoError(t, w.AddMember(arwriter.Header{Name: "b", Size: 1}, []byte("2")))

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "!<arch>\n"))
}
