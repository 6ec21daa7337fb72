// Package arwriter writes a minimal BSD ar archive: the "!<arch>\n"
// magic followed by a fixed-width 60-byte header per member. It only
// implements what the IPK container needs — sequential whole-member
// writes, no per-member streaming, no GNU long-name extension.
package arwriter

import (
	"fmt"
	"io"
)

const magic = "!<arch>\n"

// Writer emits members onto an underlying io.Writer.
type Writer struct {
	w          io.Writer
	wroteMagic bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Header describes one archive member. All fields are rendered as
// decimal ASCII except Mode, which is octal per the ar format.
type Header struct {
	Name  string
	Mtime int64
	Uid   int
	Gid   int
	Mode  int64
	Size  int64
}

// AddMember writes h's 60-byte header followed by data, padding with
// a trailing newline when data has odd length (the ar format requires
// every member to start on a 2-byte boundary).
func (w *Writer) AddMember(h Header, data []byte) error {
	if !w.wroteMagic {
		if _, err := io.WriteString(w.w, magic); err != nil {
			return err
		}
		w.wroteMagic = true
	}

	header := fmt.Sprintf("%-16s%-12d%-6d%-6d%-8o%-10d`\n",
		h.Name, h.Mtime, h.Uid, h.Gid, h.Mode, h.Size)
	if len(header) != 60 {
		return fmt.Errorf("arwriter: member name %q produces an oversized header", h.Name)
	}
	if _, err := io.WriteString(w.w, header); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	if len(data)%2 != 0 {
		if _, err := io.WriteString(w.w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
