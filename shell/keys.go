package shell

// KeyCode identifies one logical key event from the local terminal,
// independent of however the host platform's input library names it.
type KeyCode int

const (
	KeyChar KeyCode = iota
	KeyBackspace
	KeyEnter
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyTab
	KeyBackTab
	KeyDelete
	KeyInsert
	KeyFunction
	KeyNull
	KeyEscape
)

// Key is one local key event to translate and forward to the remote
// PTY's stdin.
type Key struct {
	Code KeyCode
	// Char is the literal rune for KeyChar, or the letter for a
	// Ctrl/Alt chord.
	Char rune
	// Function is the F-key number for KeyFunction (F1 = 1).
	Function int
	Ctrl     bool
	Alt      bool
}

// EncodeKey translates a local key event into the byte sequence webOS's
// remote shell expects on stdin, matching
// original_source/ares-shell/src/pty.rs's send_key table exactly.
func EncodeKey(k Key) []byte {
	switch k.Code {
	case KeyBackspace:
		return []byte{0x08, 0x20, 0x08}
	case KeyEnter:
		return []byte{0x0d}
	case KeyLeft:
		return []byte{0x1b, 0x5b, 0x44}
	case KeyRight:
		return []byte{0x1b, 0x5b, 0x43}
	case KeyUp:
		return []byte{0x1b, 0x5b, 0x41}
	case KeyDown:
		return []byte{0x1b, 0x5b, 0x42}
	case KeyHome:
		return []byte{0x1b, 0x5b, 0x48}
	case KeyEnd:
		return []byte{0x1b, 0x5b, 0x46}
	case KeyPageUp:
		return []byte{0x1b, 0x5b, 0x35, 0x7e}
	case KeyPageDown:
		return []byte{0x1b, 0x5b, 0x36, 0x7e}
	case KeyTab:
		return []byte{0x09}
	case KeyBackTab:
		return []byte{0x1b, 0x5b, 0x5a}
	case KeyDelete:
		return []byte{0x1b, 0x5b, 0x33, 0x7e}
	case KeyInsert:
		return []byte{0x1b, 0x5b, 0x32, 0x7e}
	case KeyFunction:
		return []byte{0x1b, 0x5b, 0x4f, byte(0x30 + k.Function)}
	case KeyNull:
		return []byte{0x00}
	case KeyEscape:
		return []byte{0x1b}
	case KeyChar:
		switch {
		case k.Ctrl:
			return []byte{byte(k.Char) - 0x60}
		case k.Alt:
			return []byte{0x1b, byte(k.Char)}
		default:
			return []byte(string(k.Char))
		}
	default:
		return nil
	}
}
