package ui

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	noColorMu sync.RWMutex
	noColor   bool
)

// SetNoColor disables colored output for every renderer in the package.
func SetNoColor(v bool) {
	noColorMu.Lock()
	defer noColorMu.Unlock()
	noColor = v
	if v {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor reports whether color is disabled.
func IsNoColor() bool {
	noColorMu.RLock()
	defer noColorMu.RUnlock()
	return noColor
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// UnicodeTerminal reports whether w can render Unicode glyphs. Piped
// output, TERM=dumb and legacy Windows consoles get ASCII.
func UnicodeTerminal(w io.Writer) bool {
	if os.Getenv("TERM") == "dumb" || !IsTerminal(w) {
		return false
	}
	if runtime.GOOS == "windows" {
		// Windows Terminal sets WT_SESSION; conhost does not.
		return os.Getenv("WT_SESSION") != ""
	}
	return true
}

// Icon returns uni when w renders Unicode, ascii otherwise.
func Icon(w io.Writer, uni, ascii string) string {
	if UnicodeTerminal(w) {
		return uni
	}
	return ascii
}

// Sanitize drops glyphs that legacy consoles cannot render, keeping ASCII
// and Latin letters. Used for text that came from remote tools.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
		case r < 0x80:
			if r >= 0x20 || r == '\t' {
				b.WriteByte(s[i])
			}
		case r <= 0xFF || unicode.Is(unicode.Latin, r):
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}
