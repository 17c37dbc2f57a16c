package csvreader

import (
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/Belphemur/csvreader/internal/detect"
)

// Encoding is the source encoding of an opened file.
type Encoding int

const (
	// EncodingUnknown is any label outside the supported set.
	EncodingUnknown Encoding = iota
	// UTF8 files are returned unchanged. Plain ASCII is treated as UTF-8.
	UTF8
	// Windows1251 is the legacy single-byte Cyrillic code page.
	Windows1251
)

// String returns the canonical label of the encoding.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case Windows1251:
		return "windows-1251"
	default:
		return "unknown"
	}
}

// DefaultAllowedEncodings is used when no WithAllowedEncodings option is given.
var DefaultAllowedEncodings = []Encoding{UTF8, Windows1251}

// ASCII has no entry of its own in the WHATWG label table (it resolves to
// windows-1252 there), so the UTF-8 compatible labels are matched first.
var utf8Labels = map[string]struct{}{
	"utf-8":    {},
	"utf8":     {},
	"us-ascii": {},
	"ascii":    {},
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// classify maps a detected charset label onto the closed Encoding set.
// Aliases win over the built-in resolution. With legacyFallback any other
// label naming 8-bit text (iso-8859-1, iso-8859-8-i, koi8-r, unknown-8bit)
// resolves to Windows1251, the only legacy code page read.
func classify(label string, aliases map[string]Encoding, legacyFallback bool) Encoding {
	l := normalizeLabel(label)
	if l == "" {
		return EncodingUnknown
	}
	if enc, ok := aliases[l]; ok {
		return enc
	}
	if _, ok := utf8Labels[l]; ok {
		return UTF8
	}

	_, name := charset.Lookup(l)
	switch name {
	case "utf-8":
		return UTF8
	case "windows-1251":
		return Windows1251
	}

	if legacyFallback && isEightBitText(l, name) {
		return Windows1251
	}
	return EncodingUnknown
}

// isEightBitText excludes content that is not single-byte text at all.
func isEightBitText(label, resolved string) bool {
	if label == detect.LabelBinary {
		return false
	}
	return !strings.HasPrefix(label, "utf-") && !strings.HasPrefix(resolved, "utf-")
}

// ParseEncoding resolves a configured encoding name such as "utf8" or "cp1251".
func ParseEncoding(name string) (Encoding, error) {
	enc := classify(name, nil, false)
	if enc == EncodingUnknown {
		return EncodingUnknown, fmt.Errorf("unsupported encoding name %q", name)
	}
	return enc, nil
}
