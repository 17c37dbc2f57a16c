package csvreader

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/Belphemur/csvreader/internal/apperrors"
)

// ConversionPolicy decides what a record read does with bytes the source code page leaves undefined.
type ConversionPolicy int

const (
	// PolicyStrict fails the whole record with an InvalidEncodingBytesError.
	PolicyStrict ConversionPolicy = iota
	// PolicyReplace keeps the record and substitutes U+FFFD for every undefined byte.
	PolicyReplace
)

// String returns the configuration name of the policy.
func (p ConversionPolicy) String() string {
	if p == PolicyReplace {
		return "replace"
	}
	return "strict"
}

// fieldConverter turns raw field bytes into UTF-8 for one source encoding.
type fieldConverter struct {
	enc     Encoding
	cmap    *charmap.Charmap
	decoder *encoding.Decoder
}

func newFieldConverter(enc Encoding) *fieldConverter {
	c := &fieldConverter{enc: enc}
	if enc == Windows1251 {
		c.cmap = charmap.Windows1251
		c.decoder = charmap.Windows1251.NewDecoder()
	}
	return c
}

// convert returns the UTF-8 text of field. The text is always usable; a non-nil
// error reports the first byte that decoded to the replacement character.
func (c *fieldConverter) convert(field string) (string, *apperrors.InvalidEncodingBytesError) {
	if field == "" || c.cmap == nil {
		return field, nil
	}
	if isASCII(field) {
		return field, nil
	}

	var invalid *apperrors.InvalidEncodingBytesError
	for i := 0; i < len(field); i++ {
		b := field[i]
		if b < utf8.RuneSelf {
			continue
		}
		if c.cmap.DecodeByte(b) == utf8.RuneError {
			invalid = &apperrors.InvalidEncodingBytesError{
				Encoding: c.enc.String(),
				Offset:   i,
				Byte:     b,
			}
			break
		}
	}

	out, err := c.decoder.String(field)
	if err != nil {
		// Single-byte decoding cannot fail; keep the raw bytes if it ever does.
		return field, &apperrors.InvalidEncodingBytesError{Encoding: c.enc.String()}
	}
	return out, invalid
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// ParseConversionPolicy resolves a configured policy name. The empty string means PolicyStrict.
func ParseConversionPolicy(name string) (ConversionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "strict":
		return PolicyStrict, nil
	case "replace":
		return PolicyReplace, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown conversion policy %q", name)
	}
}
