// Package detect sniffs the character encoding of text content.
package detect

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// Labels returned by Sniffer that chardet does not produce itself.
const (
	LabelUTF8    = "utf-8"
	LabelASCII   = "us-ascii"
	LabelBinary  = "binary"
	LabelUnknown = "unknown-8bit"
)

// Detector reports the charset label of a content sample.
type Detector interface {
	Detect(sample []byte) (string, error)
}

// KeyedDetector can reuse an earlier result for the same content key.
type KeyedDetector interface {
	Detector
	DetectKey(key string, sample []byte) (string, error)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(sample []byte) (string, error)

// Detect calls f(sample).
func (f DetectorFunc) Detect(sample []byte) (string, error) {
	return f(sample)
}

// Sniffer classifies content the way a MIME-encoding probe does: the declared
// charset of the content is ignored and only the bytes are inspected.
//
// The order of checks is:
// 1. Empty content is UTF-8
// 2. Valid UTF-8 is "us-ascii" when 7-bit only, "utf-8" otherwise
// 3. Content with NUL bytes is "binary"
// 4. Everything else gets chardet's best non-UTF-8 guess, or "unknown-8bit"
type Sniffer struct {
	text *chardet.Detector
}

// NewSniffer creates a Sniffer backed by a chardet text detector.
func NewSniffer() *Sniffer {
	return &Sniffer{text: chardet.NewTextDetector()}
}

// Detect implements Detector. It never returns an error; content chardet cannot
// place is labelled "unknown-8bit".
func (s *Sniffer) Detect(sample []byte) (string, error) {
	if len(sample) == 0 {
		return LabelUTF8, nil
	}
	if utf8.Valid(sample) {
		if isASCII(sample) {
			return LabelASCII, nil
		}
		return LabelUTF8, nil
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return LabelBinary, nil
	}

	// The sample is known not to be UTF-8; chardet's UTF-8 recognizer still
	// scores mostly-valid input, so its answer is skipped.
	results, err := s.text.DetectAll(sample)
	if err != nil {
		return LabelUnknown, nil
	}
	for _, result := range results {
		if label := strings.ToLower(result.Charset); label != LabelUTF8 {
			return label, nil
		}
	}
	return LabelUnknown, nil
}

// TrimPartialRune drops a trailing UTF-8 sequence that was cut off when the
// sample was taken from the middle of a longer stream.
func TrimPartialRune(sample []byte) []byte {
	// Walk back to the start byte of the last rune; at most UTFMax-1 continuation bytes.
	for i := len(sample) - 1; i >= 0 && i >= len(sample)-utf8.UTFMax; i-- {
		if utf8.RuneStart(sample[i]) {
			if !utf8.FullRune(sample[i:]) {
				return sample[:i]
			}
			return sample
		}
	}
	return sample
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
