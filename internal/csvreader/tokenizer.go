package csvreader

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Tokenizer splits delimited text into logical records of raw fields.
// Field strings carry the source bytes untouched; Next returns io.EOF once the
// input is exhausted.
type Tokenizer interface {
	Next() ([]string, error)
}

// TokenizerFactory builds a Tokenizer over the decoded-at-open input stream.
type TokenizerFactory func(r io.Reader) Tokenizer

// lineTokenizer frames one logical record at a time (a quoted field may span
// physical lines) and splits it into fields. A blank line is reported as a
// single empty field.
type lineTokenizer struct {
	br  *bufio.Reader
	buf []byte

	inQuote      bool
	atFieldStart bool
	justClosed   bool
}

// NewTokenizer returns the default comma-separated tokenizer.
func NewTokenizer(r io.Reader) Tokenizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &lineTokenizer{br: br}
}

func (t *lineTokenizer) Next() ([]string, error) {
	line, err := t.readRecord()
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return []string{""}, nil
	}
	return splitFields(line), nil
}

// splitFields splits one logical record on commas. A field that starts with a
// quote runs to the matching quote, with "" standing for a literal quote, and
// keeps its line breaks byte for byte. Text between a closing quote and the
// next comma is appended as is; quotes inside unquoted fields are data.
func splitFields(line []byte) []string {
	var (
		fields []string
		field  []byte
	)
	for i := 0; ; {
		field = field[:0]
		if i < len(line) && line[i] == '"' {
			for i++; i < len(line); i++ {
				if line[i] != '"' {
					field = append(field, line[i])
					continue
				}
				if i+1 < len(line) && line[i+1] == '"' {
					field = append(field, '"')
					i++
					continue
				}
				i++
				break
			}
		}
		for ; i < len(line) && line[i] != ','; i++ {
			field = append(field, line[i])
		}
		fields = append(fields, string(field))
		if i >= len(line) {
			return fields
		}
		i++
	}
}

// readRecord returns the bytes of the next logical record without its line terminator.
func (t *lineTokenizer) readRecord() ([]byte, error) {
	t.buf = t.buf[:0]
	t.inQuote = false
	t.atFieldStart = true
	t.justClosed = false

	for {
		chunk, err := t.br.ReadSlice('\n')
		t.buf = append(t.buf, chunk...)
		t.scan(chunk)

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(t.buf) == 0 {
				return nil, io.EOF
			}
			return trimEOL(t.buf), nil
		case err != nil:
			return nil, err
		}

		if !t.inQuote {
			return trimEOL(t.buf), nil
		}
	}
}

// scan tracks whether the framed bytes end inside a quoted field. A quote only
// opens a field when it is the first byte of the field, matching splitFields.
func (t *lineTokenizer) scan(chunk []byte) {
	for _, c := range chunk {
		if t.inQuote {
			if c == '"' {
				t.inQuote = false
				t.justClosed = true
			}
			continue
		}

		switch {
		case c == '"' && (t.atFieldStart || t.justClosed):
			// "" inside a quoted field closes and immediately reopens it.
			t.inQuote = true
		case c == ',' || c == '\n':
			t.atFieldStart = true
			t.justClosed = false
			continue
		}
		t.atFieldStart = false
		t.justClosed = false
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
