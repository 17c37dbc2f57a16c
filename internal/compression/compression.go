// Package compression transparently unwraps compressed input files so their
// text content can be sniffed and tokenized.
package compression

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Format identifies the compression of an input stream.
type Format string

const (
	None   Format = ""
	Gzip   Format = "gzip"
	Zstd   Format = "zstd"
	Brotli Format = "br"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Detect picks the format of br. gzip and zstd are recognized by their magic
// bytes; brotli has none, so it is only recognized by a ".br" file name.
func Detect(br *bufio.Reader, name string) (Format, error) {
	head, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return None, err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return Gzip, nil
	case bytes.HasPrefix(head, zstdMagic):
		return Zstd, nil
	case strings.EqualFold(filepath.Ext(name), ".br"):
		return Brotli, nil
	default:
		return None, nil
	}
}

// Wrap returns a reader over the decompressed content of br together with a
// close function for the decompressor. Plain input is returned as-is with a
// no-op close.
func Wrap(br *bufio.Reader, name string) (io.Reader, func() error, error) {
	format, err := Detect(br, name)
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error {
			zr.Close()
			return nil
		}, nil
	case Brotli:
		return brotli.NewReader(br), noop, nil
	default:
		return br, noop, nil
	}
}

func noop() error { return nil }
