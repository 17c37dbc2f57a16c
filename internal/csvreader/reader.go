// Package csvreader reads delimited text files record by record and hands every
// field back as UTF-8, whether the file is stored as UTF-8 or as Windows-1251.
//
// A Reader is used by one goroutine at a time:
//
//	r := csvreader.New(csvreader.WithIgnoreBlankRecords(true))
//	if err := r.Open("export.csv"); err != nil {
//		// r.LoadError() holds the same *apperrors.LoadError
//	}
//	defer r.Close()
//	for record, err := range r.All() {
//		...
//	}
package csvreader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Belphemur/csvreader/internal/apperrors"
	"github.com/Belphemur/csvreader/internal/compression"
	"github.com/Belphemur/csvreader/internal/detect"
	"github.com/Belphemur/csvreader/internal/metrics"
)

// ErrNotOpen is returned by NextRow when no file is open.
var ErrNotOpen = errors.New("csvreader: reader is not open")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader is a forward-only record reader over one file.
type Reader struct {
	opts   options
	logger zerolog.Logger

	ignoreBlank bool
	loadErr     *apperrors.LoadError

	// Set by a successful Open, cleared by Close and by the next Open.
	id      string
	path    string
	closers []func() error
	tok     Tokenizer
	conv    *fieldConverter
	enc     Encoding
	label   string
	line    int
	eof     bool
}

// New creates an unopened Reader.
func New(opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Reader{
		opts:        o,
		logger:      o.logger,
		ignoreBlank: o.ignoreBlank,
	}
}

// Open is a shorthand for New(opts...) followed by Open(path). The Reader is
// returned even on failure so LoadError can be inspected.
func Open(path string, opts ...Option) (*Reader, error) {
	r := New(opts...)
	return r, r.Open(path)
}

// Open acquires path and detects its encoding. Any file held from an earlier
// Open is released first. On failure no handle is kept and the returned
// *apperrors.LoadError is also available from LoadError.
func (r *Reader) Open(path string) error {
	if err := r.release(); err != nil {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("Failed to close previous file")
	}
	r.loadErr = nil
	r.path = path
	r.id = uuid.NewString()
	logger := r.logger.With().Str("reader_id", r.id).Str("path", path).Logger()

	f, err := os.Open(path)
	if err != nil {
		return r.fail(logger, apperrors.NewFileNotLoadedError(path, err))
	}
	closers := []func() error{f.Close}

	info, err := f.Stat()
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory", path)
	}
	if err != nil {
		closeAll(closers)
		return r.fail(logger, apperrors.NewFileNotLoadedError(path, err))
	}

	src := bufio.NewReaderSize(f, r.opts.sampleSize)
	if r.opts.decompress {
		dr, closeFn, err := compression.Wrap(src, path)
		if err != nil {
			closeAll(closers)
			return r.fail(logger, apperrors.NewFileNotLoadedError(path, fmt.Errorf("decompress: %w", err)))
		}
		closers = append(closers, closeFn)
		src = bufio.NewReaderSize(dr, r.opts.sampleSize)
	}

	sample, err := src.Peek(r.opts.sampleSize)
	switch {
	case err == nil:
		sample = detect.TrimPartialRune(sample)
	case errors.Is(err, io.EOF):
	default:
		closeAll(closers)
		return r.fail(logger, apperrors.NewFileNotLoadedError(path, err))
	}

	label, err := r.detectLabel(detect.Fingerprint(path, info), sample)
	if err != nil {
		closeAll(closers)
		return r.fail(logger, apperrors.NewUnsupportedEncodingError(path, "", err))
	}
	enc := classify(label, r.opts.aliases, r.opts.fallback)
	if enc == EncodingUnknown || !r.opts.allowed[enc] {
		closeAll(closers)
		return r.fail(logger, apperrors.NewUnsupportedEncodingError(path, label, nil))
	}

	if enc == UTF8 && !r.opts.keepBOM {
		if head, _ := src.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			_, _ = src.Discard(len(utf8BOM))
		}
	}

	r.closers = closers
	r.tok = r.opts.tokenizer(src)
	r.conv = newFieldConverter(enc)
	r.enc = enc
	r.label = label

	metrics.OpensTotal.WithLabelValues("ok").Inc()
	metrics.DetectedEncodingsTotal.WithLabelValues(enc.String()).Inc()
	logger.Debug().
		Str("label", label).
		Str("encoding", enc.String()).
		Msg("File opened")
	return nil
}

func (r *Reader) detectLabel(key string, sample []byte) (string, error) {
	if kd, ok := r.opts.detector.(detect.KeyedDetector); ok {
		return kd.DetectKey(key, sample)
	}
	return r.opts.detector.Detect(sample)
}

func (r *Reader) fail(logger zerolog.Logger, err *apperrors.LoadError) error {
	r.loadErr = err
	metrics.OpensTotal.WithLabelValues(err.Kind.String()).Inc()
	logger.Debug().
		Err(err).
		Str("kind", err.Kind.String()).
		Msg("File not opened")
	return err
}

// LoadError returns the error of the most recent failed Open, or nil if the
// most recent Open succeeded or none was attempted.
func (r *Reader) LoadError() *apperrors.LoadError {
	return r.loadErr
}

// SetIgnoreBlankRecords toggles skipping of records that consist of a single
// empty or "0" field. It affects subsequent NextRow calls only.
func (r *Reader) SetIgnoreBlankRecords(ignore bool) {
	r.ignoreBlank = ignore
}

// NextRow returns the next record with every field converted to UTF-8. It
// returns io.EOF at the end of the file, and keeps returning io.EOF afterwards.
// Under PolicyStrict a record with undefined legacy bytes is consumed and
// reported as *apperrors.InvalidEncodingBytesError; the next call continues
// with the following record.
func (r *Reader) NextRow() ([]string, error) {
	if r.tok == nil {
		return nil, ErrNotOpen
	}
	if r.eof {
		return nil, io.EOF
	}

	for {
		raw, err := r.tok.Next()
		if errors.Is(err, io.EOF) {
			r.eof = true
			r.logger.Debug().Str("reader_id", r.id).Int("records", r.line).Msg("End of file")
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d of %s: %w", r.line+1, r.path, err)
		}
		r.line++

		if r.ignoreBlank && isBlank(raw) {
			metrics.BlankRecordsSkippedTotal.Inc()
			r.logger.Debug().Str("reader_id", r.id).Int("record", r.line).Msg("Skipped blank record")
			continue
		}

		record, err := r.convertRecord(raw)
		if err != nil {
			return nil, err
		}
		metrics.RecordsTotal.Inc()
		return record, nil
	}
}

func (r *Reader) convertRecord(raw []string) ([]string, error) {
	record := make([]string, len(raw))
	for i, field := range raw {
		text, invalid := r.conv.convert(field)
		if invalid != nil {
			invalid.Record = r.line
			invalid.Field = i
			metrics.ConversionFailuresTotal.WithLabelValues(r.enc.String()).Inc()
			r.logger.Warn().
				Str("reader_id", r.id).
				Str("path", r.path).
				Err(invalid).
				Str("policy", r.opts.policy.String()).
				Msg("Undefined byte in field")
			if r.opts.policy == PolicyStrict {
				return nil, invalid
			}
		}
		record[i] = text
	}
	return record, nil
}

// isBlank reports whether a record is a single falsy field: empty or "0".
func isBlank(raw []string) bool {
	return len(raw) == 1 && (raw[0] == "" || raw[0] == "0")
}

// All returns an iterator over the remaining records. Iteration ends at the
// end of the file or after the first error has been yielded.
func (r *Reader) All() iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for {
			record, err := r.NextRow()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(record, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the file. It is safe to call more than once.
func (r *Reader) Close() error {
	return r.release()
}

func (r *Reader) release() error {
	err := closeAll(r.closers)
	r.closers = nil
	r.tok = nil
	r.conv = nil
	r.enc = EncodingUnknown
	r.label = ""
	r.line = 0
	r.eof = false
	return err
}

// closeAll closes in reverse acquisition order so decompressors go before the file.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Encoding returns the detected source encoding, or EncodingUnknown when not open.
func (r *Reader) Encoding() Encoding {
	return r.enc
}

// Label returns the raw label reported by the detector for the open file.
func (r *Reader) Label() string {
	return r.label
}

// Path returns the path passed to the most recent Open.
func (r *Reader) Path() string {
	return r.path
}

// ID identifies the most recent Open in log output.
func (r *Reader) ID() string {
	return r.id
}

// Line returns how many logical records have been consumed, skipped blanks included.
func (r *Reader) Line() int {
	return r.line
}

// IsOpen reports whether a file is currently held.
func (r *Reader) IsOpen() bool {
	return r.tok != nil
}
