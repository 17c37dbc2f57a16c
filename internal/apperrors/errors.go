package apperrors

import "fmt"

// LoadErrorKind identifies why opening a file for record reading failed.
type LoadErrorKind int

const (
	// FileNotLoaded means the file handle could not be acquired.
	FileNotLoaded LoadErrorKind = iota + 1
	// UnsupportedEncoding means the sniffed encoding is outside the allowed set.
	UnsupportedEncoding
)

// String returns the stable name of the kind, suitable for logs and metric labels.
func (k LoadErrorKind) String() string {
	switch k {
	case FileNotLoaded:
		return "file_not_loaded"
	case UnsupportedEncoding:
		return "unsupported_encoding"
	default:
		return fmt.Sprintf("load_error(%d)", int(k))
	}
}

// LoadError is the terminal failure of an open attempt.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	// Label is the detected encoding label. Only set for UnsupportedEncoding.
	Label string
	Err   error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	switch e.Kind {
	case FileNotLoaded:
		if e.Err != nil {
			return fmt.Sprintf("file %q not loaded: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("file %q not loaded", e.Path)
	case UnsupportedEncoding:
		if e.Err != nil {
			return fmt.Sprintf("file %q has unsupported encoding %q: %v", e.Path, e.Label, e.Err)
		}
		return fmt.Sprintf("file %q has unsupported encoding %q", e.Path, e.Label)
	default:
		return fmt.Sprintf("file %q: %s", e.Path, e.Kind)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
// A target without a Kind matches every LoadError.
func (e *LoadError) Is(target error) bool {
	t, ok := target.(*LoadError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

// NewFileNotLoadedError creates a LoadError for a file that could not be opened.
func NewFileNotLoadedError(path string, err error) *LoadError {
	return &LoadError{
		Kind: FileNotLoaded,
		Path: path,
		Err:  err,
	}
}

// NewUnsupportedEncodingError creates a LoadError for a file whose encoding is not allowed.
func NewUnsupportedEncodingError(path, label string, err error) *LoadError {
	return &LoadError{
		Kind:  UnsupportedEncoding,
		Path:  path,
		Label: label,
		Err:   err,
	}
}

// Targets for errors.Is.
var (
	ErrFileNotLoaded       = &LoadError{Kind: FileNotLoaded}
	ErrUnsupportedEncoding = &LoadError{Kind: UnsupportedEncoding}
)

// InvalidEncodingBytesError is returned when a field contains a byte the source
// code page does not define.
type InvalidEncodingBytesError struct {
	Encoding string
	// Record is the 1-based logical record number, 0 when unknown.
	Record int
	// Field is the 0-based field index within the record.
	Field  int
	Offset int
	Byte   byte
}

// Error implements the error interface.
func (e *InvalidEncodingBytesError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("record %d field %d: byte 0x%02x at offset %d is not valid %s",
			e.Record, e.Field, e.Byte, e.Offset, e.Encoding)
	}
	return fmt.Sprintf("byte 0x%02x at offset %d is not valid %s", e.Byte, e.Offset, e.Encoding)
}

// Is allows for error checking with errors.Is().
func (e *InvalidEncodingBytesError) Is(target error) bool {
	_, ok := target.(*InvalidEncodingBytesError)
	return ok
}

// ErrInvalidEncodingBytes is a target for errors.Is.
var ErrInvalidEncodingBytes = &InvalidEncodingBytesError{}
