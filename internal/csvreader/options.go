package csvreader

import (
	"github.com/rs/zerolog"

	"github.com/Belphemur/csvreader/internal/detect"
)

// DefaultSampleSize is the number of leading bytes inspected to detect the encoding.
const DefaultSampleSize = 64 * 1024

type options struct {
	allowed     map[Encoding]bool
	aliases     map[string]Encoding
	detector    detect.Detector
	sampleSize  int
	policy      ConversionPolicy
	tokenizer   TokenizerFactory
	decompress  bool
	fallback    bool
	keepBOM     bool
	ignoreBlank bool
	logger      zerolog.Logger
}

// Option configures a Reader.
type Option func(*options)

func defaultOptions() options {
	o := options{
		allowed:    make(map[Encoding]bool, len(DefaultAllowedEncodings)),
		detector:   detect.NewSniffer(),
		sampleSize: DefaultSampleSize,
		policy:     PolicyStrict,
		fallback:   true,
		tokenizer:  NewTokenizer,
		logger:     zerolog.Nop(),
	}
	for _, enc := range DefaultAllowedEncodings {
		o.allowed[enc] = true
	}
	return o
}

// WithAllowedEncodings replaces the set of encodings Open accepts.
func WithAllowedEncodings(encs ...Encoding) Option {
	return func(o *options) {
		o.allowed = make(map[Encoding]bool, len(encs))
		for _, enc := range encs {
			if enc != EncodingUnknown {
				o.allowed[enc] = true
			}
		}
	}
}

// WithEncodingAliases maps extra detector labels onto encodings, e.g.
// {"iso-8859-1": Windows1251} for files a MIME probe mislabels.
func WithEncodingAliases(aliases map[string]Encoding) Option {
	return func(o *options) {
		o.aliases = make(map[string]Encoding, len(aliases))
		for label, enc := range aliases {
			o.aliases[normalizeLabel(label)] = enc
		}
	}
}

// WithLegacyFallback controls whether 8-bit text whose detected label is not
// windows-1251 (iso-8859-1, koi8-r, unknown-8bit, ...) is still read as
// Windows1251. It is on by default; off, only labels resolving to
// windows-1251 or listed in WithEncodingAliases are accepted.
func WithLegacyFallback(enabled bool) Option {
	return func(o *options) {
		o.fallback = enabled
	}
}

// WithDetector replaces the default chardet-backed sniffer.
func WithDetector(d detect.Detector) Option {
	return func(o *options) {
		if d != nil {
			o.detector = d
		}
	}
}

// WithSampleSize sets how many leading bytes are sniffed. Non-positive values keep the default.
func WithSampleSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sampleSize = n
		}
	}
}

// WithConversionPolicy sets how undefined legacy bytes are handled.
func WithConversionPolicy(p ConversionPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTokenizer replaces the default comma-separated tokenizer.
func WithTokenizer(f TokenizerFactory) Option {
	return func(o *options) {
		if f != nil {
			o.tokenizer = f
		}
	}
}

// WithDecompression enables transparent gzip, zstd and brotli input.
func WithDecompression(enabled bool) Option {
	return func(o *options) {
		o.decompress = enabled
	}
}

// WithKeepBOM keeps a leading UTF-8 byte order mark in the first field.
func WithKeepBOM(keep bool) Option {
	return func(o *options) {
		o.keepBOM = keep
	}
}

// WithIgnoreBlankRecords sets the initial blank-suppression flag.
func WithIgnoreBlankRecords(ignore bool) Option {
	return func(o *options) {
		o.ignoreBlank = ignore
	}
}

// WithLogger sets the logger used for debug tracing and conversion warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
