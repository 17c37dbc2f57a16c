// Package cache stores detected encoding labels keyed by file fingerprint so a
// file that has not changed is not sniffed again.
package cache

// EvictCallback receives a fingerprint and its label when the memory provider
// drops them. Redis expires labels server-side and never calls it.
type EvictCallback func(fingerprint string, label string)

// Cache maps file fingerprints (see detect.Fingerprint) to the charset label
// detected for that content. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the label stored for fingerprint, or "" and false.
	Get(fingerprint string) (string, bool)

	// Set stores label for fingerprint, replacing any earlier label.
	Set(fingerprint string, label string)

	// Contains reports whether fingerprint has a label without touching recency.
	Contains(fingerprint string) bool

	// Len is the number of labels held, used for the cache_entries gauge.
	Len() int

	// Close releases backend connections. It is a no-op for the memory provider.
	Close() error
}
