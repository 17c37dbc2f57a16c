package detect

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Belphemur/csvreader/internal/cache"
)

// CachingDetector memoizes labels per content key in a cache.Cache.
type CachingDetector struct {
	inner Detector
	cache cache.Cache
}

// NewCachingDetector wraps inner so repeated detections of the same key are served from c.
func NewCachingDetector(inner Detector, c cache.Cache) *CachingDetector {
	return &CachingDetector{inner: inner, cache: c}
}

// Detect implements Detector without caching; there is no key to cache under.
func (d *CachingDetector) Detect(sample []byte) (string, error) {
	return d.inner.Detect(sample)
}

// DetectKey implements KeyedDetector. Failed detections are not cached.
func (d *CachingDetector) DetectKey(key string, sample []byte) (string, error) {
	if key == "" {
		return d.inner.Detect(sample)
	}
	if label, ok := d.cache.Get(key); ok {
		return label, nil
	}

	label, err := d.inner.Detect(sample)
	if err != nil {
		return "", err
	}
	d.cache.Set(key, label)
	return label, nil
}

// Fingerprint builds a cache key that changes whenever the file is rewritten.
func Fingerprint(path string, info os.FileInfo) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
}
