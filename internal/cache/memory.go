package cache

import (
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

func init() {
	Register("memory", newMemoryCache)
}

// memoryCache holds fingerprint -> label pairs for one process. A rewritten
// file gets a new fingerprint, so stale labels are never served; they only
// age out through Size and TTL.
type memoryCache struct {
	labels *lru.LRU[string, string]
}

func newMemoryCache(cfg ProviderConfig) (Cache, error) {
	var onEvict lru.EvictCallback[string, string]
	if cfg.OnEvict != nil {
		onEvict = lru.EvictCallback[string, string](cfg.OnEvict)
	}
	return &memoryCache{labels: lru.NewLRU(cfg.Size, onEvict, cfg.TTL)}, nil
}

// Get returns the label detected earlier for a fingerprint.
func (m *memoryCache) Get(fingerprint string) (string, bool) {
	return m.labels.Get(fingerprint)
}

func (m *memoryCache) Set(fingerprint string, label string) {
	m.labels.Add(fingerprint, label)
}

func (m *memoryCache) Contains(fingerprint string) bool {
	return m.labels.Contains(fingerprint)
}

func (m *memoryCache) Len() int {
	return m.labels.Len()
}

func (m *memoryCache) Close() error {
	return nil
}
