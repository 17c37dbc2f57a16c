package cache

// instrumentedCache counts detection cache hits and misses under one group
// label. A miss is a file that will be sniffed again.
type instrumentedCache struct {
	inner Cache
	group string
}

// newInstrumentedCache also registers a cache_entries gauge for group that
// reads inner.Len() at scrape time.
func newInstrumentedCache(inner Cache, group string) *instrumentedCache {
	registerEntriesCollector(group, inner.Len)
	return &instrumentedCache{inner: inner, group: group}
}

func (c *instrumentedCache) Get(fingerprint string) (string, bool) {
	label, ok := c.inner.Get(fingerprint)
	counter := MissesTotal
	if ok {
		counter = HitsTotal
	}
	counter.WithLabelValues(c.group).Inc()
	return label, ok
}

func (c *instrumentedCache) Set(fingerprint string, label string) {
	c.inner.Set(fingerprint, label)
}

func (c *instrumentedCache) Contains(fingerprint string) bool {
	return c.inner.Contains(fingerprint)
}

func (c *instrumentedCache) Len() int {
	return c.inner.Len()
}

// Close drops the group's entries gauge before closing the inner cache.
func (c *instrumentedCache) Close() error {
	unregisterEntriesCollector(c.group)
	return c.inner.Close()
}
