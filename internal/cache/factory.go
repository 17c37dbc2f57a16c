package cache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProviderConfig configures a detection cache backend.
type ProviderConfig struct {
	// Size bounds the number of fingerprints kept by the memory provider.
	Size int

	// TTL is how long a detected label is trusted.
	TTL time.Duration

	// OnEvict is called by the memory provider when a label is dropped.
	OnEvict EvictCallback

	// Logger receives backend errors. A failing backend degrades to misses, so
	// with a nil Logger errors go unreported.
	Logger *zerolog.Logger

	// RedisAddress is the Redis/Valkey server address shared by several readers.
	RedisAddress string

	// RedisPassword is the password for the Redis/Valkey server.
	RedisPassword string

	// RedisDB is the Redis/Valkey database number.
	RedisDB int

	// KeyPrefix namespaces fingerprints in Redis. Defaults to "csvreader:enc:".
	KeyPrefix string

	// Group labels the cache's hit, miss, eviction and entries metrics. When
	// empty the cache is not instrumented.
	Group string
}

// Provider is a constructor function that creates a Cache from config.
type Provider func(cfg ProviderConfig) (Cache, error)

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register registers a cache provider under the given name.
// It panics if the name is already registered or the provider is nil.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()

	if p == nil {
		panic("cache: Register provider is nil")
	}
	if _, exists := providers[name]; exists {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New creates a new Cache using the named provider and the given config.
// When cfg.Group is non-empty the resulting cache is wrapped with metric
// instrumentation and evictions are counted under the same group.
func New(name string, cfg ProviderConfig) (Cache, error) {
	mu.RLock()
	p, ok := providers[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("cache: size must be positive, got %d", cfg.Size)
	}

	if cfg.Group == "" {
		return p(cfg)
	}

	group := cfg.Group
	original := cfg.OnEvict
	cfg.OnEvict = func(key string, label string) {
		EvictionsTotal.WithLabelValues(group).Inc()
		if original != nil {
			original(key, label)
		}
	}

	inner, err := p(cfg)
	if err != nil {
		return nil, err
	}

	return newInstrumentedCache(inner, group), nil
}

// RegisteredProviders returns a sorted list of registered provider names.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
