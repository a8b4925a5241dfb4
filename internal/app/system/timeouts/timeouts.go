// Package timeouts provides centralized deadlines for store calls made
// from HTTP and socket handlers.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Lookup: single-document reads (user identity, owner, grant)
//   - Write: single-document writes (task status, share grant)
//   - Batch: multi-document operations (bulk revocation, collaborator lists)
//
// Values can be overridden at startup with Configure.
package timeouts

import (
	"sync"
	"time"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultLookup = 5 * time.Second
	DefaultWrite  = 10 * time.Second
	DefaultBatch  = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	lookup = DefaultLookup
	write  = DefaultWrite
	batch  = DefaultBatch
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Lookup returns the timeout for single-document reads.
func Lookup() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return lookup
}

// Write returns the timeout for single-document writes.
func Write() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return write
}

// Batch returns the timeout for multi-document operations.
func Batch() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return batch
}

// Config holds timeout overrides. Zero values keep the current value.
type Config struct {
	Ping   time.Duration
	Lookup time.Duration
	Write  time.Duration
	Batch  time.Duration
}

// Configure applies non-zero values from cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Lookup > 0 {
		lookup = cfg.Lookup
	}
	if cfg.Write > 0 {
		write = cfg.Write
	}
	if cfg.Batch > 0 {
		batch = cfg.Batch
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	lookup = DefaultLookup
	write = DefaultWrite
	batch = DefaultBatch
}

// Current returns the active configuration, for logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Lookup: lookup, Write: write, Batch: batch}
}
