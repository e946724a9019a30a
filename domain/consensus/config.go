package consensus

import (
	"github.com/topodag/topod/domain/consensus/processes/accountlockmanager"
	"github.com/topodag/topod/domain/dagconfig"
)

const (
	// DefaultOrderingCacheSize is the number of entries each ordering cache holds
	DefaultOrderingCacheSize = 10_000

	defaultStoreCacheSize = 10_000
	defaultDBCacheSizeMiB = 64
)

// Config is the set of parameters required to create a new consensus
type Config struct {
	dagconfig.Params

	// Workers is the number of parallel transaction executor workers,
	// between 1 and 64
	Workers int

	// OrderingCacheSize bounds each ordering cache. Zero disables them.
	OrderingCacheSize int

	// StoreCacheSize bounds the read cache of every store
	StoreCacheSize int
}

// NewConfig returns a Config over params with default sizes
func NewConfig(params *dagconfig.Params) *Config {
	return &Config{
		Params:            *params,
		Workers:           accountlockmanager.MaxThreads,
		OrderingCacheSize: DefaultOrderingCacheSize,
		StoreCacheSize:    defaultStoreCacheSize,
	}
}
