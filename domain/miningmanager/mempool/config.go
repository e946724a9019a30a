package mempool

import (
	"github.com/topodag/topod/domain/dagconfig"
)

const (
	defaultMaximumTransactionCount = 1_000_000
	defaultMinimumTransactionFee   = 1
)

// Config represents a mempool configuration
type Config struct {
	MaximumTransactionCount int
	MinimumTransactionFee   uint64
	MaxTransactionAccounts  int
}

// DefaultConfig returns the default mempool configuration for the given network
func DefaultConfig(dagParams *dagconfig.Params, maxTransactionAccounts int) *Config {
	minimumTransactionFee := uint64(defaultMinimumTransactionFee)
	if dagParams.EnableSimulation {
		minimumTransactionFee = 0
	}
	return &Config{
		MaximumTransactionCount: defaultMaximumTransactionCount,
		MinimumTransactionFee:   minimumTransactionFee,
		MaxTransactionAccounts:  maxTransactionAccounts,
	}
}
