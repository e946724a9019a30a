package pebble

import (
	"os"
	"strconv"

	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/bloom"
	"github.com/cockroachdb/pebble/v2/sstable"
)

const (
	defaultCacheSizeMiB    = 128
	defaultMemTableSizeMiB = 32
	defaultBloomBitsPerKey = 12
)

// Options returns the pebble configuration used by topod. Lookups by block
// hash and account key dominate the workload, so every level carries a bloom
// filter.
func Options(cacheSizeMiB int) *pebble.Options {
	bloomPolicy := bloom.FilterPolicy(getEnvInt("TOPOD_PEBBLE_BLOOM_BITS", defaultBloomBitsPerKey))

	cacheBytes := int64(defaultCacheSizeMiB) << 20
	if cacheSizeMiB > 0 {
		cacheBytes = int64(cacheSizeMiB) << 20
	}
	memTableBytes := int64(getEnvInt("TOPOD_PEBBLE_MEMTABLE_MB", defaultMemTableSizeMiB)) << 20

	var levels [7]pebble.LevelOptions
	for i := range levels {
		compression := func() *sstable.CompressionProfile { return sstable.SnappyCompression }
		if i == len(levels)-1 {
			compression = func() *sstable.CompressionProfile { return sstable.ZstdCompression }
		}
		levels[i] = pebble.LevelOptions{
			BlockSize:      8 << 10,
			IndexBlockSize: 4 << 10,
			Compression:    compression,
			FilterPolicy:   bloomPolicy,
		}
	}

	opts := &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,

		Cache: pebble.NewCache(cacheBytes),

		MemTableSize:                uint64(memTableBytes),
		MemTableStopWritesThreshold: 4,

		L0CompactionThreshold: 4,
		L0StopWritesThreshold: 24,

		MaxOpenFiles: 4096,
		Levels:       levels,

		Logger:        pebbleLogger{},
		EventListener: newLoggingEventListener(),
	}

	opts.EnsureDefaults()
	return opts
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func newLoggingEventListener() *pebble.EventListener {
	return &pebble.EventListener{
		BackgroundError: func(err error) {
			log.Errorf("[pebble] background error: %v", err)
		},
		WriteStallBegin: func(info pebble.WriteStallBeginInfo) {
			log.Warnf("[pebble] write stall begin: %s", info.Reason)
		},
		WriteStallEnd: func() {
			log.Warnf("[pebble] write stall end")
		},
		DiskSlow: func(info pebble.DiskSlowInfo) {
			log.Warnf("[pebble] disk slow  op=%s  path=%s  dur=%s",
				info.OpType, info.Path, info.Duration)
		},
	}
}
