package ldb

import "github.com/syndtr/goleveldb/leveldb/opt"

const defaultBlockCacheMiB = 64

// options returns the goleveldb options of a consensus database. Records
// are small protowire messages, so compression buys little.
func options(cacheSizeMiB int) *opt.Options {
	if cacheSizeMiB <= 0 {
		cacheSizeMiB = defaultBlockCacheMiB
	}
	return &opt.Options{
		Compression:            opt.NoCompression,
		BlockCacheCapacity:     cacheSizeMiB * opt.MiB,
		WriteBuffer:            32 * opt.MiB,
		DisableSeeksCompaction: true,
	}
}
