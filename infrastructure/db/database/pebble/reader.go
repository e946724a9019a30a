package pebble

import (
	"io"

	"github.com/cockroachdb/pebble/v2"
	"github.com/pkg/errors"
	"github.com/topodag/topod/infrastructure/db/database"
)

// reader is the read surface shared by *pebble.DB and *pebble.Snapshot
type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

func get(r reader, key *database.Key) ([]byte, error) {
	value, closer, err := r.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	defer closer.Close()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func has(r reader, key *database.Key) (bool, error) {
	_, closer, err := r.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return true, closer.Close()
}

// prefixUpperBound returns the smallest key greater than every key that
// starts with prefix, or nil if no such key exists.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}
