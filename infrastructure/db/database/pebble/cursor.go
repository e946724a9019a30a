package pebble

import (
	"bytes"

	"github.com/cockroachdb/pebble/v2"
	"github.com/pkg/errors"
	"github.com/topodag/topod/infrastructure/db/database"
)

// PebbleCursor is a thin wrapper around native pebble iterators.
type PebbleCursor struct {
	iterator *pebble.Iterator
	bucket   *database.Bucket

	isClosed bool
}

func newCursor(r reader, bucket *database.Bucket) (*PebbleCursor, error) {
	prefix := bucket.Path()
	iterator, err := r.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &PebbleCursor{iterator: iterator, bucket: bucket}, nil
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *PebbleCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	return c.iterator.Next()
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *PebbleCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	return c.iterator.First()
}

// Seek moves the iterator to the given key. It returns ErrNotFound if the
// key does not exist.
func (c *PebbleCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}

	notFoundErr := errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	keyBytes := key.Bytes()
	if !c.iterator.SeekGE(keyBytes) {
		return notFoundErr
	}
	if !bytes.Equal(c.iterator.Key(), keyBytes) {
		return notFoundErr
	}
	return nil
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
// The returned key does not include the bucket prefix.
func (c *PebbleCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if !c.iterator.Valid() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	suffix := bytes.TrimPrefix(c.iterator.Key(), c.bucket.Path())
	suffixCopy := make([]byte, len(suffix))
	copy(suffixCopy, suffix)
	return c.bucket.Key(suffixCopy), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
func (c *PebbleCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if !c.iterator.Valid() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	value, err := c.iterator.ValueAndErr()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

// Close releases associated resources.
func (c *PebbleCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	err := c.iterator.Close()
	c.iterator = nil
	c.bucket = nil
	return errors.WithStack(err)
}
