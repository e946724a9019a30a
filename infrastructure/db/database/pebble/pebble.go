package pebble

import (
	"github.com/cockroachdb/pebble/v2"
	"github.com/pkg/errors"
	"github.com/topodag/topod/infrastructure/db/database"
)

// PebbleDB defines a thin wrapper around pebble.
type PebbleDB struct {
	db *pebble.DB
}

// NewPebbleDB opens a pebble instance defined by the given path.
func NewPebbleDB(path string, cacheSizeMiB int) (*PebbleDB, error) {
	options := Options(cacheSizeMiB)
	db, err := pebble.Open(path, options)
	// The DB holds its own reference to the cache
	options.Cache.Unref()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &PebbleDB{db: db}, nil
}

// Compact flushes the memtables into sstables. Pebble schedules its own
// compactions from there.
func (db *PebbleDB) Compact() error {
	return errors.WithStack(db.db.Flush())
}

// Close closes the pebble instance.
func (db *PebbleDB) Close() error {
	return errors.WithStack(db.db.Close())
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (db *PebbleDB) Put(key *database.Key, value []byte) error {
	return errors.WithStack(db.db.Set(key.Bytes(), value, pebble.Sync))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (db *PebbleDB) Get(key *database.Key) ([]byte, error) {
	return get(db.db, key)
}

// Has returns true if the database does contains the
// given key.
func (db *PebbleDB) Has(key *database.Key) (bool, error) {
	return has(db.db, key)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (db *PebbleDB) Delete(key *database.Key) error {
	return errors.WithStack(db.db.Delete(key.Bytes(), pebble.Sync))
}

// Cursor begins a new cursor over the given bucket.
func (db *PebbleDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	return newCursor(db.db, bucket)
}

// Begin begins a new transaction.
func (db *PebbleDB) Begin() (database.Transaction, error) {
	return &PebbleDBTransaction{
		db:       db,
		snapshot: db.db.NewSnapshot(),
		batch:    db.db.NewBatch(),
	}, nil
}
