package model

// DBReader reads committed consensus records. Get returns
// database.ErrNotFound for a missing key.
type DBReader interface {
	Get(key DBKey) ([]byte, error)
	Has(key DBKey) (bool, error)
}

// DBWriter is an interface to write to the database
type DBWriter interface {
	DBReader

	// Put overwrites any previous value of key
	Put(key DBKey, value []byte) error

	// Delete does not fail when key is missing
	Delete(key DBKey) error
}

// DBTransaction is a DBWriter whose writes become visible together on
// Commit. A block's staged changes are written through one of these.
type DBTransaction interface {
	DBWriter

	Rollback() error
	Commit() error

	// RollbackUnlessClosed is a no-op after Commit or Rollback, so it can
	// be deferred right after Begin.
	RollbackUnlessClosed() error
}

// DBManager is the consensus view of the database
type DBManager interface {
	DBWriter

	Begin() (DBTransaction, error)
}

// DBKey is a key inside a DBBucket
type DBKey interface {
	Bytes() []byte
	Bucket() DBBucket
	Suffix() []byte
}

// DBBucket is a key prefix. Buckets nest.
type DBBucket interface {
	Bucket(bucketBytes []byte) DBBucket
	Key(suffix []byte) DBKey
	Path() []byte
}
