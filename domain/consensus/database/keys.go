package database

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/infrastructure/db/database"
)

// MakeBucket returns the bucket at the given path. Consensus stores each
// keep their records under a bucket of their own.
func MakeBucket(path []byte) model.DBBucket {
	return bucket{bucket: database.MakeBucket(path)}
}

type bucket struct {
	bucket *database.Bucket
}

func (b bucket) Bucket(bucketBytes []byte) model.DBBucket {
	return bucket{bucket: b.bucket.Bucket(bucketBytes)}
}

func (b bucket) Key(suffix []byte) model.DBKey {
	return key{key: b.bucket.Key(suffix)}
}

func (b bucket) Path() []byte {
	return b.bucket.Path()
}

type key struct {
	key *database.Key
}

func (k key) Bytes() []byte {
	return k.key.Bytes()
}

func (k key) Bucket() model.DBBucket {
	return bucket{bucket: k.key.Bucket()}
}

func (k key) Suffix() []byte {
	return k.key.Suffix()
}

func (k key) String() string {
	return k.key.String()
}

func toDatabaseKey(dbKey model.DBKey) *database.Key {
	if k, ok := dbKey.(key); ok {
		return k.key
	}
	return database.MakeBucket(dbKey.Bucket().Path()).Key(dbKey.Suffix())
}
