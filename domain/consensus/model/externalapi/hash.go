package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize is the size of a block, transaction or state root hash
const DomainHashSize = 32

// DomainHash identifies blocks and transactions. Its zero value is the zero
// hash. A DomainHash is never modified once created, so pointers to it are
// shared freely.
type DomainHash struct {
	hashArray [DomainHashSize]byte
}

// NewZeroHash returns a new zero hash
func NewZeroHash() *DomainHash {
	return &DomainHash{}
}

// NewDomainHashFromByteArray copies hashBytes into a new DomainHash
func NewDomainHashFromByteArray(hashBytes *[DomainHashSize]byte) *DomainHash {
	return &DomainHash{hashArray: *hashBytes}
}

// NewDomainHashFromByteSlice copies hashBytes into a new DomainHash. It
// fails unless hashBytes holds exactly DomainHashSize bytes.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("a hash is %d bytes long, got %d", DomainHashSize, len(hashBytes))
	}
	hash := &DomainHash{}
	copy(hash.hashArray[:], hashBytes)
	return hash, nil
}

func (hash DomainHash) String() string {
	return hex.EncodeToString(hash.hashArray[:])
}

// ByteArray returns a copy of the hash bytes
func (hash *DomainHash) ByteArray() *[DomainHashSize]byte {
	array := hash.hashArray
	return &array
}

// ByteSlice returns a copy of the hash bytes
func (hash *DomainHash) ByteSlice() []byte {
	return hash.ByteArray()[:]
}

// Equal returns whether hash equals to other. Two nil hashes are equal.
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return hash.hashArray == other.hashArray
}

// Less orders hashes by their bytes, most significant byte first. It breaks
// every blue work tie.
func (hash *DomainHash) Less(other *DomainHash) bool {
	return bytes.Compare(hash.hashArray[:], other.hashArray[:]) < 0
}

// CloneHashes returns a new slice holding the same hashes
func CloneHashes(hashes []*DomainHash) []*DomainHash {
	clone := make([]*DomainHash, len(hashes))
	copy(clone, hashes)
	return clone
}

// HashesEqual returns whether a and b hold equal hashes in the same order
func HashesEqual(a, b []*DomainHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// HashesContain returns whether hash is one of hashes
func HashesContain(hashes []*DomainHash, hash *DomainHash) bool {
	for _, candidate := range hashes {
		if candidate.Equal(hash) {
			return true
		}
	}
	return false
}
