package serialization

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

// SerializeHash serializes hash to a slice of bytes
func SerializeHash(hash *externalapi.DomainHash) []byte {
	return hash.ByteSlice()
}

// DeserializeHash a slice of bytes to a hash
func DeserializeHash(hashBytes []byte) (*externalapi.DomainHash, error) {
	return externalapi.NewDomainHashFromByteSlice(hashBytes)
}

// SerializeHashes serializes a list of hashes as a message of repeated hash fields
func SerializeHashes(hashes []*externalapi.DomainHash) []byte {
	e := &messageEncoder{}
	encodeHashes(e, 1, hashes)
	return e.buf
}

// DeserializeHashes is the inverse of SerializeHashes
func DeserializeHashes(b []byte) ([]*externalapi.DomainHash, error) {
	hashes := make([]*externalapi.DomainHash, 0)
	err := decodeMessage(b, func(f *field) error {
		if f.num != 1 {
			return nil
		}
		hash, err := f.hash()
		if err != nil {
			return err
		}
		hashes = append(hashes, hash)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hashes, nil
}

func encodeHashes(e *messageEncoder, num protowire.Number, hashes []*externalapi.DomainHash) {
	for _, hash := range hashes {
		e.bytes(num, hash.ByteSlice())
	}
}

func (f *field) hash() (*externalapi.DomainHash, error) {
	err := f.expectBytes()
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainHashFromByteSlice(f.data)
}

func (f *field) accountKey() (externalapi.AccountKey, error) {
	var key externalapi.AccountKey
	err := f.expectBytes()
	if err != nil {
		return key, err
	}
	if len(f.data) != externalapi.AccountKeySize {
		return key, errorf("field %d: invalid account key length %d", f.num, len(f.data))
	}
	copy(key[:], f.data)
	return key, nil
}
