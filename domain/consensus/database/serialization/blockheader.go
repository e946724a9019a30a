package serialization

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	headerFieldVersion          = 1
	headerFieldParents          = 2
	headerFieldTransactionsRoot = 3
	headerFieldTime             = 4
	headerFieldBits             = 5
	headerFieldNonce            = 6
)

// SerializeBlockHeader encodes a block header for storage
func SerializeBlockHeader(header *externalapi.DomainBlockHeader) []byte {
	e := &messageEncoder{}
	encodeBlockHeader(e, header)
	return e.buf
}

func encodeBlockHeader(e *messageEncoder, header *externalapi.DomainBlockHeader) {
	e.uint(headerFieldVersion, uint64(header.Version))
	encodeHashes(e, headerFieldParents, header.Parents)
	e.bytes(headerFieldTransactionsRoot, header.TransactionsRoot.ByteSlice())
	e.uint(headerFieldTime, uint64(header.TimeInMilliseconds))
	e.uint(headerFieldBits, uint64(header.Bits))
	e.uint(headerFieldNonce, header.Nonce)
}

// DeserializeBlockHeader decodes a block header written by SerializeBlockHeader
func DeserializeBlockHeader(b []byte) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{
		Parents: make([]*externalapi.DomainHash, 0),
	}
	err := decodeMessage(b, func(f *field) error {
		var err error
		switch f.num {
		case headerFieldVersion:
			if err = f.expectVarint(); err == nil {
				header.Version = uint16(f.value)
			}
		case headerFieldParents:
			var parent *externalapi.DomainHash
			parent, err = f.hash()
			if err == nil {
				header.Parents = append(header.Parents, parent)
			}
		case headerFieldTransactionsRoot:
			header.TransactionsRoot, err = f.hash()
		case headerFieldTime:
			if err = f.expectVarint(); err == nil {
				header.TimeInMilliseconds = int64(f.value)
			}
		case headerFieldBits:
			if err = f.expectVarint(); err == nil {
				header.Bits = uint32(f.value)
			}
		case headerFieldNonce:
			if err = f.expectVarint(); err == nil {
				header.Nonce = f.value
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if header.TransactionsRoot == nil {
		return nil, errorf("block header is missing its transactions root")
	}
	return header, nil
}
