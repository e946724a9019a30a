package consensushashing

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/hashes"
)

// BlockHash returns the given block's hash
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash returns the given header's hash. Every header field is
// committed to, parents in their declared order.
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := &elementWriter{HashWriter: hashes.NewBlockHashWriter()}
	writer.writeUint16(header.Version)
	writer.writeUint64(uint64(len(header.Parents)))
	for _, parent := range header.Parents {
		writer.writeHash(parent)
	}
	writer.writeHash(header.TransactionsRoot)
	writer.writeUint64(uint64(header.TimeInMilliseconds))
	writer.writeUint32(header.Bits)
	writer.writeUint64(header.Nonce)
	return writer.Finalize()
}

// TransactionsRoot returns the commitment over the ordered transaction IDs
// of a block. A block without transactions commits to the empty list.
func TransactionsRoot(transactions []*externalapi.DomainTransaction) *externalapi.DomainHash {
	writer := &elementWriter{HashWriter: hashes.NewTransactionsRootWriter()}
	writer.writeUint64(uint64(len(transactions)))
	for _, tx := range transactions {
		writer.writeHash((*externalapi.DomainHash)(TransactionID(tx)))
	}
	return writer.Finalize()
}
