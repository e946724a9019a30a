package hashes

import (
	"hash"

	"github.com/pkg/errors"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"golang.org/x/crypto/blake2b"
	"lukechampine.com/blake3"
)

const (
	blockHashDomain              = "BlockHash"
	transactionIDDomain          = "TransactionID"
	transactionSigningHashDomain = "TransactionSigningHash"
	transactionsRootDomain       = "TransactionsRoot"
	accountStateDomain           = "AccountState"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// This can only be created via one of the domain separated constructors
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum [externalapi.DomainHashSize]byte
	copy(sum[:], h.Sum(nil))
	return externalapi.NewDomainHashFromByteArray(&sum)
}

func newBlake2bWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

func newBlake3Writer(domain string) HashWriter {
	hasher := blake3.New(externalapi.DomainHashSize, nil)
	writer := HashWriter{hasher}
	writer.InfallibleWrite([]byte(domain))
	return writer
}

// NewBlockHashWriter returns a new HashWriter used for block hashes
func NewBlockHashWriter() HashWriter {
	return newBlake2bWriter(blockHashDomain)
}

// NewTransactionsRootWriter returns a new HashWriter used for the
// commitment over a block's transaction IDs
func NewTransactionsRootWriter() HashWriter {
	return newBlake2bWriter(transactionsRootDomain)
}

// NewTransactionIDWriter returns a new HashWriter used for transaction IDs
func NewTransactionIDWriter() HashWriter {
	return newBlake3Writer(transactionIDDomain)
}

// NewTransactionSigningHashWriter returns a new HashWriter used for the
// message a transaction's sender signs
func NewTransactionSigningHashWriter() HashWriter {
	return newBlake3Writer(transactionSigningHashDomain)
}

// NewAccountStateWriter returns a new HashWriter used for the element an
// account contributes to the state multiset
func NewAccountStateWriter() HashWriter {
	return newBlake2bWriter(accountStateDomain)
}
