package consensushashing

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/hashes"
)

// TransactionID returns the ID of the given transaction, which commits to
// every field including the signature. The result is cached on tx.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	if tx.ID != nil {
		return tx.ID
	}

	writer := &elementWriter{HashWriter: hashes.NewTransactionIDWriter()}
	writeTransactionBody(writer, tx)
	writer.writeVarBytes(tx.Signature)

	tx.ID = (*externalapi.DomainTransactionID)(writer.Finalize())
	return tx.ID
}

// TransactionSigningHash returns the message the sender signs: every field
// of the transaction except the signature itself
func TransactionSigningHash(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	writer := &elementWriter{HashWriter: hashes.NewTransactionSigningHashWriter()}
	writeTransactionBody(writer, tx)
	return writer.Finalize()
}

func writeTransactionBody(writer *elementWriter, tx *externalapi.DomainTransaction) {
	writer.writeUint16(tx.Version)
	writer.InfallibleWrite(tx.Sender[:])
	writer.writeUint64(tx.Nonce)
	writer.writeUint64(tx.Fee)
	writer.writeUint64(uint64(len(tx.Outputs)))
	for _, output := range tx.Outputs {
		writer.InfallibleWrite(output.Recipient[:])
		writer.writeUint64(output.Amount)
	}
	writer.writeUint64(uint64(len(tx.Guards)))
	for _, guard := range tx.Guards {
		writer.InfallibleWrite(guard.Account[:])
		writer.writeUint64(guard.MinBalance)
	}
}

// AccountStateElement returns the multiset element an account contributes
// to the state commitment
func AccountStateElement(key externalapi.AccountKey, account *externalapi.Account) []byte {
	writer := &elementWriter{HashWriter: hashes.NewAccountStateWriter()}
	writer.InfallibleWrite(key[:])
	writer.writeUint64(account.Balance)
	writer.writeUint64(account.Nonce)
	return writer.Finalize().ByteSlice()
}
