package serialization

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	transactionFieldVersion   = 1
	transactionFieldSender    = 2
	transactionFieldNonce     = 3
	transactionFieldFee       = 4
	transactionFieldOutputs   = 5
	transactionFieldGuards    = 6
	transactionFieldSignature = 7

	outputFieldRecipient = 1
	outputFieldAmount    = 2

	guardFieldAccount    = 1
	guardFieldMinBalance = 2

	blockTransactionsField = 1
)

// SerializeTransaction encodes a transaction. The cached ID is not stored.
func SerializeTransaction(tx *externalapi.DomainTransaction) []byte {
	e := &messageEncoder{}
	encodeTransaction(e, tx)
	return e.buf
}

func encodeTransaction(e *messageEncoder, tx *externalapi.DomainTransaction) {
	e.uint(transactionFieldVersion, uint64(tx.Version))
	e.bytes(transactionFieldSender, tx.Sender[:])
	e.uint(transactionFieldNonce, tx.Nonce)
	e.uint(transactionFieldFee, tx.Fee)
	for _, output := range tx.Outputs {
		output := output
		e.message(transactionFieldOutputs, func(e *messageEncoder) {
			e.bytes(outputFieldRecipient, output.Recipient[:])
			e.uint(outputFieldAmount, output.Amount)
		})
	}
	for _, guard := range tx.Guards {
		guard := guard
		e.message(transactionFieldGuards, func(e *messageEncoder) {
			e.bytes(guardFieldAccount, guard.Account[:])
			e.uint(guardFieldMinBalance, guard.MinBalance)
		})
	}
	if len(tx.Signature) > 0 {
		e.bytes(transactionFieldSignature, tx.Signature)
	}
}

// DeserializeTransaction decodes a transaction written by SerializeTransaction
func DeserializeTransaction(b []byte) (*externalapi.DomainTransaction, error) {
	tx := &externalapi.DomainTransaction{
		Outputs: make([]*externalapi.TransferOutput, 0),
		Guards:  make([]*externalapi.BalanceGuard, 0),
	}
	err := decodeMessage(b, func(f *field) error {
		var err error
		switch f.num {
		case transactionFieldVersion:
			if err = f.expectVarint(); err == nil {
				tx.Version = uint16(f.value)
			}
		case transactionFieldSender:
			tx.Sender, err = f.accountKey()
		case transactionFieldNonce:
			if err = f.expectVarint(); err == nil {
				tx.Nonce = f.value
			}
		case transactionFieldFee:
			if err = f.expectVarint(); err == nil {
				tx.Fee = f.value
			}
		case transactionFieldOutputs:
			var output *externalapi.TransferOutput
			output, err = decodeTransferOutput(f)
			if err == nil {
				tx.Outputs = append(tx.Outputs, output)
			}
		case transactionFieldGuards:
			var guard *externalapi.BalanceGuard
			guard, err = decodeBalanceGuard(f)
			if err == nil {
				tx.Guards = append(tx.Guards, guard)
			}
		case transactionFieldSignature:
			if err = f.expectBytes(); err == nil {
				tx.Signature = append([]byte(nil), f.data...)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func decodeTransferOutput(f *field) (*externalapi.TransferOutput, error) {
	err := f.expectBytes()
	if err != nil {
		return nil, err
	}
	output := &externalapi.TransferOutput{}
	err = decodeMessage(f.data, func(f *field) error {
		var err error
		switch f.num {
		case outputFieldRecipient:
			output.Recipient, err = f.accountKey()
		case outputFieldAmount:
			if err = f.expectVarint(); err == nil {
				output.Amount = f.value
			}
		}
		return err
	})
	return output, err
}

func decodeBalanceGuard(f *field) (*externalapi.BalanceGuard, error) {
	err := f.expectBytes()
	if err != nil {
		return nil, err
	}
	guard := &externalapi.BalanceGuard{}
	err = decodeMessage(f.data, func(f *field) error {
		var err error
		switch f.num {
		case guardFieldAccount:
			guard.Account, err = f.accountKey()
		case guardFieldMinBalance:
			if err = f.expectVarint(); err == nil {
				guard.MinBalance = f.value
			}
		}
		return err
	})
	return guard, err
}

// SerializeBlockTransactions encodes the ordered transaction list of a block
func SerializeBlockTransactions(transactions []*externalapi.DomainTransaction) []byte {
	e := &messageEncoder{}
	for _, tx := range transactions {
		tx := tx
		e.message(blockTransactionsField, func(e *messageEncoder) {
			encodeTransaction(e, tx)
		})
	}
	return e.buf
}

// DeserializeBlockTransactions is the inverse of SerializeBlockTransactions
func DeserializeBlockTransactions(b []byte) ([]*externalapi.DomainTransaction, error) {
	transactions := make([]*externalapi.DomainTransaction, 0)
	err := decodeMessage(b, func(f *field) error {
		if f.num != blockTransactionsField {
			return nil
		}
		err := f.expectBytes()
		if err != nil {
			return err
		}
		tx, err := DeserializeTransaction(f.data)
		if err != nil {
			return err
		}
		transactions = append(transactions, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}
