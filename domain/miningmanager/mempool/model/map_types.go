package model

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// IDToTransaction maps transactionID to a MempoolTransaction
type IDToTransaction map[externalapi.DomainTransactionID]*MempoolTransaction

// SenderNonce identifies the transaction slot of a sender
type SenderNonce struct {
	Sender externalapi.AccountKey
	Nonce  uint64
}

// SenderNonceToTransaction maps a sender's nonce to the transaction that uses it
type SenderNonceToTransaction map[SenderNonce]*MempoolTransaction
