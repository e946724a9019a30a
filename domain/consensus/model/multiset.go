package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// Multiset is an order-independent commitment over a collection of elements.
// Removing an element that was added restores the previous commitment.
type Multiset interface {
	Add(data []byte)
	Remove(data []byte)
	Hash() *externalapi.DomainHash
	Serialize() []byte
	Clone() Multiset
}
