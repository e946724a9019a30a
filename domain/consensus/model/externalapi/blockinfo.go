package externalapi

import "math/big"

// BlockInfo contains various information about a specific block
type BlockInfo struct {
	Exists bool

	Hash           *DomainHash
	Parents        []*DomainHash
	SelectedParent *DomainHash
	MergeSetBlues  []*DomainHash
	MergeSetReds   []*DomainHash
	BlueScore      uint64
	BlueWork       *big.Int
	Height         uint64

	// HasTopoheight is false for blocks outside the past of the virtual selected tip
	HasTopoheight bool
	Topoheight    uint64
	IsChainBlock  bool
}
