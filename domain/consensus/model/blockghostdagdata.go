package model

import (
	"math/big"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// KType defines the size of GHOSTDAG consensus algorithm K parameter.
type KType uint8

// BlockGHOSTDAGData represents GHOSTDAG data for some block
type BlockGHOSTDAGData struct {
	blueScore          uint64
	blueWork           *big.Int
	selectedParent     *externalapi.DomainHash
	mergeSetBlues      []*externalapi.DomainHash
	mergeSetReds       []*externalapi.DomainHash
	bluesAnticoneSizes map[externalapi.DomainHash]KType
}

// NewBlockGHOSTDAGData creates a new instance of BlockGHOSTDAGData
func NewBlockGHOSTDAGData(
	blueScore uint64,
	blueWork *big.Int,
	selectedParent *externalapi.DomainHash,
	mergeSetBlues []*externalapi.DomainHash,
	mergeSetReds []*externalapi.DomainHash,
	bluesAnticoneSizes map[externalapi.DomainHash]KType) *BlockGHOSTDAGData {

	return &BlockGHOSTDAGData{
		blueScore:          blueScore,
		blueWork:           blueWork,
		selectedParent:     selectedParent,
		mergeSetBlues:      mergeSetBlues,
		mergeSetReds:       mergeSetReds,
		bluesAnticoneSizes: bluesAnticoneSizes,
	}
}

// BlueScore returns the BlueScore of the block
func (bgd *BlockGHOSTDAGData) BlueScore() uint64 {
	return bgd.blueScore
}

// BlueWork returns the BlueWork of the block
func (bgd *BlockGHOSTDAGData) BlueWork() *big.Int {
	return bgd.blueWork
}

// SelectedParent returns the SelectedParent of the block, or nil for genesis
func (bgd *BlockGHOSTDAGData) SelectedParent() *externalapi.DomainHash {
	return bgd.selectedParent
}

// MergeSetBlues returns the MergeSetBlues of the block, selected parent first
func (bgd *BlockGHOSTDAGData) MergeSetBlues() []*externalapi.DomainHash {
	return bgd.mergeSetBlues
}

// MergeSetReds returns the MergeSetReds of the block
func (bgd *BlockGHOSTDAGData) MergeSetReds() []*externalapi.DomainHash {
	return bgd.mergeSetReds
}

// BluesAnticoneSizes returns a map between the blocks in its MergeSetBlues and the size of their anticone
func (bgd *BlockGHOSTDAGData) BluesAnticoneSizes() map[externalapi.DomainHash]KType {
	return bgd.bluesAnticoneSizes
}

// MergeSetSize returns the number of blocks in the mergeset, including the selected parent
func (bgd *BlockGHOSTDAGData) MergeSetSize() int {
	return len(bgd.mergeSetBlues) + len(bgd.mergeSetReds)
}

// MergeSet returns the whole MergeSet of the block (equivalent to MergeSetBlues+MergeSetReds)
func (bgd *BlockGHOSTDAGData) MergeSet() []*externalapi.DomainHash {
	mergeSet := make([]*externalapi.DomainHash, len(bgd.mergeSetBlues)+len(bgd.mergeSetReds))
	copy(mergeSet, bgd.mergeSetBlues)
	if len(bgd.mergeSetReds) > 0 {
		copy(mergeSet[len(bgd.mergeSetBlues):], bgd.mergeSetReds)
	}

	return mergeSet
}

// Equal returns whether bgd equals to other
func (bgd *BlockGHOSTDAGData) Equal(other *BlockGHOSTDAGData) bool {
	if bgd == nil || other == nil {
		return bgd == other
	}

	if bgd.blueScore != other.blueScore {
		return false
	}
	if bgd.blueWork.Cmp(other.blueWork) != 0 {
		return false
	}
	if !bgd.selectedParent.Equal(other.selectedParent) {
		return false
	}
	if !externalapi.HashesEqual(bgd.mergeSetBlues, other.mergeSetBlues) {
		return false
	}
	if !externalapi.HashesEqual(bgd.mergeSetReds, other.mergeSetReds) {
		return false
	}
	if len(bgd.bluesAnticoneSizes) != len(other.bluesAnticoneSizes) {
		return false
	}
	for hash, size := range bgd.bluesAnticoneSizes {
		otherSize, exists := other.bluesAnticoneSizes[hash]
		if !exists || size != otherSize {
			return false
		}
	}

	return true
}
