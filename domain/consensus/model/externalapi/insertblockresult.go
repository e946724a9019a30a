package externalapi

// BlockInsertionResult is auxiliary data returned from ValidateAndInsertBlock
type BlockInsertionResult struct {
	BlockHash        *DomainHash
	VirtualChangeSet *VirtualChangeSet
}

// TopoheightRange is an inclusive range of topoheights
type TopoheightRange struct {
	Start uint64
	End   uint64
}

// VirtualChangeSet describes how accepting a block changed the tips and the
// virtual selected-parent chain. Reordered holds the blocks that lost their
// topoheight to a chain change, from the highest topoheight down.
type VirtualChangeSet struct {
	NewTips          []*DomainHash
	ChainChanged     bool
	SelectedTip      *DomainHash
	ChainChanges     *SelectedChainChanges
	ReorgRange       *TopoheightRange
	Reordered        []*DomainHash
	Pruned           []*DomainHash
	ExecutionResults []*BlockExecutionResult
}

// IsReorg returns whether blocks were removed from the selected chain
func (changeSet *VirtualChangeSet) IsReorg() bool {
	return changeSet.ChainChanges != nil && len(changeSet.ChainChanges.Removed) > 0
}

// SelectedChainChanges is the set of changes made to the selected parent chain.
// Removed is ordered from the old tip downward, Added from the common ancestor upward.
type SelectedChainChanges struct {
	Added   []*DomainHash
	Removed []*DomainHash
}
