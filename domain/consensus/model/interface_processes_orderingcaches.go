package model

import "github.com/topodag/topod/domain/consensus/model/externalapi"

// OrderingCaches memoizes results derived from the block order. Caches never
// change observable results: a hit returns what recomputation would.
type OrderingCaches interface {
	BlueSet(blockHash *externalapi.DomainHash) (*BlockGHOSTDAGData, bool)
	AddBlueSet(blockHash *externalapi.DomainHash, ghostdagData *BlockGHOSTDAGData)

	TipComparison(blockHashA, blockHashB *externalapi.DomainHash) (aIsLess bool, ok bool)
	AddTipComparison(blockHashA, blockHashB *externalapi.DomainHash, aIsLess bool)

	Template(tips []*externalapi.DomainHash) (*TemplateSkeleton, bool)
	AddTemplate(tips []*externalapi.DomainHash, skeleton *TemplateSkeleton)

	InvalidateBlocks(blockHashes []*externalapi.DomainHash)
	InvalidateTemplates()
	Purge()
}
