package model

import (
	"math/big"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// TemplateSkeleton is the DAG part of a block template: the parents a new
// block would point at and the GHOSTDAG data it would get
type TemplateSkeleton struct {
	Parents        []*externalapi.DomainHash
	SelectedParent *externalapi.DomainHash
	MergeSetBlues  []*externalapi.DomainHash
	MergeSetReds   []*externalapi.DomainHash
	BlueScore      uint64
	BlueWork       *big.Int
}

// Clone returns a copy of the skeleton whose slices may be modified freely
func (ts *TemplateSkeleton) Clone() *TemplateSkeleton {
	var blueWork *big.Int
	if ts.BlueWork != nil {
		blueWork = new(big.Int).Set(ts.BlueWork)
	}
	return &TemplateSkeleton{
		Parents:        externalapi.CloneHashes(ts.Parents),
		SelectedParent: ts.SelectedParent,
		MergeSetBlues:  externalapi.CloneHashes(ts.MergeSetBlues),
		MergeSetReds:   externalapi.CloneHashes(ts.MergeSetReds),
		BlueScore:      ts.BlueScore,
		BlueWork:       blueWork,
	}
}
