package ghostdagmanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

func (gm *ghostdagManager) findSelectedParent(stagingArea *model.StagingArea,
	parentHashes []*externalapi.DomainHash) (*externalapi.DomainHash, error) {

	return gm.ChooseSelectedParent(stagingArea, parentHashes...)
}

// ChooseSelectedParent returns the block with the highest blue work among
// blockHashes. Equal blue work is broken in favor of the lowest hash.
func (gm *ghostdagManager) ChooseSelectedParent(stagingArea *model.StagingArea,
	blockHashes ...*externalapi.DomainHash) (*externalapi.DomainHash, error) {

	selectedParent := blockHashes[0]
	selectedParentGHOSTDAGData, err := gm.ghostdagData(stagingArea, selectedParent)
	if err != nil {
		return nil, err
	}
	for _, blockHash := range blockHashes[1:] {
		blockGHOSTDAGData, err := gm.ghostdagData(stagingArea, blockHash)
		if err != nil {
			return nil, err
		}

		if gm.Less(selectedParent, selectedParentGHOSTDAGData, blockHash, blockGHOSTDAGData) {
			selectedParent = blockHash
			selectedParentGHOSTDAGData = blockGHOSTDAGData
		}
	}

	return selectedParent, nil
}

// Less returns whether block A is a worse selected parent candidate than
// block B. It is a strict total order: blue work decides, and on equal blue
// work the block with the lower hash is the better candidate.
func (gm *ghostdagManager) Less(blockHashA *externalapi.DomainHash, ghostdagDataA *model.BlockGHOSTDAGData,
	blockHashB *externalapi.DomainHash, ghostdagDataB *model.BlockGHOSTDAGData) bool {

	switch ghostdagDataA.BlueWork().Cmp(ghostdagDataB.BlueWork()) {
	case -1:
		return true
	case 1:
		return false
	}
	return blockHashB.Less(blockHashA)
}
