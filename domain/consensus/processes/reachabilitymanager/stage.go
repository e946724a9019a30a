package reachabilitymanager

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

func (rt *reachabilityManager) stageData(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, data *model.ReachabilityData) {

	rt.reachabilityDataStore.StageReachabilityData(stagingArea, blockHash, data)
}

func (rt *reachabilityManager) stageReindexRoot(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	rt.reachabilityDataStore.StageReachabilityReindexRoot(stagingArea, blockHash)
}

// update fetches the data of blockHash, lets mutate change it and stages
// the result
func (rt *reachabilityManager) update(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	mutate func(data *model.ReachabilityData)) error {

	data, err := rt.data(stagingArea, blockHash)
	if err != nil {
		return err
	}
	mutate(data)
	rt.stageData(stagingArea, blockHash, data)
	return nil
}

func (rt *reachabilityManager) stageFutureCoveringSet(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash, set model.FutureCoveringTreeNodeSet) error {

	return rt.update(stagingArea, blockHash, func(data *model.ReachabilityData) {
		data.FutureCoveringSet = set
	})
}

func (rt *reachabilityManager) addChildAndStage(stagingArea *model.StagingArea, node, child *externalapi.DomainHash) error {
	return rt.update(stagingArea, node, func(data *model.ReachabilityData) {
		data.TreeNode.Children = append(data.TreeNode.Children, child)
	})
}

func (rt *reachabilityManager) stageParent(stagingArea *model.StagingArea, node, parent *externalapi.DomainHash) error {
	return rt.update(stagingArea, node, func(data *model.ReachabilityData) {
		data.TreeNode.Parent = parent
	})
}

func (rt *reachabilityManager) stageInterval(stagingArea *model.StagingArea,
	node *externalapi.DomainHash, interval *model.ReachabilityInterval) error {

	return rt.update(stagingArea, node, func(data *model.ReachabilityData) {
		data.TreeNode.Interval = interval
	})
}
