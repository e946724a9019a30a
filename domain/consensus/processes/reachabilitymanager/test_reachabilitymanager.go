package reachabilitymanager

import "github.com/topodag/topod/domain/consensus/model"

type testReachabilityManager struct {
	*reachabilityManager
}

func (t testReachabilityManager) SetReachabilityReindexWindow(reindexWindow uint64) {
	t.reachabilityManager.reindexWindow = reindexWindow
}

func (t testReachabilityManager) SetReachabilityReindexSlack(reindexSlack uint64) {
	t.reachabilityManager.reindexSlack = reindexSlack
}

// ReindexedNodeCount returns how many intervals were replaced after their
// first allocation since the manager was created
func (t testReachabilityManager) ReindexedNodeCount() uint64 {
	return t.reachabilityManager.reindexedNodes
}

// NewTestReachabilityManager wraps a manager returned by New
func NewTestReachabilityManager(manager model.ReachabilityManager) model.TestReachabilityManager {
	return &testReachabilityManager{reachabilityManager: manager.(*reachabilityManager)}
}
