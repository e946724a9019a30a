package serialization

import (
	"github.com/topodag/topod/domain/consensus/model"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

const (
	reachabilityFieldTreeNode          = 1
	reachabilityFieldFutureCoveringSet = 2

	treeNodeFieldChildren = 1
	treeNodeFieldParent   = 2
	treeNodeFieldInterval = 3

	intervalFieldStart = 1
	intervalFieldEnd   = 2
)

// SerializeReachabilityData encodes reachability data for storage
func SerializeReachabilityData(data *model.ReachabilityData) []byte {
	e := &messageEncoder{}
	e.message(reachabilityFieldTreeNode, func(e *messageEncoder) {
		encodeHashes(e, treeNodeFieldChildren, data.TreeNode.Children)
		if data.TreeNode.Parent != nil {
			e.bytes(treeNodeFieldParent, data.TreeNode.Parent.ByteSlice())
		}
		e.message(treeNodeFieldInterval, func(e *messageEncoder) {
			e.uint(intervalFieldStart, data.TreeNode.Interval.Start)
			e.uint(intervalFieldEnd, data.TreeNode.Interval.End)
		})
	})
	encodeHashes(e, reachabilityFieldFutureCoveringSet, data.FutureCoveringSet)
	return e.buf
}

// DeserializeReachabilityData decodes data written by SerializeReachabilityData
func DeserializeReachabilityData(b []byte) (*model.ReachabilityData, error) {
	data := &model.ReachabilityData{
		FutureCoveringSet: make(model.FutureCoveringTreeNodeSet, 0),
	}
	err := decodeMessage(b, func(f *field) error {
		var err error
		switch f.num {
		case reachabilityFieldTreeNode:
			data.TreeNode, err = decodeReachabilityTreeNode(f)
		case reachabilityFieldFutureCoveringSet:
			var hash *externalapi.DomainHash
			if hash, err = f.hash(); err == nil {
				data.FutureCoveringSet = append(data.FutureCoveringSet, hash)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if data.TreeNode == nil {
		return nil, errorf("reachability data is missing its tree node")
	}
	return data, nil
}

func decodeReachabilityTreeNode(f *field) (*model.ReachabilityTreeNode, error) {
	err := f.expectBytes()
	if err != nil {
		return nil, err
	}
	node := &model.ReachabilityTreeNode{
		Children: make([]*externalapi.DomainHash, 0),
		Interval: &model.ReachabilityInterval{},
	}
	err = decodeMessage(f.data, func(f *field) error {
		var err error
		switch f.num {
		case treeNodeFieldChildren:
			var child *externalapi.DomainHash
			if child, err = f.hash(); err == nil {
				node.Children = append(node.Children, child)
			}
		case treeNodeFieldParent:
			node.Parent, err = f.hash()
		case treeNodeFieldInterval:
			node.Interval, err = decodeReachabilityInterval(f)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func decodeReachabilityInterval(f *field) (*model.ReachabilityInterval, error) {
	err := f.expectBytes()
	if err != nil {
		return nil, err
	}
	interval := &model.ReachabilityInterval{}
	err = decodeMessage(f.data, func(f *field) error {
		err := f.expectVarint()
		if err != nil {
			return err
		}
		switch f.num {
		case intervalFieldStart:
			interval.Start = f.value
		case intervalFieldEnd:
			interval.End = f.value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return interval, nil
}
