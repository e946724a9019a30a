package model

// BlockParentBuilder picks the parents of new blocks
type BlockParentBuilder interface {
	BuildTemplateSkeleton(stagingArea *StagingArea) (*TemplateSkeleton, error)
}
