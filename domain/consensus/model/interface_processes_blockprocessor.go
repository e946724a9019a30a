package model

import (
	"context"

	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// BlockProcessor is responsible for processing incoming blocks
type BlockProcessor interface {
	ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error)
}
