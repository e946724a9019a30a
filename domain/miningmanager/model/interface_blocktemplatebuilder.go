package model

import (
	"github.com/topodag/topod/domain/consensus/model/externalapi"
)

// BlockTemplateBuilder builds block templates for miners to consume
type BlockTemplateBuilder interface {
	BuildBlockTemplate(source TransactionSource, timeInMilliseconds int64) (*externalapi.DomainBlock, error)
}
