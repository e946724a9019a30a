package blocktemplatebuilder

import (
	"github.com/topodag/topod/domain/consensus"
	"github.com/topodag/topod/domain/consensus/model/externalapi"
	"github.com/topodag/topod/domain/consensus/utils/consensushashing"
	"github.com/topodag/topod/domain/miningmanager/model"
	"github.com/topodag/topod/infrastructure/logger"
	"go.uber.org/atomic"
)

// blockTemplateBuilder creates block templates for a miner to consume
type blockTemplateBuilder struct {
	consensus            consensus.Consensus
	blockBits            uint32
	maxBlockTransactions int

	nonce atomic.Uint64
}

// New creates a new blockTemplateBuilder
func New(consensus consensus.Consensus, blockBits uint32, maxBlockTransactions int) model.BlockTemplateBuilder {
	return &blockTemplateBuilder{
		consensus:            consensus,
		blockBits:            blockBits,
		maxBlockTransactions: maxBlockTransactions,
	}
}

// BuildBlockTemplate creates a block over the current tips holding the
// transactions of source, in source order, up to the block transaction
// limit. Transactions repeated in source are included once.
//
// The template's time is timeInMilliseconds, raised to its selected
// parent's time when it is earlier. Every template gets a distinct nonce.
func (btb *blockTemplateBuilder) BuildBlockTemplate(source model.TransactionSource,
	timeInMilliseconds int64) (*externalapi.DomainBlock, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildBlockTemplate")
	defer onEnd()

	skeleton, err := btb.consensus.BuildBlockTemplateSkeleton()
	if err != nil {
		return nil, err
	}
	selectedParentHeader, err := btb.consensus.GetBlockHeader(skeleton.SelectedParent)
	if err != nil {
		return nil, err
	}
	if timeInMilliseconds < selectedParentHeader.TimeInMilliseconds {
		timeInMilliseconds = selectedParentHeader.TimeInMilliseconds
	}

	transactions := btb.selectTransactions(source.Transactions())

	header := &externalapi.DomainBlockHeader{
		Version:            0,
		Parents:            skeleton.Parents,
		TransactionsRoot:   consensushashing.TransactionsRoot(transactions),
		TimeInMilliseconds: timeInMilliseconds,
		Bits:               btb.blockBits,
		Nonce:              btb.nonce.Inc(),
	}
	log.Debugf("Built a block template with %d parents and %d transactions, blue score %d",
		len(header.Parents), len(transactions), skeleton.BlueScore)

	return &externalapi.DomainBlock{
		Header:       header,
		Transactions: transactions,
	}, nil
}

func (btb *blockTemplateBuilder) selectTransactions(
	candidates []*externalapi.DomainTransaction) []*externalapi.DomainTransaction {

	selected := make([]*externalapi.DomainTransaction, 0, len(candidates))
	included := make(map[externalapi.DomainTransactionID]struct{}, len(candidates))
	for _, candidate := range candidates {
		if len(selected) == btb.maxBlockTransactions {
			break
		}
		transactionID := consensushashing.TransactionID(candidate)
		if _, ok := included[*transactionID]; ok {
			continue
		}
		included[*transactionID] = struct{}{}
		selected = append(selected, candidate.Clone())
	}
	return selected
}
