package gouroboros

import (
	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/blinklabs-io/gouroboros/protocol/common"
	"github.com/hashicorp/go-hclog"
)

// BlockTxsRetrieverImpl fetches block bodies over the block-fetch
// mini-protocol of an existing node-to-node connection.
type BlockTxsRetrieverImpl struct {
	connection *ouroboros.Connection
	logger     hclog.Logger
}

var _ indexer.BlockTxsRetriever = (*BlockTxsRetrieverImpl)(nil)

func (br *BlockTxsRetrieverImpl) GetBlockTransactions(blockHeader indexer.BlockHeader) ([]*indexer.Tx, error) {
	br.logger.Debug("Get block transactions", "slot", blockHeader.Slot, "hash", blockHeader.Hash)

	block, err := br.connection.BlockFetch().Client.GetBlock(
		common.NewPoint(blockHeader.Slot, blockHeader.Hash[:]),
	)
	if err != nil {
		return nil, err
	}

	ledgerTxs := block.Transactions()
	txs := make([]*indexer.Tx, len(ledgerTxs))

	for i, ledgerTx := range ledgerTxs {
		txs[i] = createTx(&blockHeader, ledgerTx, uint32(i)) //nolint:gosec
	}

	return txs, nil
}
