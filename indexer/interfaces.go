package indexer

import "errors"

// ErrChainIndexerFatal marks errors the engine cannot recover from by
// reconnecting. They terminate the run and surface through the process runtime.
var ErrChainIndexerFatal = errors.New("chain indexer fatal error")

// ManagedIndex is the contract every registered consumer implements.
// The engine guarantees a tx is never redelivered at or below the index's
// cursor during a run, but cursor persistence is best effort, so both
// handlers should stay idempotent with respect to redelivery after a restart.
type ManagedIndex interface {
	// Name is a stable unique identifier, used for cursor persistence and logging.
	Name() string
	// HandleOnchainTx applies one transaction of a block. Transactions of a
	// block arrive in block order. An error halts this index only.
	HandleOnchainTx(blockHeader *BlockHeader, tx *Tx) error
	// HandleRollback discards all state attributed to slots after the given
	// point, the new tip of the chain.
	HandleRollback(point BlockPoint) error
}

// CursorStore persists the last committed point per index name.
// Load returns nil when no cursor has been persisted for the name.
type CursorStore interface {
	Load(name string) (*BlockPoint, error)
	Save(name string, point BlockPoint) error
}

type BlockTxsRetriever interface {
	GetBlockTransactions(blockHeader BlockHeader) ([]*Tx, error)
}

type BlockSyncer interface {
	Sync() error
	Close() error
	ErrorCh() <-chan error
}

type BlockSyncerHandler interface {
	RollBackward(point BlockPoint) error
	RollForward(blockHeader BlockHeader, txsRetriever BlockTxsRetriever) error
	Reset() (BlockPoint, error)
}
