package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	infracommon "github.com/Ethernal-Tech/cardano-fanout/common"
	"github.com/Ethernal-Tech/cardano-fanout/metrics"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultCursorSaveRetries   = 1
	defaultCursorSaveRetryWait = time.Millisecond * 100
)

type ChainIndexerConfig struct {
	// CursorSaveRetries bounds the immediate save attempts after a cursor
	// moves. Saving is idempotent so retrying is always safe. A save that
	// still fails is retried again at the next event boundary.
	CursorSaveRetries   int           `json:"cursorSaveRetries"`
	CursorSaveRetryWait time.Duration `json:"cursorSaveRetryWait"`
}

// IndexStatus is a read only snapshot of one registered index.
type IndexStatus struct {
	Name    string
	Cursor  BlockPoint
	Halted  bool
	Failure error
}

type registeredIndex struct {
	index  ManagedIndex
	cursor BlockPoint
	halted bool
	// failure and failedAt keep the first failure inspectable for the
	// lifetime of the run
	failure  error
	failedAt BlockPoint
	// saved is the last cursor known to be persisted, nil if the last save
	// attempt failed. Saves are retried at the next event boundary, replaying
	// the unsaved suffix after a crash is safe because dispatch skips
	// everything at or below the cursor.
	saved *BlockPoint
}

// ChainIndexer fans a single upstream stream of chain events out to all
// registered managed indexes. It tracks one cursor per index, requests the
// stream from the minimum cursor over active indexes, dispatches every event
// to exactly the indexes whose cursor requires it and persists cursors as
// they move. A handler failure halts only the failing index.
type ChainIndexer struct {
	config      *ChainIndexerConfig
	cursorStore CursorStore
	indexes     []*registeredIndex
	byName      map[string]*registeredIndex

	mutex  sync.Mutex
	logger hclog.Logger
}

var _ BlockSyncerHandler = (*ChainIndexer)(nil)

func NewChainIndexer(config *ChainIndexerConfig, cursorStore CursorStore, logger hclog.Logger) *ChainIndexer {
	if config == nil {
		config = &ChainIndexerConfig{}
	}

	if config.CursorSaveRetries <= 0 {
		config.CursorSaveRetries = defaultCursorSaveRetries
	}

	if config.CursorSaveRetryWait <= 0 {
		config.CursorSaveRetryWait = defaultCursorSaveRetryWait
	}

	return &ChainIndexer{
		config:      config,
		cursorStore: cursorStore,
		byName:      map[string]*registeredIndex{},
		logger:      logger,
	}
}

// AddIndex registers a managed index. With resumeFromStore a persisted cursor
// takes precedence over startPoint; without it startPoint is used
// unconditionally and persisted right away, so a later run that does resume
// continues from actual progress instead of an older cursor.
func (ci *ChainIndexer) AddIndex(index ManagedIndex, startPoint BlockPoint, resumeFromStore bool) error {
	ci.mutex.Lock()
	defer ci.mutex.Unlock()

	name := index.Name()
	if _, exists := ci.byName[name]; exists {
		return fmt.Errorf("index already registered: %s", name)
	}

	ri := &registeredIndex{
		index:  index,
		cursor: startPoint,
	}

	if resumeFromStore {
		stored, err := ci.cursorStore.Load(name)
		if err != nil {
			return fmt.Errorf("failed to load cursor for %s: %w", name, err)
		}

		if stored != nil {
			ri.cursor = *stored
			ri.saved = stored
		}
	} else if err := ci.cursorStore.Save(name, ri.cursor); err != nil {
		ci.logger.Warn("Failed to persist start cursor", "index", name, "cursor", ri.cursor, "err", err)
	} else {
		cursor := ri.cursor
		ri.saved = &cursor
	}

	ci.indexes = append(ci.indexes, ri)
	ci.byName[name] = ri

	metrics.CursorSlotSet(name, ri.cursor.BlockSlot)

	ci.logger.Info("Index registered", "index", name, "cursor", ri.cursor, "resume", resumeFromStore)

	return nil
}

// Reset returns the point to request from upstream: the minimum cursor over
// active indexes. Halted indexes are excluded so a failed index never drags
// the stream position back for the others.
func (ci *ChainIndexer) Reset() (BlockPoint, error) {
	ci.mutex.Lock()
	defer ci.mutex.Unlock()

	var minPoint *BlockPoint

	for _, ri := range ci.indexes {
		if ri.halted {
			continue
		}

		if minPoint == nil || ri.cursor.Compare(*minPoint) < 0 {
			cursor := ri.cursor
			minPoint = &cursor
		}
	}

	if minPoint == nil {
		return BlockPoint{}, errors.Join(ErrChainIndexerFatal, errors.New("no active indexes registered"))
	}

	ci.logger.Debug("Reset", "point", *minPoint)

	return *minPoint, nil
}

// RollForward dispatches one applied block. Transactions are fetched at most
// once per block and only when at least one active index is positioned below
// the block. Indexes whose cursor is already at or past the block are skipped.
func (ci *ChainIndexer) RollForward(blockHeader BlockHeader, txsRetriever BlockTxsRetriever) error {
	ci.mutex.Lock()
	defer ci.mutex.Unlock()

	ci.retryPendingSaves()

	var (
		point = blockHeader.Point()
		txs   []*Tx
	)

	txsFetched := false

	for _, ri := range ci.indexes {
		if ri.halted || ri.cursor.Compare(point) >= 0 {
			continue
		}

		if !txsFetched {
			var err error

			txs, err = txsRetriever.GetBlockTransactions(blockHeader)
			if err != nil {
				// upstream failure, not a handler failure. The syncer decides
				// whether to reconnect or give up.
				return fmt.Errorf("failed to retrieve txs for (%d, %s): %w",
					blockHeader.Slot, blockHeader.Hash, err)
			}

			txsFetched = true
		}

		if err := ci.applyBlockTxs(ri, &blockHeader, txs); err != nil {
			ci.halt(ri, point, err)

			continue
		}

		ri.cursor = point
		ci.saveCursor(ri)

		metrics.CursorSlotSet(ri.index.Name(), point.BlockSlot)
		metrics.BlocksAppliedInc(ri.index.Name())
		metrics.TxsAppliedAdd(ri.index.Name(), len(txs))
	}

	return nil
}

// RollBackward dispatches a chain reorganization. Every index positioned past
// the new tip, halted ones included, must discard state above it. A rollback
// handler failure is fatal for that index, its projection can no longer be
// trusted to match the chain.
func (ci *ChainIndexer) RollBackward(point BlockPoint) error {
	ci.mutex.Lock()
	defer ci.mutex.Unlock()

	ci.retryPendingSaves()

	for _, ri := range ci.indexes {
		if ri.cursor.Compare(point) <= 0 {
			continue
		}

		if err := ri.index.HandleRollback(point); err != nil {
			ci.halt(ri, point, fmt.Errorf("rollback failed: %w", err))

			continue
		}

		ri.cursor = point
		ci.saveCursor(ri)

		metrics.CursorSlotSet(ri.index.Name(), point.BlockSlot)
		metrics.RollbacksInc(ri.index.Name())

		ci.logger.Info("Index rolled back", "index", ri.index.Name(), "point", point)
	}

	return nil
}

// Status returns a snapshot of all registered indexes in registration order.
func (ci *ChainIndexer) Status() []IndexStatus {
	ci.mutex.Lock()
	defer ci.mutex.Unlock()

	result := make([]IndexStatus, len(ci.indexes))
	for i, ri := range ci.indexes {
		result[i] = IndexStatus{
			Name:    ri.index.Name(),
			Cursor:  ri.cursor,
			Halted:  ri.halted,
			Failure: ri.failure,
		}
	}

	return result
}

func (ci *ChainIndexer) applyBlockTxs(ri *registeredIndex, blockHeader *BlockHeader, txs []*Tx) error {
	for _, tx := range txs {
		if err := ri.index.HandleOnchainTx(blockHeader, tx); err != nil {
			return fmt.Errorf("tx %s: %w", tx.Hash, err)
		}
	}

	return nil
}

// halt freezes the index at its last successful cursor and excludes it from
// future dispatch. The first failure is kept for inspection, a later rollback
// failure on an already halted index is only logged.
func (ci *ChainIndexer) halt(ri *registeredIndex, point BlockPoint, err error) {
	name := ri.index.Name()

	if ri.halted {
		ci.logger.Error("Halted index failed again", "index", name, "point", point, "err", err)

		return
	}

	ri.halted = true
	ri.failure = err
	ri.failedAt = point

	metrics.HaltedIndexesSet(ci.countHalted())

	ci.logger.Error("Index halted", "index", name, "cursor", ri.cursor, "point", point, "err", err)
}

func (ci *ChainIndexer) saveCursor(ri *registeredIndex) {
	name := ri.index.Name()

	_, err := infracommon.ExecuteWithRetry(context.Background(),
		func(_ context.Context) (struct{}, error) {
			return struct{}{}, ci.cursorStore.Save(name, ri.cursor)
		},
		infracommon.WithRetryCount(ci.config.CursorSaveRetries),
		infracommon.WithRetryWaitTime(ci.config.CursorSaveRetryWait),
		infracommon.WithIsRetryableError(func(error) bool { return true }),
		infracommon.WithLogger(ci.logger))
	if err != nil {
		ri.saved = nil

		ci.logger.Warn("Failed to persist cursor", "index", name, "cursor", ri.cursor, "err", err)

		return
	}

	cursor := ri.cursor
	ri.saved = &cursor
}

// retryPendingSaves re-attempts cursor saves that failed earlier. Saving is
// idempotent, so retrying at every event boundary is safe.
func (ci *ChainIndexer) retryPendingSaves() {
	for _, ri := range ci.indexes {
		if ri.saved == nil || !ri.saved.Equal(ri.cursor) {
			ci.saveCursor(ri)
		}
	}
}

func (ci *ChainIndexer) countHalted() (cnt int) {
	for _, ri := range ci.indexes {
		if ri.halted {
			cnt++
		}
	}

	return cnt
}
