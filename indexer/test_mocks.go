package indexer

import (
	"github.com/stretchr/testify/mock"
)

type ManagedIndexMock struct {
	mock.Mock
	NameVal          string
	HandleOnchainFn  func(blockHeader *BlockHeader, tx *Tx) error
	HandleRollbackFn func(point BlockPoint) error
}

// Name implements ManagedIndex.
func (m *ManagedIndexMock) Name() string {
	return m.NameVal
}

// HandleOnchainTx implements ManagedIndex.
func (m *ManagedIndexMock) HandleOnchainTx(blockHeader *BlockHeader, tx *Tx) error {
	args := m.Called(blockHeader, tx)

	if m.HandleOnchainFn != nil {
		return m.HandleOnchainFn(blockHeader, tx)
	}

	return args.Error(0)
}

// HandleRollback implements ManagedIndex.
func (m *ManagedIndexMock) HandleRollback(point BlockPoint) error {
	args := m.Called(point)

	if m.HandleRollbackFn != nil {
		return m.HandleRollbackFn(point)
	}

	return args.Error(0)
}

var _ ManagedIndex = (*ManagedIndexMock)(nil)

type CursorStoreMock struct {
	mock.Mock
	LoadFn func(name string) (*BlockPoint, error)
	SaveFn func(name string, point BlockPoint) error
}

// Load implements CursorStore.
func (m *CursorStoreMock) Load(name string) (*BlockPoint, error) {
	args := m.Called(name)

	if m.LoadFn != nil {
		return m.LoadFn(name)
	}

	return args.Get(0).(*BlockPoint), args.Error(1) //nolint:forcetypeassert
}

// Save implements CursorStore.
func (m *CursorStoreMock) Save(name string, point BlockPoint) error {
	args := m.Called(name, point)

	if m.SaveFn != nil {
		return m.SaveFn(name, point)
	}

	return args.Error(0)
}

var _ CursorStore = (*CursorStoreMock)(nil)

type BlockTxsRetrieverMock struct {
	mock.Mock
	RetrieveFn func(blockHeader BlockHeader) ([]*Tx, error)
}

// GetBlockTransactions implements BlockTxsRetriever.
func (m *BlockTxsRetrieverMock) GetBlockTransactions(blockHeader BlockHeader) ([]*Tx, error) {
	args := m.Called(blockHeader)

	if m.RetrieveFn != nil {
		return m.RetrieveFn(blockHeader)
	}

	return args.Get(0).([]*Tx), args.Error(1) //nolint:forcetypeassert
}

var _ BlockTxsRetriever = (*BlockTxsRetrieverMock)(nil)

type BlockSyncerMock struct {
	mock.Mock
	CloseFn    func() error
	SyncFn     func() error
	ErrorChVal chan error
}

// Sync implements BlockSyncer.
func (m *BlockSyncerMock) Sync() error {
	args := m.Called()

	if m.SyncFn != nil {
		return m.SyncFn()
	}

	return args.Error(0)
}

// Close implements BlockSyncer.
func (m *BlockSyncerMock) Close() error {
	args := m.Called()

	if m.CloseFn != nil {
		return m.CloseFn()
	}

	return args.Error(0)
}

// ErrorCh implements BlockSyncer.
func (m *BlockSyncerMock) ErrorCh() <-chan error {
	if m.ErrorChVal != nil {
		return m.ErrorChVal
	}

	return make(<-chan error)
}

var _ BlockSyncer = (*BlockSyncerMock)(nil)
