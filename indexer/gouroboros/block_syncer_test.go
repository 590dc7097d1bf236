package gouroboros

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/blinklabs-io/gouroboros/protocol/chainsync"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

type blockSyncerHandlerMock struct {
	blockPoint     *indexer.BlockPoint
	rollForwardFn  func(indexer.BlockHeader, indexer.BlockTxsRetriever) error
	rollBackwardFn func(indexer.BlockPoint) error
}

func (hMock *blockSyncerHandlerMock) RollBackward(point indexer.BlockPoint) error {
	if hMock.rollBackwardFn != nil {
		return hMock.rollBackwardFn(point)
	}

	return nil
}

func (hMock *blockSyncerHandlerMock) RollForward(
	blockHeader indexer.BlockHeader, txsRetriever indexer.BlockTxsRetriever,
) error {
	if hMock.rollForwardFn != nil {
		return hMock.rollForwardFn(blockHeader, txsRetriever)
	}

	return nil
}

func (hMock *blockSyncerHandlerMock) Reset() (indexer.BlockPoint, error) {
	if hMock.blockPoint == nil {
		return indexer.BlockPoint{}, errors.New("error sync block point")
	}

	return *hMock.blockPoint, nil
}

var _ indexer.BlockSyncerHandler = (*blockSyncerHandlerMock)(nil)

func getTestSyncer() *BlockSyncerImpl {
	return NewBlockSyncer(&BlockSyncerConfig{
		NetworkMagic: 2,
		NodeAddress:  "localhost:3001",
		RestartDelay: time.Millisecond * 10,
	}, &blockSyncerHandlerMock{blockPoint: &indexer.BlockPoint{}}, hclog.NewNullLogger())
}

func TestBlockSyncerConfig_Protocol(t *testing.T) {
	t.Parallel()

	require.Equal(t, ProtocolTCP, (BlockSyncerConfig{NodeAddress: "localhost:3001"}).Protocol())
	require.Equal(t, ProtocolUnix, (BlockSyncerConfig{NodeAddress: "/tmp/node.socket"}).Protocol())
}

func TestNewBlockSyncer(t *testing.T) {
	t.Parallel()

	syncer := NewBlockSyncer(&BlockSyncerConfig{}, &blockSyncerHandlerMock{}, hclog.NewNullLogger())
	require.NotNil(t, syncer)
}

func TestBlockSyncer_CloseWithConnectionNil(t *testing.T) {
	t.Parallel()

	syncer := getTestSyncer()

	require.Nil(t, syncer.Close())
	require.Nil(t, syncer.Close()) // idempotent
}

func TestBlockSyncer_SyncAfterClose(t *testing.T) {
	t.Parallel()

	syncer := getTestSyncer()
	syncer.Close()

	require.NoError(t, syncer.syncExecute())
	require.Nil(t, syncer.connection)

	require.NoError(t, syncer.Sync())
	require.Nil(t, syncer.connection)
}

func TestBlockSyncer_RollForwardCallbackInvalidHeader(t *testing.T) {
	t.Parallel()

	syncer := getTestSyncer()

	defer syncer.Close()

	err := syncer.rollForwardCallback(chainsync.CallbackContext{}, 0, "not a header", chainsync.Tip{})
	require.ErrorIs(t, err, indexer.ErrChainIndexerFatal)
}

func TestBlockSyncer_ErrorHandler(t *testing.T) {
	t.Parallel()

	const good = 0x9689

	t.Run("syncer closed", func(t *testing.T) {
		t.Parallel()

		errCh := make(chan error, 1)
		waitCh := make(chan int, 1)
		syncer := getTestSyncer()
		syncer.config.RestartOnError = true

		go func() {
			syncer.errorHandler(errCh)
			waitCh <- good
		}()

		syncer.Close()

		select {
		case value := <-waitCh:
			require.Equal(t, good, value)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout")
		}
	})

	t.Run("error channel closed", func(t *testing.T) {
		t.Parallel()

		errCh := make(chan error, 1)
		waitCh := make(chan int, 1)
		syncer := getTestSyncer()
		syncer.config.RestartOnError = true

		go func() {
			syncer.errorHandler(errCh)
			waitCh <- good
		}()

		close(errCh)

		select {
		case value := <-waitCh:
			require.Equal(t, good, value)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout")
		}
	})

	t.Run("error non fatal RestartOnError false", func(t *testing.T) {
		t.Parallel()

		wg := sync.WaitGroup{}
		testErr := errors.New("test error")
		errCh := make(chan error, 1)
		isOk := false
		syncer := getTestSyncer()

		wg.Add(2)

		go func() {
			defer wg.Done()

			syncer.errorHandler(errCh)
		}()

		go func() {
			defer wg.Done()

			v := <-syncer.ErrorCh()
			isOk = errors.Is(v, testErr)
		}()

		errCh <- testErr

		wg.Wait()

		require.True(t, isOk)
	})

	t.Run("fatal error is never retried", func(t *testing.T) {
		t.Parallel()

		wg := sync.WaitGroup{}
		errCh := make(chan error, 1)
		isOk := false
		syncer := getTestSyncer()
		syncer.config.RestartOnError = true

		wg.Add(2)

		go func() {
			defer wg.Done()

			syncer.errorHandler(errCh)
		}()

		go func() {
			defer wg.Done()

			v := <-syncer.ErrorCh()
			isOk = v != nil && strings.Contains(v.Error(), indexer.ErrChainIndexerFatal.Error())
		}()

		// crossed the wire, so it only matches by message
		errCh <- errors.New(indexer.ErrChainIndexerFatal.Error() + ": no active indexes registered")

		wg.Wait()

		require.True(t, isOk)
	})

	t.Run("error non fatal RestartOnError true - try sync again", func(t *testing.T) {
		t.Parallel()

		testErr := errors.New("test error")
		wg := sync.WaitGroup{}
		errCh := make(chan error, 1)
		isOk := false
		syncer := getTestSyncer()
		syncer.config.RestartOnError = true
		syncer.config.NodeAddress = "invalid node address"

		wg.Add(2)

		go func() {
			defer wg.Done()

			syncer.errorHandler(errCh)
		}()

		go func() {
			defer wg.Done()

			v := <-syncer.ErrorCh()
			isOk = v != nil && strings.Contains(v.Error(), "missing port")
		}()

		errCh <- testErr

		wg.Wait()

		require.True(t, isOk)
	})

	t.Run("close during re-sync", func(t *testing.T) {
		t.Parallel()

		testErr := errors.New("test error")
		wg := sync.WaitGroup{}
		waitCh := make(chan struct{}, 1)
		errCh := make(chan error, 1)
		syncer := getTestSyncer()
		syncer.config.RestartOnError = true
		syncer.config.RestartDelay = time.Second * 100

		wg.Add(2)

		go func() {
			defer wg.Done()

			syncer.errorHandler(errCh)
		}()

		go func() {
			defer wg.Done()

			time.Sleep(1 * time.Second)

			syncer.Close()
		}()

		go func() {
			<-syncer.ErrorCh()
			waitCh <- struct{}{}
		}()

		errCh <- testErr

		wg.Wait()

		select {
		case <-waitCh:
			t.Fatalf("timeout expected")
		case <-time.After(4 * time.Second):
		}
	})
}
