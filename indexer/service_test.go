package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncerService_StartFailsWhenSyncFails(t *testing.T) {
	t.Parallel()

	syncErr := errors.New("node unreachable")

	syncerMock := &BlockSyncerMock{}
	syncerMock.On("Sync").Return(syncErr).Once()

	service := NewSyncerService("chain-sync", syncerMock, hclog.NewNullLogger())
	assert.Equal(t, "chain-sync", service.Name())

	require.ErrorIs(t, service.Start(context.Background()), syncErr)
	syncerMock.AssertExpectations(t)
}

func TestSyncerService_StartReturnsSyncerError(t *testing.T) {
	t.Parallel()

	fatalErr := errors.New("fatal stream error")

	syncerMock := &BlockSyncerMock{
		ErrorChVal: make(chan error, 1),
	}
	syncerMock.On("Sync").Return(error(nil)).Once()
	syncerMock.ErrorChVal <- fatalErr

	service := NewSyncerService("chain-sync", syncerMock, hclog.NewNullLogger())

	require.ErrorIs(t, service.Start(context.Background()), fatalErr)
	syncerMock.AssertExpectations(t)
}

func TestSyncerService_StartStopsOnCancel(t *testing.T) {
	t.Parallel()

	syncerMock := &BlockSyncerMock{}
	syncerMock.On("Sync").Return(error(nil)).Once()

	service := NewSyncerService("chain-sync", syncerMock, hclog.NewNullLogger())

	ctx, cancel := context.WithCancel(context.Background())

	doneCh := make(chan error, 1)

	go func() {
		doneCh <- service.Start(ctx)
	}()

	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("service did not stop on cancellation")
	}
}

func TestSyncerService_Close(t *testing.T) {
	t.Parallel()

	syncerMock := &BlockSyncerMock{}
	syncerMock.On("Close").Return(error(nil)).Once()

	service := NewSyncerService("chain-sync", syncerMock, hclog.NewNullLogger())

	require.NoError(t, service.Close())
	syncerMock.AssertExpectations(t)
}
