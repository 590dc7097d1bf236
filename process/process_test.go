package process

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testService struct {
	name     string
	startErr error
	blocking bool

	closeCh     chan struct{}
	closedCount int32
}

func newTestService(name string, startErr error, blocking bool) *testService {
	return &testService{
		name:     name,
		startErr: startErr,
		blocking: blocking,
		closeCh:  make(chan struct{}),
	}
}

func (s *testService) Name() string {
	return s.name
}

func (s *testService) Start(ctx context.Context) error {
	if !s.blocking {
		return s.startErr
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.closeCh:
		return nil
	}
}

func (s *testService) Close() error {
	if atomic.AddInt32(&s.closedCount, 1) == 1 {
		close(s.closeCh)
	}

	return nil
}

func (s *testService) closed() bool {
	return atomic.LoadInt32(&s.closedCount) > 0
}

func TestProcess_RunAllSucceed(t *testing.T) {
	t.Parallel()

	runtime := New(hclog.NewNullLogger())
	a := newTestService("a", nil, false)
	b := newTestService("b", nil, false)

	runtime.Register(a)
	runtime.Register(b)

	require.NoError(t, runtime.Run(context.Background()))
}

func TestProcess_FirstFailureStopsTheRest(t *testing.T) {
	t.Parallel()

	startErr := errors.New("listen: address in use")

	runtime := New(hclog.NewNullLogger())
	failing := newTestService("failing", startErr, false)
	blocking := newTestService("blocking", nil, true)

	runtime.Register(failing)
	runtime.Register(blocking)

	err := runtime.Run(context.Background())
	require.ErrorIs(t, err, startErr)
	assert.ErrorContains(t, err, "service failing")

	// the blocking service was closed as part of shutdown
	assert.True(t, blocking.closed())
}

func TestProcess_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	runtime := New(hclog.NewNullLogger())
	blocking := newTestService("blocking", nil, true)
	runtime.Register(blocking)

	ctx, cancel := context.WithCancel(context.Background())

	doneCh := make(chan error, 1)

	go func() {
		doneCh <- runtime.Run(ctx)
	}()

	cancel()

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("process did not stop on cancellation")
	}

	assert.True(t, blocking.closed())
}
