package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	CursorSlotSet("pools", 150)
	assert.Equal(t, float64(150), testutil.ToFloat64(cursorSlot.WithLabelValues("pools")))

	CursorSlotSet("pools", 200)
	assert.Equal(t, float64(200), testutil.ToFloat64(cursorSlot.WithLabelValues("pools")))

	BlocksAppliedInc("pools")
	BlocksAppliedInc("pools")
	assert.Equal(t, float64(2), testutil.ToFloat64(blocksApplied.WithLabelValues("pools")))

	TxsAppliedAdd("pools", 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(txsApplied.WithLabelValues("pools")))

	RollbacksInc("pools")
	assert.Equal(t, float64(1), testutil.ToFloat64(rollbacks.WithLabelValues("pools")))

	HaltedIndexesSet(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(haltedIndexes))

	HaltedIndexesSet(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(haltedIndexes))
}

func TestServer_StartClose(t *testing.T) {
	t.Parallel()

	server := NewServer("localhost:0", hclog.NewNullLogger())
	assert.Equal(t, "metrics", server.Name())

	doneCh := make(chan error, 1)

	go func() {
		doneCh <- server.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, server.Close())

	select {
	case err := <-doneCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
