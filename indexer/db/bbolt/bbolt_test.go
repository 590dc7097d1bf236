package indexerbbolt

import (
	"path/filepath"
	"testing"

	core "github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBoltCursorStore(t *testing.T) {
	t.Parallel()

	store := &BBoltCursorStore{}
	require.NoError(t, store.Init(filepath.Join(t.TempDir(), "cursors.db")))

	defer store.Close()

	loaded, err := store.Load("unknown")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	point := core.BlockPoint{BlockSlot: 100, BlockHash: core.Hash{1, 2}, BlockNumber: 10}
	require.NoError(t, store.Save("wallet", point))

	loaded, err = store.Load("wallet")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, point, *loaded)

	next := core.BlockPoint{BlockSlot: 200, BlockHash: core.Hash{3}, BlockNumber: 20}
	require.NoError(t, store.Save("wallet", next))

	loaded, err = store.Load("wallet")
	require.NoError(t, err)
	assert.Equal(t, next, *loaded)
}

func TestBBoltCursorStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	filePath := filepath.Join(t.TempDir(), "cursors.db")
	point := core.BlockPoint{BlockSlot: 100, BlockHash: core.Hash{1}}

	store := &BBoltCursorStore{}
	require.NoError(t, store.Init(filePath))
	require.NoError(t, store.Save("pools", point))
	require.NoError(t, store.Close())

	reopened := &BBoltCursorStore{}
	require.NoError(t, reopened.Init(filePath))

	defer reopened.Close()

	loaded, err := reopened.Load("pools")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, point, *loaded)
}
