package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCursorStore(t *testing.T) {
	t.Parallel()

	store := NewInMemoryCursorStore()

	loaded, err := store.Load("unknown")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	point := BlockPoint{BlockSlot: 100, BlockHash: Hash{1}}
	require.NoError(t, store.Save("wallet", point))

	loaded, err = store.Load("wallet")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, point, *loaded)

	// overwrite
	next := BlockPoint{BlockSlot: 200, BlockHash: Hash{2}}
	require.NoError(t, store.Save("wallet", next))

	loaded, err = store.Load("wallet")
	require.NoError(t, err)
	assert.Equal(t, next, *loaded)

	// names are independent
	loaded, err = store.Load("pools")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
