package indexes

import (
	"testing"

	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walletAddr = "addr1vxrmu3m2cc5k6xltupj86a2uzcuq8r4nhznrhfq0pkwl4hgqj2v8w"

func TestWalletIndex_HandleOnchainTx(t *testing.T) {
	t.Parallel()

	wi := NewWalletIndex(walletAddr, hclog.NewNullLogger())
	assert.Equal(t, "wallet", wi.Name())

	fundingTx := &indexer.Tx{
		Hash: indexer.Hash{1},
		Outputs: []*indexer.TxOutput{
			{Address: walletAddr, Amount: 1_000_000},
			{Address: "addr1_other", Amount: 500},
			{Address: walletAddr, Amount: 2_000_000},
		},
	}

	require.NoError(t, wi.HandleOnchainTx(&indexer.BlockHeader{Slot: 100}, fundingTx))

	assert.Len(t, wi.Utxos(), 2)
	assert.Equal(t, uint64(3_000_000), wi.Balance())

	// spend the first output, add a change output
	spendingTx := &indexer.Tx{
		Hash: indexer.Hash{2},
		Inputs: []*indexer.TxInput{
			{Hash: indexer.Hash{1}, Index: 0},
		},
		Outputs: []*indexer.TxOutput{
			{Address: "addr1_other", Amount: 600_000},
			{Address: walletAddr, Amount: 350_000},
		},
	}

	require.NoError(t, wi.HandleOnchainTx(&indexer.BlockHeader{Slot: 110}, spendingTx))

	assert.Len(t, wi.Utxos(), 2)
	assert.Equal(t, uint64(2_350_000), wi.Balance())
}

func TestWalletIndex_IgnoresForeignSpends(t *testing.T) {
	t.Parallel()

	wi := NewWalletIndex(walletAddr, hclog.NewNullLogger())

	require.NoError(t, wi.HandleOnchainTx(&indexer.BlockHeader{Slot: 100}, &indexer.Tx{
		Hash:    indexer.Hash{1},
		Outputs: []*indexer.TxOutput{{Address: walletAddr, Amount: 100}},
	}))

	// spends an output this wallet never owned
	require.NoError(t, wi.HandleOnchainTx(&indexer.BlockHeader{Slot: 110}, &indexer.Tx{
		Hash:   indexer.Hash{2},
		Inputs: []*indexer.TxInput{{Hash: indexer.Hash{77}, Index: 3}},
	}))

	assert.Equal(t, uint64(100), wi.Balance())
}

func TestWalletIndex_HandleRollback(t *testing.T) {
	t.Parallel()

	wi := NewWalletIndex(walletAddr, hclog.NewNullLogger())

	for i, slot := range []uint64{100, 200, 300} {
		require.NoError(t, wi.HandleOnchainTx(&indexer.BlockHeader{Slot: slot}, &indexer.Tx{
			Hash:    indexer.Hash{byte(i + 1)},
			Outputs: []*indexer.TxOutput{{Address: walletAddr, Amount: uint64(i+1) * 100}},
		}))
	}

	require.Equal(t, uint64(600), wi.Balance())

	// drops utxos created after the target slot
	require.NoError(t, wi.HandleRollback(indexer.BlockPoint{BlockSlot: 200}))

	assert.Len(t, wi.Utxos(), 2)
	assert.Equal(t, uint64(300), wi.Balance())

	require.NoError(t, wi.HandleRollback(indexer.BlockPoint{}))
	assert.Empty(t, wi.Utxos())
	assert.Zero(t, wi.Balance())
}
