package indexes

import (
	"sync"

	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/hashicorp/go-hclog"
)

// Utxo is one unspent output owned by the tracked address.
type Utxo struct {
	Hash   indexer.Hash
	Index  uint32
	Amount uint64
	Tokens []indexer.TokenAmount
	Slot   uint64
}

// WalletIndex maintains the live utxo set of a single address.
type WalletIndex struct {
	lock sync.RWMutex

	address string
	utxos   map[string]Utxo

	logger hclog.Logger
}

var _ indexer.ManagedIndex = (*WalletIndex)(nil)

func NewWalletIndex(address string, logger hclog.Logger) *WalletIndex {
	return &WalletIndex{
		address: address,
		utxos:   map[string]Utxo{},
		logger:  logger,
	}
}

func (wi *WalletIndex) Name() string {
	return "wallet"
}

func (wi *WalletIndex) HandleOnchainTx(blockHeader *indexer.BlockHeader, tx *indexer.Tx) error {
	wi.lock.Lock()
	defer wi.lock.Unlock()

	for _, inp := range tx.Inputs {
		delete(wi.utxos, string(inp.Key()))
	}

	for i, out := range tx.Outputs {
		if out.Address != wi.address {
			continue
		}

		utxo := Utxo{
			Hash:   tx.Hash,
			Index:  uint32(i), //nolint:gosec
			Amount: out.Amount,
			Tokens: out.Tokens,
			Slot:   blockHeader.Slot,
		}

		wi.utxos[utxoKey(tx.Hash, utxo.Index)] = utxo
	}

	return nil
}

func (wi *WalletIndex) HandleRollback(point indexer.BlockPoint) error {
	wi.lock.Lock()
	defer wi.lock.Unlock()

	for key, utxo := range wi.utxos {
		if utxo.Slot > point.BlockSlot {
			delete(wi.utxos, key)
		}
	}

	wi.logger.Debug("Wallet rolled back", "point", point, "remaining", len(wi.utxos))

	return nil
}

// Utxos returns a snapshot of the current utxo set.
func (wi *WalletIndex) Utxos() []Utxo {
	wi.lock.RLock()
	defer wi.lock.RUnlock()

	result := make([]Utxo, 0, len(wi.utxos))
	for _, utxo := range wi.utxos {
		result = append(result, utxo)
	}

	return result
}

// Balance returns the summed lovelace amount of the utxo set.
func (wi *WalletIndex) Balance() uint64 {
	wi.lock.RLock()
	defer wi.lock.RUnlock()

	var sum uint64
	for _, utxo := range wi.utxos {
		sum += utxo.Amount
	}

	return sum
}

func utxoKey(hash indexer.Hash, index uint32) string {
	return string(indexer.TxInput{Hash: hash, Index: index}.Key())
}
