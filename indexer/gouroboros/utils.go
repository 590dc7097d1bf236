package gouroboros

import (
	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/blinklabs-io/gouroboros/ledger"
	"github.com/blinklabs-io/gouroboros/ledger/common"
)

func createTx(blockHeader *indexer.BlockHeader, ledgerTx ledger.Transaction, indx uint32) *indexer.Tx {
	tx := &indexer.Tx{
		Indx:      indx,
		Hash:      indexer.NewHashFromHexString(ledgerTx.Hash()),
		Fee:       ledgerTx.Fee(),
		BlockSlot: blockHeader.Slot,
		BlockHash: blockHeader.Hash,
		Valid:     ledgerTx.IsValid(),
	}

	if metadata := ledgerTx.Metadata(); metadata != nil {
		tx.Metadata = metadata.Cbor()
	}

	if inputs := ledgerTx.Inputs(); len(inputs) > 0 {
		tx.Inputs = make([]*indexer.TxInput, len(inputs))

		for j, inp := range inputs {
			tx.Inputs[j] = &indexer.TxInput{
				Hash:  indexer.Hash(inp.Id()),
				Index: inp.Index(),
			}
		}
	}

	if outputs := ledgerTx.Outputs(); len(outputs) > 0 {
		tx.Outputs = make([]*indexer.TxOutput, len(outputs))
		for j, out := range outputs {
			tx.Outputs[j] = createTxOutput(blockHeader.Slot, out)
		}
	}

	return tx
}

func createTxOutput(slot uint64, txOut common.TransactionOutput) *indexer.TxOutput {
	var tokens []indexer.TokenAmount

	if assets := txOut.Assets(); assets != nil {
		policies := assets.Policies()
		tokens = make([]indexer.TokenAmount, 0, len(policies))

		for _, policyIDRaw := range policies {
			policyID := policyIDRaw.String()

			for _, asset := range assets.Assets(policyIDRaw) {
				tokens = append(tokens, indexer.TokenAmount{
					PolicyID: policyID,
					Name:     string(asset),
					Amount:   assets.Asset(policyIDRaw, asset),
				})
			}
		}
	}

	var (
		datum     []byte
		datumHash indexer.Hash
	)

	if tmp := txOut.Datum(); tmp != nil {
		datum = tmp.Cbor()
	}

	if tmp := txOut.DatumHash(); tmp != nil {
		datumHash = indexer.Hash(tmp.Bytes())
	}

	return &indexer.TxOutput{
		Slot:      slot,
		Address:   txOut.Address().String(),
		Amount:    txOut.Amount(),
		Tokens:    tokens,
		Datum:     datum,
		DatumHash: datumHash,
	}
}
