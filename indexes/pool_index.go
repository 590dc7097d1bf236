package indexes

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-hclog"
)

const plutusConstrTagBase = 121

// AssetID identifies a native asset by policy and name.
type AssetID struct {
	PolicyID  []byte
	AssetName []byte
}

func (a AssetID) String() string {
	return hex.EncodeToString(a.PolicyID) + "." + hex.EncodeToString(a.AssetName)
}

// PoolState is the decoded liquidity pool datum together with the slot of
// the output that carried it.
type PoolState struct {
	Ident         []byte
	AssetA        AssetID
	AssetB        AssetID
	CirculatingLP *big.Int
	CreatedAtSlot uint64
}

// PoolIndex tracks liquidity pool states announced through inline datums on
// outputs sent to the pool script address. Hash-only datum references are
// skipped since the datum body is not available from the output alone.
type PoolIndex struct {
	lock sync.RWMutex

	scriptAddress string
	pools         map[string]PoolState

	logger hclog.Logger
}

var _ indexer.ManagedIndex = (*PoolIndex)(nil)

func NewPoolIndex(scriptAddress string, logger hclog.Logger) *PoolIndex {
	return &PoolIndex{
		scriptAddress: scriptAddress,
		pools:         map[string]PoolState{},
		logger:        logger,
	}
}

func (pi *PoolIndex) Name() string {
	return "pools"
}

func (pi *PoolIndex) HandleOnchainTx(blockHeader *indexer.BlockHeader, tx *indexer.Tx) error {
	pi.lock.Lock()
	defer pi.lock.Unlock()

	for _, out := range tx.Outputs {
		if out.Address != pi.scriptAddress {
			continue
		}

		if len(out.Datum) == 0 {
			if out.DatumHash != (indexer.Hash{}) {
				pi.logger.Debug("Skipping pool output without inline datum",
					"tx", tx.Hash, "datumHash", out.DatumHash)
			}

			continue
		}

		state, err := decodePoolDatum(out.Datum)
		if err != nil {
			return fmt.Errorf("invalid pool datum in tx %s: %w", tx.Hash, err)
		}

		state.CreatedAtSlot = blockHeader.Slot
		pi.pools[hex.EncodeToString(state.Ident)] = state

		pi.logger.Debug("Pool state updated",
			"ident", hex.EncodeToString(state.Ident), "slot", blockHeader.Slot)
	}

	return nil
}

func (pi *PoolIndex) HandleRollback(point indexer.BlockPoint) error {
	pi.lock.Lock()
	defer pi.lock.Unlock()

	for ident, state := range pi.pools {
		if state.CreatedAtSlot > point.BlockSlot {
			delete(pi.pools, ident)
		}
	}

	pi.logger.Debug("Pools rolled back", "point", point, "remaining", len(pi.pools))

	return nil
}

// Pool returns the current state for the pool with the given hex ident.
func (pi *PoolIndex) Pool(ident string) (PoolState, bool) {
	pi.lock.RLock()
	defer pi.lock.RUnlock()

	state, exists := pi.pools[ident]

	return state, exists
}

// Pools returns a snapshot of all tracked pool states.
func (pi *PoolIndex) Pools() []PoolState {
	pi.lock.RLock()
	defer pi.lock.RUnlock()

	result := make([]PoolState, 0, len(pi.pools))
	for _, state := range pi.pools {
		result = append(result, state)
	}

	return result
}

// decodePoolDatum decodes a plutus-data pool datum of the shape
// Constr 0 [ident, Constr 0 [asset, asset], circulatingLP] where each asset
// is Constr 0 [policyId, assetName].
func decodePoolDatum(raw []byte) (PoolState, error) {
	fields, err := decodeConstr(raw, 0)
	if err != nil {
		return PoolState{}, err
	}

	if len(fields) != 3 {
		return PoolState{}, fmt.Errorf("expected 3 datum fields, got %d", len(fields))
	}

	ident, ok := fields[0].([]byte)
	if !ok {
		return PoolState{}, fmt.Errorf("pool ident is not bytes")
	}

	assetPair, err := decodeConstrValue(fields[1], 0)
	if err != nil {
		return PoolState{}, fmt.Errorf("asset pair: %w", err)
	} else if len(assetPair) != 2 {
		return PoolState{}, fmt.Errorf("expected 2 assets, got %d", len(assetPair))
	}

	assetA, err := decodeAssetID(assetPair[0])
	if err != nil {
		return PoolState{}, fmt.Errorf("asset a: %w", err)
	}

	assetB, err := decodeAssetID(assetPair[1])
	if err != nil {
		return PoolState{}, fmt.Errorf("asset b: %w", err)
	}

	circulatingLP, err := decodeInteger(fields[2])
	if err != nil {
		return PoolState{}, fmt.Errorf("circulating lp: %w", err)
	}

	return PoolState{
		Ident:         ident,
		AssetA:        assetA,
		AssetB:        assetB,
		CirculatingLP: circulatingLP,
	}, nil
}

func decodeAssetID(value interface{}) (AssetID, error) {
	fields, err := decodeConstrValue(value, 0)
	if err != nil {
		return AssetID{}, err
	} else if len(fields) != 2 {
		return AssetID{}, fmt.Errorf("expected 2 asset fields, got %d", len(fields))
	}

	policyID, ok := fields[0].([]byte)
	if !ok {
		return AssetID{}, fmt.Errorf("policy id is not bytes")
	}

	assetName, ok := fields[1].([]byte)
	if !ok {
		return AssetID{}, fmt.Errorf("asset name is not bytes")
	}

	return AssetID{PolicyID: policyID, AssetName: assetName}, nil
}

func decodeConstr(raw []byte, constructor uint64) ([]interface{}, error) {
	var tag cbor.Tag

	if err := cbor.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("not a plutus constructor: %w", err)
	}

	return constrFields(tag, constructor)
}

func decodeConstrValue(value interface{}, constructor uint64) ([]interface{}, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, fmt.Errorf("not a plutus constructor")
	}

	return constrFields(tag, constructor)
}

func constrFields(tag cbor.Tag, constructor uint64) ([]interface{}, error) {
	if tag.Number != plutusConstrTagBase+constructor {
		return nil, fmt.Errorf("unexpected constructor tag %d", tag.Number)
	}

	fields, ok := tag.Content.([]interface{})
	if !ok {
		return nil, fmt.Errorf("constructor content is not a list")
	}

	return fields, nil
}

func decodeInteger(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int64:
		return big.NewInt(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	default:
		return nil, fmt.Errorf("not an integer: %T", value)
	}
}
