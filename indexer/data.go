package indexer

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/protocol/common"
)

const HashSize = 32

type Hash [HashSize]byte

func NewHashFromHexString(hash string) Hash {
	v, _ := hex.DecodeString(hash)

	return NewHashFromBytes(v)
}

func NewHashFromBytes(hash []byte) Hash {
	if len(hash) != HashSize {
		result := Hash{}
		size := min(HashSize, len(hash))

		copy(result[HashSize-size:], hash[:size])

		return result
	}

	return Hash(hash)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// BlockPoint is a position on the chain. The zero value is the origin.
type BlockPoint struct {
	BlockSlot   uint64 `json:"slot"`
	BlockHash   Hash   `json:"hash"`
	BlockNumber uint64 `json:"num"`
}

func (bp BlockPoint) IsOrigin() bool {
	return bp.BlockSlot == 0 && bp.BlockHash == Hash{}
}

// Compare orders points along the chain: origin before everything else,
// otherwise by slot. Two points at the same slot are equal only if their
// hashes match; distinct hashes at the same slot belong to different forks
// and are ordered by raw hash bytes to keep the result deterministic.
func (bp BlockPoint) Compare(other BlockPoint) int {
	switch {
	case bp.IsOrigin() && other.IsOrigin():
		return 0
	case bp.IsOrigin():
		return -1
	case other.IsOrigin():
		return 1
	case bp.BlockSlot != other.BlockSlot:
		if bp.BlockSlot < other.BlockSlot {
			return -1
		}

		return 1
	default:
		return bytes.Compare(bp.BlockHash[:], other.BlockHash[:])
	}
}

func (bp BlockPoint) Equal(other BlockPoint) bool {
	return bp.BlockSlot == other.BlockSlot && bp.BlockHash == other.BlockHash
}

func (bp BlockPoint) ToCommonPoint() common.Point {
	if bp.IsOrigin() {
		return common.NewPointOrigin() // from genesis
	}

	return common.NewPoint(bp.BlockSlot, bp.BlockHash[:])
}

func (bp BlockPoint) String() string {
	return fmt.Sprintf("slot = %d, hash = %s, num = %d", bp.BlockSlot, bp.BlockHash, bp.BlockNumber)
}

type BlockHeader struct {
	Slot    uint64 `json:"slot"`
	Hash    Hash   `json:"hash"`
	Number  uint64 `json:"num"`
	EraID   uint8  `json:"era"`
	EraName string `json:"-"`
}

func (bh BlockHeader) Point() BlockPoint {
	return BlockPoint{
		BlockSlot:   bh.Slot,
		BlockHash:   bh.Hash,
		BlockNumber: bh.Number,
	}
}

func (bh BlockHeader) String() string {
	return fmt.Sprintf("slot = %d, hash = %s, num = %d", bh.Slot, bh.Hash, bh.Number)
}

type Tx struct {
	Indx      uint32      `json:"ind"`
	Hash      Hash        `json:"hash"`
	Metadata  []byte      `json:"metadata,omitempty"`
	Inputs    []*TxInput  `json:"inp"`
	Outputs   []*TxOutput `json:"out"`
	Fee       uint64      `json:"fee"`
	BlockSlot uint64      `json:"slot"`
	BlockHash Hash        `json:"bhash"`
	Valid     bool        `json:"valid"`
}

// TxInput references a previously produced output.
type TxInput struct {
	Hash  Hash   `json:"id"`
	Index uint32 `json:"ind"`
}

type TxOutput struct {
	Slot    uint64        `json:"slot"`
	Address string        `json:"addr"`
	Amount  uint64        `json:"amount"`
	Tokens  []TokenAmount `json:"tokens,omitempty"`
	// Datum holds the raw inline datum cbor if the output carries one.
	// DatumHash is set when the output references its datum by hash instead.
	// The engine does not interpret either, that is each index's concern.
	Datum     []byte `json:"datum,omitempty"`
	DatumHash Hash   `json:"datumHash,omitempty"`
}

type TokenAmount struct {
	PolicyID string `json:"policyId"`
	Name     string `json:"name"`
	Amount   uint64 `json:"amount"`
}

func (ti TxInput) Key() []byte {
	return []byte(fmt.Sprintf("%s_%d", ti.Hash, ti.Index))
}

func (ti TxInput) String() string {
	return fmt.Sprintf("%s:%d", ti.Hash, ti.Index)
}

func (tx Tx) String() string {
	return fmt.Sprintf("hash = %s, slot = %d, inputs = %d, outputs = %d",
		tx.Hash, tx.BlockSlot, len(tx.Inputs), len(tx.Outputs))
}

// SlotNumberToKey converts a slot number to a big endian byte array of size 8
func SlotNumberToKey(slotNumber uint64) []byte {
	result := make([]byte, 8)
	binary.BigEndian.PutUint64(result, slotNumber)

	return result
}
