package db

import (
	"fmt"

	"github.com/Ethernal-Tech/cardano-fanout/indexer"
	indexerbbolt "github.com/Ethernal-Tech/cardano-fanout/indexer/db/bbolt"
	indexerleveldb "github.com/Ethernal-Tech/cardano-fanout/indexer/db/leveldb"
)

// CursorStore is a durable cursor store that owns a database handle.
type CursorStore interface {
	indexer.CursorStore
	Init(filePath string) error
	Close() error
}

// NewCursorStore creates and initializes a cursor store of the requested
// type. An empty name defaults to bbolt.
func NewCursorStore(name string, filePath string) (CursorStore, error) {
	var store CursorStore

	switch name {
	case "", "bbolt":
		store = &indexerbbolt.BBoltCursorStore{}
	case "leveldb":
		store = &indexerleveldb.LevelDBCursorStore{}
	default:
		return nil, fmt.Errorf("unknown cursor store type: %s", name)
	}

	if err := store.Init(filePath); err != nil {
		return nil, err
	}

	return store, nil
}
