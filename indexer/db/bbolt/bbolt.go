package indexerbbolt

import (
	"encoding/json"
	"fmt"

	core "github.com/Ethernal-Tech/cardano-fanout/indexer"
	"go.etcd.io/bbolt"
)

var cursorsBucket = []byte("Cursors")

// BBoltCursorStore persists one point per index name inside a single bbolt
// bucket. Every Save is a committed write transaction, a crash loses nothing
// already saved.
type BBoltCursorStore struct {
	db *bbolt.DB
}

var _ core.CursorStore = (*BBoltCursorStore)(nil)

func (cs *BBoltCursorStore) Init(filePath string) error {
	db, err := bbolt.Open(filePath, 0600, nil)
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	cs.db = db

	return db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(cursorsBucket); err != nil {
			return fmt.Errorf("could not create bucket: %s, err: %w", string(cursorsBucket), err)
		}

		return nil
	})
}

func (cs *BBoltCursorStore) Close() error {
	return cs.db.Close()
}

func (cs *BBoltCursorStore) Load(name string) (*core.BlockPoint, error) {
	var result *core.BlockPoint

	if err := cs.db.View(func(tx *bbolt.Tx) error {
		if data := tx.Bucket(cursorsBucket).Get([]byte(name)); len(data) > 0 {
			return json.Unmarshal(data, &result)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func (cs *BBoltCursorStore) Save(name string, point core.BlockPoint) error {
	bytes, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("could not marshal cursor: %w", err)
	}

	return cs.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cursorsBucket).Put([]byte(name), bytes)
	})
}
