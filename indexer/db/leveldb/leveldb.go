package indexerleveldb

import (
	"encoding/json"
	"errors"
	"fmt"

	core "github.com/Ethernal-Tech/cardano-fanout/indexer"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var cursorsBucket = []byte("C1_")

// LevelDBCursorStore persists one point per index name. Writes are synced,
// a crash loses nothing already saved.
type LevelDBCursorStore struct {
	db *leveldb.DB
}

var _ core.CursorStore = (*LevelDBCursorStore)(nil)

func (cs *LevelDBCursorStore) Init(filePath string) error {
	db, err := leveldb.OpenFile(filePath, nil)
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	cs.db = db

	return nil
}

func (cs *LevelDBCursorStore) Close() error {
	return cs.db.Close()
}

func (cs *LevelDBCursorStore) Load(name string) (*core.BlockPoint, error) {
	bytes, err := cs.db.Get(bucketKey(cursorsBucket, []byte(name)), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var result *core.BlockPoint

	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (cs *LevelDBCursorStore) Save(name string, point core.BlockPoint) error {
	bytes, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("could not marshal cursor: %w", err)
	}

	return cs.db.Put(bucketKey(cursorsBucket, []byte(name)), bytes, &opt.WriteOptions{
		Sync: true,
	})
}

func bucketKey(bucket []byte, key []byte) []byte {
	const separator = "_#_"

	outputKey := make([]byte, len(bucket)+len(separator)+len(key))
	copy(outputKey, bucket)
	copy(outputKey[len(bucket):], []byte(separator))
	copy(outputKey[len(bucket)+len(separator):], key)

	return outputKey
}
