package indexer

import "sync"

// InMemoryCursorStore keeps cursors in memory only. Meant for tests and
// ephemeral runs where replaying from the start point is acceptable.
type InMemoryCursorStore struct {
	lock    sync.RWMutex
	cursors map[string]BlockPoint
}

var _ CursorStore = (*InMemoryCursorStore)(nil)

func NewInMemoryCursorStore() *InMemoryCursorStore {
	return &InMemoryCursorStore{
		cursors: map[string]BlockPoint{},
	}
}

func (cs *InMemoryCursorStore) Load(name string) (*BlockPoint, error) {
	cs.lock.RLock()
	defer cs.lock.RUnlock()

	point, exists := cs.cursors[name]
	if !exists {
		return nil, nil
	}

	return &point, nil
}

func (cs *InMemoryCursorStore) Save(name string, point BlockPoint) error {
	cs.lock.Lock()
	defer cs.lock.Unlock()

	cs.cursors[name] = point

	return nil
}
