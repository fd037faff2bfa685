package archive

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// InMemMatchArchive keeps records in a map for tests.
type InMemMatchArchive struct {
	lock sync.Mutex
	recs map[uuid.UUID]Record
}

func NewInMemMatchArchive() *InMemMatchArchive {
	return &InMemMatchArchive{recs: make(map[uuid.UUID]Record)}
}

func (a *InMemMatchArchive) Save(ctx context.Context, rec Record) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.recs[rec.Match.UUID] = rec
	return nil
}

func (a *InMemMatchArchive) Get(ctx context.Context, matchUUID uuid.UUID) (Record, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	rec, ok := a.recs[matchUUID]
	if !ok {
		return Record{}, fmt.Errorf("no archived record for match %s", matchUUID)
	}
	return rec, nil
}
