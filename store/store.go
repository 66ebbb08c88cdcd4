/*
Package store keeps grown forests under generated ids so they can be scored
with, merged or exported later.
*/
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/failure"
)

/*
ModelStore is an interface to manage a store
where forests can be saved, retrieved, listed
and deleted.

All it methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type ModelStore interface {
	// Save takes a forest and stores it, generating
	// and returning a new id for it. It returns an
	// error if the forest cannot be stored.
	Save(ctx context.Context, f *isoforest.Forest) (string, error)
	// Load takes an id and returns the forest in the
	// store with that id (or nil if it cannot be
	// found) or an error if the store cannot be
	// queried
	Load(ctx context.Context, id string) (*isoforest.Forest, error)
	// Delete removes the forest with the given id from
	// the store. Deleting an id that is not in the store
	// is not an error.
	Delete(ctx context.Context, id string) error
	// List returns the ids of the forests in the store
	// in lexicographical order.
	List(ctx context.Context) ([]string, error)
	// Close closes the store, implementations should
	// free any resources in use before returning
	// (unless the context expires). It returns an error
	// if the Close cannot be completed.
	Close(ctx context.Context) error
}

// NewID returns a new random id for a forest
func NewID() string {
	return uuid.New().String()
}

type memoryStore struct {
	forests map[string]*isoforest.Forest
	lock    *sync.RWMutex
}

// NewMemoryStore returns an implementation
// of ModelStore with the process memory space
// as underlying backend. Forests are copied in
// and out, so callers may modify them freely.
func NewMemoryStore() ModelStore {
	return &memoryStore{
		forests: make(map[string]*isoforest.Forest),
		lock:    &sync.RWMutex{},
	}
}

func (ms *memoryStore) Save(ctx context.Context, f *isoforest.Forest) (string, error) {
	if f == nil {
		return "", failure.Errorf(failure.InvalidInput, "saving forest: no forest given")
	}
	c := f.Clone()
	var id string
	err := ms.withLock(ctx, func(ctx context.Context) error {
		taken := true
		for taken {
			if err := ctx.Err(); err != nil {
				return err
			}
			id = NewID()
			_, taken = ms.forests[id]
		}
		ms.forests[id] = c
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (ms *memoryStore) Load(ctx context.Context, id string) (*isoforest.Forest, error) {
	var f *isoforest.Forest
	err := ms.withRLock(ctx, func(ctx context.Context) error {
		f = ms.forests[id]
		return nil
	})
	if err != nil || f == nil {
		return nil, err
	}
	return f.Clone(), nil
}

func (ms *memoryStore) Delete(ctx context.Context, id string) error {
	return ms.withLock(ctx, func(ctx context.Context) error {
		delete(ms.forests, id)
		return nil
	})
}

func (ms *memoryStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := ms.withRLock(ctx, func(ctx context.Context) error {
		ids = make([]string, 0, len(ms.forests))
		for id := range ms.forests {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (ms *memoryStore) Close(ctx context.Context) error {
	return nil
}

func (ms *memoryStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		ms.lock.Lock()
		select {
		case <-ctx.Done():
			ms.lock.Unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.Unlock()
	}
	return f(ctx)
}

func (ms *memoryStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		ms.lock.RLock()
		select {
		case <-ctx.Done():
			ms.lock.RUnlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer ms.lock.RUnlock()
	}
	return f(ctx)
}
