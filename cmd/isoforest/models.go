package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/serialize"
	"github.com/pbanos/isoforest/store"
	"github.com/pbanos/isoforest/store/redisstore"
	"gopkg.in/redis.v5"
)

// usesStore tells whether forests are referenced by id instead of by path
func (rcc *rootCmdConfig) usesStore() bool {
	return rcc.models != nil || rcc.redisAddr != ""
}

/*
modelStore returns the store forests are kept in when one was given or a redis
server is configured, or nil when they are kept in files.
*/
func (rcc *rootCmdConfig) modelStore() (store.ModelStore, func(), error) {
	if rcc.models != nil {
		return rcc.models, func() {}, nil
	}
	if rcc.redisAddr == "" {
		return nil, func() {}, nil
	}
	rcc.Logf("Connecting to redis at %s...", rcc.redisAddr)
	rc := redis.NewClient(&redis.Options{Addr: rcc.redisAddr})
	if err := rc.Ping().Err(); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", rcc.redisAddr, err)
	}
	ms := redisstore.New(rc, rcc.redisPrefix, serialize.New())
	return ms, func() {
		ms.Close(context.Background())
		rc.Close()
	}, nil
}

/*
loadForest reads a forest from the file at ref, or from the configured store
with ref as id.
*/
func (rcc *rootCmdConfig) loadForest(ctx context.Context, ref string) (*isoforest.Forest, error) {
	ms, closeStore, err := rcc.modelStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()
	if ms != nil {
		rcc.Logf("Loading forest %s from the store...", ref)
		f, err := ms.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("forest %s not found", ref)
		}
		return f, nil
	}
	rcc.Logf("Reading forest from %s...", ref)
	file, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("reading forest from %s: %w", ref, err)
	}
	defer file.Close()
	f, err := serialize.New().Read(file)
	if err != nil {
		return nil, fmt.Errorf("parsing forest from %s: %w", ref, err)
	}
	return f, nil
}

/*
saveForest writes the forest to the file at output, or to the configured
store, printing the id it gets there.
*/
func (rcc *rootCmdConfig) saveForest(ctx context.Context, f *isoforest.Forest, output string) (err error) {
	ms, closeStore, err := rcc.modelStore()
	if err != nil {
		return err
	}
	defer closeStore()
	if ms != nil {
		id, err := ms.Save(ctx, f)
		if err != nil {
			return err
		}
		rcc.Logf("Forest saved with id %s", id)
		fmt.Fprintln(rcc.out, id)
		return nil
	}
	if output == "" {
		return fmt.Errorf("required output flag was not set")
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	defer closeWritten(file, output, &err)
	if err = serialize.New().Write(file, f); err != nil {
		return fmt.Errorf("writing forest to %s: %w", output, err)
	}
	rcc.Logf("Forest written to %s", output)
	return nil
}

func (rcc *rootCmdConfig) requireStore() (store.ModelStore, func(), error) {
	if !rcc.usesStore() {
		return nil, nil, fmt.Errorf("required redis flag was not set")
	}
	return rcc.modelStore()
}
