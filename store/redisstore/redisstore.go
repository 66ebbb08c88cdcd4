/*
Package redisstore implements a store.ModelStore backed by a redis DB, where
every forest is kept serialized under the key <prefix>:<id>.
*/
package redisstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pbanos/isoforest"
	"github.com/pbanos/isoforest/store"
	"gopkg.in/redis.v5"
)

/*
ForestEncodeDecoder is an interface for objects
that allow encoding forests into slices of
bytes and decoding them back to forests.
serialize.Serializer implements it.
*/
type ForestEncodeDecoder interface {

	//Marshal receives a *isoforest.Forest
	// and returns a slice of bytes with the forest
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Marshal(*isoforest.Forest) ([]byte, error)

	//Unmarshal receives a slice of bytes
	//and returns a *isoforest.Forest decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Unmarshal([]byte) (*isoforest.Forest, error)
}

type redisStore struct {
	rc      *redis.Client
	prefix  string
	fencdec ForestEncodeDecoder
}

//New builds a store.ModelStore backed by a redis DB
func New(rc *redis.Client, prefix string, fencdec ForestEncodeDecoder) store.ModelStore {
	return &redisStore{rc, prefix, fencdec}
}

func (rs *redisStore) Save(ctx context.Context, f *isoforest.Forest) (string, error) {
	data, err := rs.fencdec.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("saving forest: encoding forest: %w", err)
	}
	var ok bool
	var id string
	for !ok {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		id = store.NewID()
		ok, err = rs.rc.SetNX(rs.keyFor(id), data, 0).Result()
		if err != nil {
			return "", fmt.Errorf("saving forest in redis: %w", err)
		}
	}
	return id, nil
}

func (rs *redisStore) Load(ctx context.Context, id string) (*isoforest.Forest, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	data, err := rs.rc.Get(rs.keyFor(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving forest %q: %w", id, err)
	}
	f, err := rs.fencdec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("retrieving forest %q: decoding %d bytes: %w", id, len(data), err)
	}
	return f, nil
}

func (rs *redisStore) Delete(ctx context.Context, id string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	redisID := rs.keyFor(id)
	_, err := rs.rc.Del(redisID).Result()
	if err != nil {
		return fmt.Errorf("deleting forest %q from redis: %w", redisID, err)
	}
	return nil
}

func (rs *redisStore) List(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	keys, err := rs.rc.Keys(rs.keyFor("*")).Result()
	if err != nil {
		return nil, fmt.Errorf("listing forests in redis: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := rs.idFor(k); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return nil
}

func (rs *redisStore) keyFor(id string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, id)
}

func (rs *redisStore) idFor(key string) string {
	return strings.TrimPrefix(key, rs.prefix+":")
}
