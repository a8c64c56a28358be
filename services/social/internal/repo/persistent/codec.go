package persistent

import (
	"context"
	"encoding/json"
	"fmt"

	"chronofeed/pkg/kv"
)

var ErrNotFound = kv.ErrNotFound

func getJSON[T any](ctx context.Context, store kv.Store, key string) (*T, error) {
	b, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

// mgetJSON returns one entry per key. Absent or undecodable records are nil.
func mgetJSON[T any](ctx context.Context, store kv.Store, keys []string) ([]*T, error) {
	raw, err := store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	out := make([]*T, len(keys))
	for i, b := range raw {
		if b == nil {
			continue
		}
		var v T
		if json.Unmarshal(b, &v) == nil {
			out[i] = &v
		}
	}
	return out, nil
}

func marshal(v interface{}) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}

func setJSON(ctx context.Context, store kv.Store, key string, v interface{}) error {
	b, err := marshal(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, b)
}

func scoreOf(ms int64) float64 {
	return float64(ms)
}
