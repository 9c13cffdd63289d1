// Package storage provides key-value persistence backends for the
// Spektr stores. Values are JSON documents under string keys; each
// operation is atomic with respect to a single key and no operation
// spans multiple keys.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// KV is the adapter over a synchronous string-keyed store.
type KV interface {
	// Get returns the raw value under key, or (nil, nil) when the
	// key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ReadJSON loads the JSON value under key into dst. An absent or
// malformed value leaves dst at its zero value and returns nil, so
// callers always start from a usable default instead of failing on
// corrupted state.
func ReadJSON(ctx context.Context, kv KV, key string, dst any) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil
	}
	// Corrupted records heal to the zero value.
	_ = json.Unmarshal(raw, dst)
	return nil
}

// WriteJSON marshals v and stores it under key.
func WriteJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
