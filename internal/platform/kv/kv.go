// Package kv provides the durable key-value storage used to mirror the supplier list.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes every pair in a single round trip; backends apply it atomically.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Prefixed namespaces every key of an underlying store.
type Prefixed struct {
	Store  Store
	Prefix string
}

func (p Prefixed) key(k string) string {
	if p.Prefix == "" {
		return k
	}
	return p.Prefix + ":" + k
}

// Get implements Store.
func (p Prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.Store.Get(ctx, p.key(key))
}

// Set implements Store.
func (p Prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.key(key), value)
}

// SetMany implements Store.
func (p Prefixed) SetMany(ctx context.Context, values map[string]string) error {
	prefixed := make(map[string]string, len(values))
	for k, v := range values {
		prefixed[p.key(k)] = v
	}
	return p.Store.SetMany(ctx, prefixed)
}

// Delete implements Store.
func (p Prefixed) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = p.key(k)
	}
	return p.Store.Delete(ctx, prefixed...)
}
