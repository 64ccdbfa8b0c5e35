// Package kv is the string key-value persistence used by the catalog.
package kv

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("kv store closed")

type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove is a no-op for absent keys.
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Prefixed scopes every key of an underlying store under "ns/", so several
// catalogs can share one backend.
type Prefixed struct {
	Store
	ns string
}

func WithNamespace(s Store, ns string) Store {
	if ns == "" {
		return s
	}
	return &Prefixed{Store: s, ns: ns + "/"}
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.Store.Get(ctx, p.ns+key)
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.ns+key, value)
}

func (p *Prefixed) Remove(ctx context.Context, key string) error {
	return p.Store.Remove(ctx, p.ns+key)
}
