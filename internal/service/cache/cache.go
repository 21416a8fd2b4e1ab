package cache

import (
	"context"
	"time"
)

// Mirror is an optional shared byte cache consulted after a local stale miss.
type Mirror interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// MirrorKey namespaces a store key for the mirror.
func MirrorKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}
