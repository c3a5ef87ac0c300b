package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker provides cross-instance concurrency control. It lets the
// session manager serialize advances for the same conversation across
// multiple replicas, on top of its in-process per-conversation mutex.
type DistributedLocker interface {
	// Lock acquires a distributed lock for the given key (the conversation
	// ID). It blocks until the lock is acquired or the context is canceled.
	// The returned UnlockFunc MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
