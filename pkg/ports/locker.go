package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock taken by Locker.Lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises event processing for one session across engine replicas.
// The in-process lock in session.Manager still applies; this one spans processes.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx ends. The lock expires after ttl if the
	// holder dies without unlocking, so ttl must exceed the longest event drain.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
