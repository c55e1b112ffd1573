package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes access to one session across several storyloom replicas
// (for example two HTTP servers sharing a redis store).
type DistributedLocker interface {
	// Lock blocks until the lock for key is held, ctx is done, or the implementation gives up.
	// The lock expires on its own after ttl so a crashed holder cannot wedge a session.
	// The returned UnlockFunc MUST be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
