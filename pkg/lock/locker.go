// Package lock serializes advisor turns per conversation.
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout means another holder kept the key longer than the wait budget.
var ErrLockTimeout = errors.New("lock: timed out waiting for in-flight turn")

// Locker queues callers on the same key; different keys never block each other.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
