// Package lock serialises read-modify-write operations on a single survey
// session or evaluation. Keys are entity scoped; callers must release the
// lock with the returned unlock function.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a lock could not be acquired within the wait budget.
var ErrTimeout = errors.New("lock: timed out waiting for entity lock")

// Locker acquires a lock on key, blocking until it is held, ctx is done or
// the implementation's wait budget runs out.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
