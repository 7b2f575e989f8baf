package ports

import "context"

// Contract for mutual exclusion on named resources across requests.
type Locker interface {
	// Acquire all keys or none. The returned release func must be called once.
	// Implementations return domain.ErrResourceBusy when ctx ends first.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}
