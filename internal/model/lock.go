package model

import "context"

// Locker serializes work on a key across concurrent callers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
