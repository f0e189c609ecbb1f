package wallet

import (
	"context"
	"sync"
	"time"
)

// lockSet hands out one exclusive section per wallet. Channel-based rather
// than sync.Mutex so acquisition can observe a timeout: a settlement that
// cannot enter the section within the bound fails fast instead of queueing.
type lockSet struct {
	locks sync.Map // user id -> chan struct{} with capacity 1
}

func newLockSet() *lockSet {
	return &lockSet{}
}

// acquire enters the exclusive section for key, waiting at most timeout.
// The returned release function is safe to call more than once.
func (l *lockSet) acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	v, _ := l.locks.LoadOrStore(key, make(chan struct{}, 1))
	ch := v.(chan struct{})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return nil, ErrWalletBusy
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
