package program

import (
	"sync"

	"github.com/joshuapare/slabkit/pkg/types"
)

// keyedMutex serializes invocations per address. Entries are dropped when
// their last holder unlocks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[types.Key]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key types.Key) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[types.Key]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// held returns the number of addresses with a holder or waiter.
func (k *keyedMutex) held() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
