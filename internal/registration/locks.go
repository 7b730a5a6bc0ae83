package registration

import "sync"

// activityLocks hands out one mutex per activity so that every
// count-then-write admission decision for the same activity is
// serialized. Locks are never released back; the set of activities a
// single process touches is small.
type activityLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newActivityLocks() *activityLocks {
	return &activityLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *activityLocks) get(activityID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[activityID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[activityID] = m
	}
	return m
}
