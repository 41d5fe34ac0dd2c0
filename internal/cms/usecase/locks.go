package usecase

import (
	"sort"
	"sync"

	"studio-cms/internal/cms/domain/model"
)

// collectionLocks serializes read-modify-write per collection within this
// process. Other processes sharing a backend are not coordinated.
type collectionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCollectionLocks() *collectionLocks {
	return &collectionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *collectionLocks) get(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	return m
}

// lock acquires the named collection locks in a fixed order and returns the
// matching unlock.
func (l *collectionLocks) lock(names ...string) func() {
	ordered := append([]string(nil), names...)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := lockRank(ordered[i]), lockRank(ordered[j])
		if ri != rj {
			return ri < rj
		}
		return ordered[i] < ordered[j]
	})

	held := make([]*sync.Mutex, 0, len(ordered))
	seen := make(map[string]bool, len(ordered))
	for _, name := range ordered {
		if seen[name] {
			continue
		}
		seen[name] = true
		m := l.get(name)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func lockRank(name string) int {
	for i, c := range model.Collections {
		if c == name {
			return i
		}
	}
	return len(model.Collections)
}
