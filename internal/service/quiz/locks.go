package quiz

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lockCache hands out one mutex per user so session transitions for a user
// run exclusively. The cache is LRU-bounded: an idle user's mutex may be
// evicted and recreated, which is safe because an idle user holds no lock.
type lockCache struct {
	mu    sync.Mutex
	cache *lru.Cache[int64, *sync.Mutex]
}

func newLockCache(size int) (*lockCache, error) {
	cache, err := lru.New[int64, *sync.Mutex](size)
	if err != nil {
		return nil, err
	}
	return &lockCache{cache: cache}, nil
}

// lock acquires the user's mutex and returns the unlock function.
func (c *lockCache) lock(userID int64) func() {
	c.mu.Lock()
	m, ok := c.cache.Get(userID)
	if !ok {
		m = &sync.Mutex{}
		c.cache.Add(userID, m)
	}
	c.mu.Unlock()

	m.Lock()
	return m.Unlock
}
