package ledger

import (
	"context"
	"sync"

	"github.com/qlsach-lab/catalog-ledger/internal/core/partition"
)

// keyLocks serializes writers per record key. Keys are spread over
// partition.Count shards; each shard keeps ref-counted per-key locks that
// are dropped once no goroutine holds or waits on them.
type keyLocks struct {
	shards [partition.Count]lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	k := &keyLocks{}
	for i := range k.shards {
		k.shards[i].locks = make(map[string]*keyLock)
	}
	return k
}

// lock blocks until key is held or ctx is done. The returned func releases it.
func (k *keyLocks) lock(ctx context.Context, key string) (func(), error) {
	shard := &k.shards[partition.For(key)]

	shard.mu.Lock()
	l, ok := shard.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		shard.locks[key] = l
	}
	l.refs++
	shard.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			shard.release(key, l)
		}, nil
	case <-ctx.Done():
		shard.release(key, l)
		return nil, ctx.Err()
	}
}

func (s *lockShard) release(key string, l *keyLock) {
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
	s.mu.Unlock()
}

// held returns the number of keys with an active lock entry. Tests only.
func (k *keyLocks) held() int {
	n := 0
	for i := range k.shards {
		k.shards[i].mu.Lock()
		n += len(k.shards[i].locks)
		k.shards[i].mu.Unlock()
	}
	return n
}
