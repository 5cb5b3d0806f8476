package record

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/kv"
)

func TestMutator_ConcurrentCountersLoseNothing(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewMutator(store, 8)
	defer m.Stop()

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := AddCounter(ctx, m, domain.NamespaceMessageCount, "g-u", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := LoadCounter(ctx, store, domain.NamespaceMessageCount, "g-u")
	require.NoError(t, err)
	assert.Equal(t, int64(workers), n)
}

func TestMutator_ConcurrentPollVotesAllCounted(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewMutator(store, 4)
	defer m.Stop()

	_, err := Update(ctx, m, Polls, "g", func(p *Poll) (Action, error) {
		p.Track("m", []string{"👍"})
		return Put, nil
	})
	require.NoError(t, err)

	const voters = 40
	var wg sync.WaitGroup
	for range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Update(ctx, m, Polls, "g", func(p *Poll) (Action, error) {
				if !p.Increment("m", "👍") {
					return Keep, nil
				}
				return Put, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := Load(ctx, store, Polls, "g")
	require.NoError(t, err)
	assert.Equal(t, voters, p.Count("m", "👍"))
}

func TestMutator_Actions(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewMutator(store, 2)
	defer m.Stop()

	put := func(current []byte, found bool) ([]byte, Action, error) {
		return []byte("v"), Put, nil
	}
	require.NoError(t, m.Mutate(ctx, domain.NamespaceCache, "k", put))
	v, found, _ := store.Get(ctx, domain.NamespaceCache, "k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), v)

	keep := func(current []byte, found bool) ([]byte, Action, error) {
		assert.Equal(t, []byte("v"), current)
		return []byte("ignored"), Keep, nil
	}
	require.NoError(t, m.Mutate(ctx, domain.NamespaceCache, "k", keep))
	v, _, _ = store.Get(ctx, domain.NamespaceCache, "k")
	assert.Equal(t, []byte("v"), v)

	del := func([]byte, bool) ([]byte, Action, error) { return nil, Delete, nil }
	require.NoError(t, m.Mutate(ctx, domain.NamespaceCache, "k", del))
	_, found, _ = store.Get(ctx, domain.NamespaceCache, "k")
	assert.False(t, found)

	require.NoError(t, m.Mutate(ctx, domain.NamespaceCache, "absent", del))
}

func TestMutator_ErrorSkipsWrite(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	m := NewMutator(store, 1)
	defer m.Stop()

	boom := errors.New("boom")
	err := m.Mutate(ctx, domain.NamespaceCache, "k", func([]byte, bool) ([]byte, Action, error) {
		return []byte("v"), Put, boom
	})
	assert.ErrorIs(t, err, boom)
	_, found, _ := store.Get(ctx, domain.NamespaceCache, "k")
	assert.False(t, found)
}

func TestMutator_PanicBecomesError(t *testing.T) {
	m := NewMutator(kv.NewMemory(), 1)
	defer m.Stop()

	err := m.Mutate(context.Background(), domain.NamespaceCache, "k", func([]byte, bool) ([]byte, Action, error) {
		panic("nil map")
	})
	require.Error(t, err)

	// The shard survives.
	err = m.Mutate(context.Background(), domain.NamespaceCache, "k", func([]byte, bool) ([]byte, Action, error) {
		return nil, Keep, nil
	})
	assert.NoError(t, err)
}

func TestMutator_StopRejectsNewCycles(t *testing.T) {
	m := NewMutator(kv.NewMemory(), 2)
	m.Stop()
	m.Stop()

	err := m.Mutate(context.Background(), domain.NamespaceCache, "k", func([]byte, bool) ([]byte, Action, error) {
		return nil, Keep, nil
	})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestMutator_StoreErrorsSurface(t *testing.T) {
	store := kv.NewMemory()
	m := NewMutator(store, 1)
	defer m.Stop()
	require.NoError(t, store.Close())

	called := false
	err := m.Mutate(context.Background(), domain.NamespaceCache, "k", func([]byte, bool) ([]byte, Action, error) {
		called = true
		return nil, Keep, nil
	})
	assert.ErrorIs(t, err, kv.ErrClosed)
	assert.False(t, called)
}

func TestMutator_ShardForIsStable(t *testing.T) {
	m := NewMutator(kv.NewMemory(), 16)
	defer m.Stop()

	a := m.shardFor(domain.NamespacePolls, "guild")
	assert.Equal(t, a, m.shardFor(domain.NamespacePolls, "guild"))
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 16)
}
