package memory

import (
	"fmt"
	"sync"
	"testing"

	"ai-relay-bot/pkg/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userTurn(i int) store.Turn {
	return store.Turn{Role: store.RoleUser, Content: fmt.Sprintf("msg-%d", i)}
}

func TestHistoryRepository_AppendAndGet(t *testing.T) {
	repo := NewHistoryRepository()
	key := store.ChannelSessionKey("42")

	repo.Append(key, store.Turn{Role: store.RoleUser, Content: "hi"})
	repo.Append(key, store.Turn{Role: store.RoleAssistant, Content: "hello"})

	want := []store.Turn{
		{Role: store.RoleUser, Content: "hi"},
		{Role: store.RoleAssistant, Content: "hello"},
	}
	if diff := cmp.Diff(want, repo.Get(key)); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryRepository_EvictsOldestFirst(t *testing.T) {
	repo := NewHistoryRepository()
	key := store.DirectSessionKey("7")

	for i := 0; i < 120; i++ {
		repo.Append(key, userTurn(i))
		require.LessOrEqual(t, repo.Len(key), store.MaxHistory)
	}

	turns := repo.Get(key)
	require.Len(t, turns, store.MaxHistory)
	assert.Equal(t, "msg-70", turns[0].Content)
	assert.Equal(t, "msg-119", turns[len(turns)-1].Content)
}

func TestHistoryRepository_GetUnknownKeyCreatesEntry(t *testing.T) {
	repo := NewHistoryRepository()
	key := store.SessionKey("channel_new")

	assert.Empty(t, repo.Get(key))
	assert.Contains(t, repo.Keys(), key)
}

func TestHistoryRepository_SnapshotIsIsolated(t *testing.T) {
	repo := NewHistoryRepository()
	key := store.SessionKey("channel_1")
	repo.Append(key, userTurn(1))

	snapshot := repo.Get(key)
	snapshot[0].Content = "mutated"
	repo.Append(key, userTurn(2))

	turns := repo.Get(key)
	assert.Equal(t, "msg-1", turns[0].Content)
	assert.Len(t, snapshot, 1)
}

func TestHistoryRepository_Clear(t *testing.T) {
	repo := NewHistoryRepository()
	key := store.SessionKey("channel_1")
	other := store.SessionKey("channel_2")

	repo.Clear(key) // no history yet
	repo.Append(key, userTurn(1))
	repo.Append(other, userTurn(2))
	repo.Clear(key)

	assert.Empty(t, repo.Get(key))
	assert.Equal(t, 1, repo.Len(other))

	repo.Append(key, userTurn(3))
	assert.Equal(t, []store.Turn{userTurn(3)}, repo.Get(key))
}

func TestHistoryRepository_ConcurrentAppends(t *testing.T) {
	repo := NewHistoryRepositoryWithLimit(1000)
	key := store.SessionKey("channel_busy")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				repo.Append(key, userTurn(w*100+i))
				_ = repo.Get(key)
			}
		}(w)
	}
	wg.Wait()

	turns := repo.Get(key)
	require.Len(t, turns, 400)

	seen := make(map[string]bool, len(turns))
	for _, turn := range turns {
		assert.False(t, seen[turn.Content], "duplicated turn %s", turn.Content)
		seen[turn.Content] = true
	}
}
