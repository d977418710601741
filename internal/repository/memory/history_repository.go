package memory

import (
	"sort"
	"sync"

	"ai-relay-bot/pkg/store"

	"github.com/patrickmn/go-cache"
)

// HistoryRepository owns every session's turn sequence for the lifetime of
// the process. All operations are atomic with respect to each other.
type HistoryRepository struct {
	mu         sync.Mutex
	cache      *cache.Cache
	maxHistory int
}

func NewHistoryRepository() *HistoryRepository {
	return NewHistoryRepositoryWithLimit(store.MaxHistory)
}

func NewHistoryRepositoryWithLimit(maxHistory int) *HistoryRepository {
	if maxHistory <= 0 {
		maxHistory = store.MaxHistory
	}
	// History lives as long as the process: no expiry, no janitor.
	c := cache.New(cache.NoExpiration, 0)
	return &HistoryRepository{
		cache:      c,
		maxHistory: maxHistory,
	}
}

// Append adds turn to the end of the session and evicts the oldest turns
// beyond the limit.
func (r *HistoryRepository) Append(key store.SessionKey, turn store.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	turns := append(r.load(key), turn)
	if over := len(turns) - r.maxHistory; over > 0 {
		turns = append([]store.Turn(nil), turns[over:]...)
	}
	r.cache.Set(string(key), turns, cache.NoExpiration)
}

// Get returns a snapshot of the session's turns. Unknown keys get an empty
// entry created as a side effect.
func (r *HistoryRepository) Get(key store.SessionKey) []store.Turn {
	r.mu.Lock()
	defer r.mu.Unlock()

	turns, found := r.lookup(key)
	if !found {
		r.cache.Set(string(key), []store.Turn{}, cache.NoExpiration)
		return []store.Turn{}
	}
	snapshot := make([]store.Turn, len(turns))
	copy(snapshot, turns)
	return snapshot
}

// Clear empties the session. Clearing an unknown session is a no-op.
func (r *HistoryRepository) Clear(key store.SessionKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.lookup(key); found {
		r.cache.Set(string(key), []store.Turn{}, cache.NoExpiration)
	}
}

func (r *HistoryRepository) Len(key store.SessionKey) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	turns, _ := r.lookup(key)
	return len(turns)
}

// Keys lists the known sessions in lexical order.
func (r *HistoryRepository) Keys() []store.SessionKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cache.Items()
	keys := make([]store.SessionKey, 0, len(items))
	for k := range items {
		keys = append(keys, store.SessionKey(k))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (r *HistoryRepository) lookup(key store.SessionKey) ([]store.Turn, bool) {
	if x, found := r.cache.Get(string(key)); found {
		return x.([]store.Turn), true
	}
	return nil, false
}

// load returns a private copy so appends never alias a slice handed out earlier.
func (r *HistoryRepository) load(key store.SessionKey) []store.Turn {
	turns, _ := r.lookup(key)
	out := make([]store.Turn, len(turns), len(turns)+1)
	copy(out, turns)
	return out
}
