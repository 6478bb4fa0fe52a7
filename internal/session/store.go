/*
Package session keeps per-visitor state in memory only: the nutrition
profile, the current meal plan and its ratings. Nothing is persisted;
entries disappear on reset, on LRU eviction or when their TTL expires.
*/
package session

import (
	"sync"
	"time"

	"GearUpToFit/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// State is a value; updates replace it wholesale so readers never observe a
// half-applied change. Plan is replaced on regeneration and on every rating.
type State struct {
	Profile   *models.UserProfile
	Plan      *models.MealPlan
	UpdatedAt time.Time
}

type Store struct {
	mu    sync.Mutex // serializes read-modify-write in Update
	cache *expirable.LRU[string, State]
	now   func() time.Time
}

func NewStore(capacity int, ttl time.Duration) *Store {
	return &Store{
		cache: expirable.NewLRU[string, State](capacity, nil, ttl),
		now:   time.Now,
	}
}

// Get returns the state for id and whether it exists.
func (s *Store) Get(id string) (State, bool) {
	return s.cache.Get(id)
}

// Update applies fn to the current state (zero State if absent) and stores
// the result. If fn fails nothing is written. fn must not block: it runs
// under the store lock, so AI calls belong before Update, not inside it.
func (s *Store) Update(id string, fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _ := s.cache.Get(id)
	next, err := fn(current)
	if err != nil {
		return State{}, err
	}
	next.UpdatedAt = s.now()
	s.cache.Add(id, next)
	return next, nil
}

// Delete discards the state for id.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
