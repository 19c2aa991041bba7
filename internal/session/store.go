// Package session keeps generation sessions in a bounded in-memory store.
package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Desire-2/Afritech-Bridge-lms-sub003/internal/logging"
	"github.com/Desire-2/Afritech-Bridge-lms-sub003/pkg/models"
)

// Defaults for the store.
const (
	DefaultCapacity = 100
	DefaultTTL      = 24 * time.Hour
)

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets the maximum number of sessions held.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithTTL sets how long a session survives without updates.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store holds sessions keyed by ID. Sessions are copied on the way in and out,
// so callers never share memory with the store.
//
// Recency is the last Create or Update; reads do not refresh it. When full, the
// store drops expired sessions first and otherwise the least recently updated one.
type Store struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	cache    *lru.Cache[string, *models.Session]
}

// NewStore creates a store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	cache, err := lru.NewWithEvict[string, *models.Session](s.capacity, func(id string, _ *models.Session) {
		logging.Debugf("[session] dropped %s", id)
	})
	if err != nil {
		// Only returned for a non-positive size, which the options rule out.
		panic(err)
	}
	s.cache = cache
	return s
}

// Create builds a session for tasks, stores it and returns a copy.
func (s *Store) Create(ctx models.LessonContext, depth models.DepthLevel, tasks []*models.Task) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := models.NewSession(uuid.New().String(), ctx, depth, tasks, s.now())
	s.makeRoomLocked()
	s.cache.Add(sess.ID, sess.Clone())
	return sess
}

// Get returns a copy of the session, or nil when it is absent or expired.
func (s *Store) Get(id string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Peek(id)
	if !ok {
		return nil
	}
	if s.expiredLocked(sess) {
		s.cache.Remove(id)
		return nil
	}
	return sess.Clone()
}

// Update stores a copy of sess and marks it as recently updated.
// Updating an unknown session re-inserts it.
func (s *Store) Update(sess *models.Session) {
	if sess == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := sess.Clone()
	c.UpdatedAt = s.now()
	if !s.cache.Contains(c.ID) {
		s.makeRoomLocked()
	}
	s.cache.Add(c.ID, c)
}

// Remove deletes a session. It reports whether the session was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Remove(id)
}

// Len returns the number of sessions held, including expired ones not yet dropped.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// List returns copies of live sessions, least recently updated first.
func (s *Store) List() []*models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Session
	for _, sess := range s.cache.Values() {
		if !s.expiredLocked(sess) {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// makeRoomLocked frees a slot when the store is full. Expired sessions go first;
// if there are none the LRU drops its oldest entry on the next Add.
func (s *Store) makeRoomLocked() {
	if s.cache.Len() < s.capacity {
		return
	}
	removed := 0
	for _, id := range s.cache.Keys() {
		if sess, ok := s.cache.Peek(id); ok && s.expiredLocked(sess) {
			s.cache.Remove(id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[session] dropped %d expired sessions", removed)
	}
}

func (s *Store) expiredLocked(sess *models.Session) bool {
	return s.now().Sub(sess.UpdatedAt) > s.ttl
}
