package regions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
)

type session struct {
	id       string
	ctrl     *cascade.Controller
	lastSeen time.Time
}

// store keeps session controllers in memory. Entries idle for longer than ttl
// are evicted on access.
type store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]*session
}

func newStore(ttl time.Duration, now func() time.Time) *store {
	return &store{
		ttl:   ttl,
		now:   now,
		items: make(map[string]*session),
	}
}

func (s *store) get(id string) (*session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// create allocates a session id, builds its controller and stores it. Nothing
// is stored when build fails.
func (s *store) create(build func(id string) (*cascade.Controller, error)) (*session, error) {
	id := uuid.NewString()
	ctrl, err := build(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	sess := &session{id: id, ctrl: ctrl, lastSeen: now}
	s.items[id] = sess
	return sess, nil
}

func (s *store) delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *store) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.items)
}

func (s *store) sweepLocked(now time.Time) {
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.items, id)
		}
	}
}
