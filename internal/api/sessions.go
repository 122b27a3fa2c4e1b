package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"seta-admin-backend/internal/listing"
)

// sessionStore keeps one workspace per dashboard session. Sessions expire
// after ttl without use.
type sessionStore struct {
	items *cache.Cache
	ttl   time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionStore{items: cache.New(ttl, ttl), ttl: ttl}
}

func (s *sessionStore) create() (string, *listing.Workspace) {
	id := uuid.NewString()
	ws := listing.NewWorkspace()
	s.items.Set(id, ws, s.ttl)
	return id, ws
}

func (s *sessionStore) get(id string) (*listing.Workspace, bool) {
	v, found := s.items.Get(id)
	if !found {
		return nil, false
	}
	ws := v.(*listing.Workspace)
	s.items.Set(id, ws, s.ttl)
	return ws, true
}
