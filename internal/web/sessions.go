package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/goliatone/go-predictform/pkg/controller"
)

// SessionCookie names the cookie carrying the browser session id.
const SessionCookie = "predictform_session"

// ControllerFactory builds the controller for a new browser session.
type ControllerFactory func() (*controller.Controller, error)

// sessionStore keeps one controller per browser session. Entries expire
// after ttl without access.
type sessionStore struct {
	mu      sync.Mutex
	cache   *gocache.Cache
	ttl     time.Duration
	factory ControllerFactory
}

func newSessionStore(factory ControllerFactory, ttl time.Duration) *sessionStore {
	return &sessionStore{
		cache:   gocache.New(ttl, ttl/2),
		ttl:     ttl,
		factory: factory,
	}
}

func (s *sessionStore) setTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
	s.cache = gocache.New(ttl, ttl/2)
}

// controller returns the session's controller, starting a new session and
// setting the cookie when the request has none or it expired.
func (s *sessionStore) controller(w http.ResponseWriter, r *http.Request) (*controller.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if value, found := s.cache.Get(cookie.Value); found {
			ctrl := value.(*controller.Controller)
			s.cache.Set(cookie.Value, ctrl, s.ttl)
			return ctrl, nil
		}
	}

	ctrl, err := s.factory()
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	s.cache.Set(id, ctrl, s.ttl)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl / time.Second),
	})
	return ctrl, nil
}

func (s *sessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.ItemCount()
}
