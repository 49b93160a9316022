package session

import (
	"sync"

	"github.com/edupost/edupost-client/internal/models"
)

// State is an immutable snapshot of the session.
type State struct {
	User    *models.User
	Token   string
	Loading bool
}

// Authenticated reports whether a user is resolved. A token alone is not enough.
func (s State) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// HasRole reports whether the resolved user holds role.
func (s State) HasRole(role string) bool {
	return s.User.HasRole(role)
}

// Session holds {user, token, loading} and publishes every change to its
// subscribers. A Session starts in the loading state.
type Session struct {
	mu     sync.Mutex
	state  State
	subs   map[int]chan State
	nextID int
}

// New returns an empty session that is still loading.
func New() *Session {
	return &Session{
		state: State{Loading: true},
		subs:  make(map[int]chan State),
	}
}

// Snapshot returns the current state. The user is copied.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe returns a channel that receives the current state immediately and
// every later state. A subscriber that falls behind only sees the latest
// state. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan State, 1)
	ch <- s.state.clone()
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// update applies fn under the lock and publishes the result.
func (s *Session) update(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	fn(&next)
	if next.Token == "" {
		next.User = nil
	}
	if !s.state.Loading {
		next.Loading = false
	}
	s.state = next

	snapshot := next.clone()
	for _, ch := range s.subs {
		publish(ch, snapshot)
	}
	return snapshot
}

func (s *Session) setToken(token string) State {
	return s.update(func(st *State) { st.Token = token })
}

func (s *Session) setUser(user models.User) State {
	return s.update(func(st *State) {
		u := user
		st.User = &u
	})
}

func (s *Session) finishLoading() State {
	return s.update(func(st *State) { st.Loading = false })
}

func (s *Session) reset() State {
	return s.update(func(st *State) {
		st.Token = ""
		st.User = nil
	})
}

func (s *Session) loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loading
}

// publish replaces any unread state so the channel always holds the latest.
func publish(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		u.Roles = append(models.Roles(nil), s.User.Roles...)
		s.User = &u
	}
	return s
}
