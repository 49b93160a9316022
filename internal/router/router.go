package router

import (
	"context"
	"errors"
	"sync"

	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/session"
)

// State is the router's view of the session.
type State int

const (
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Screen names a navigable destination.
type Screen string

const (
	Login          Screen = "Login"
	Register       Screen = "Register"
	PostsList      Screen = "PostsList"
	PostDetail     Screen = "PostDetail"
	CreatePost     Screen = "CreatePost"
	EditPost       Screen = "EditPost"
	AdminDashboard Screen = "AdminDashboard"
	Teachers       Screen = "Teachers"
	Students       Screen = "Students"
)

var (
	// ErrLoading is returned while the session is still bootstrapping.
	ErrLoading = errors.New("session is still loading")
	// ErrNotReachable is returned for screens outside the current group.
	ErrNotReachable = errors.New("screen is not reachable")
)

var (
	authScreens = []Screen{Login, Register}
	appScreens  = []Screen{PostsList, PostDetail, CreatePost, EditPost, AdminDashboard, Teachers, Students}
)

// teacherOnly lists screens that guard themselves with RequireRole. The router
// still mounts them.
var teacherOnly = map[Screen]bool{
	CreatePost:     true,
	EditPost:       true,
	AdminDashboard: true,
	Teachers:       true,
	Students:       true,
}

// Resolve maps a session snapshot onto a router state.
func Resolve(st session.State) State {
	switch {
	case st.Loading:
		return Loading
	case st.User == nil:
		return Unauthenticated
	default:
		return Authenticated
	}
}

// Screens returns the screens mounted in state s; nil while loading.
func Screens(s State) []Screen {
	switch s {
	case Unauthenticated:
		return append([]Screen(nil), authScreens...)
	case Authenticated:
		return append([]Screen(nil), appScreens...)
	}
	return nil
}

// TeacherOnly reports whether screen guards itself on the TEACHER role.
func TeacherOnly(screen Screen) bool {
	return teacherOnly[screen]
}

// RequireRole is the guard a screen applies before rendering. It is advisory:
// the backend enforces authorization on its own.
func RequireRole(user *models.User, role string) bool {
	return user.HasRole(role)
}

// Router tracks the current state and accepts only the documented
// transitions: Loading to either group once, then between the two groups.
type Router struct {
	mu    sync.Mutex
	state State
	user  *models.User
}

// New returns a router in the Loading state.
func New() *Router {
	return &Router{state: Loading}
}

// State returns the current router state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// User returns the user the router last saw, if authenticated.
func (r *Router) User() *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.user
}

// Apply feeds a session snapshot to the router and reports whether the state
// changed. A snapshot that would return to Loading is ignored.
func (r *Router) Apply(st session.State) (State, bool) {
	next := Resolve(st)

	r.mu.Lock()
	defer r.mu.Unlock()
	if next == Loading && r.state != Loading {
		return r.state, false
	}
	r.user = st.User
	if next == r.state {
		return r.state, false
	}
	r.state = next
	return r.state, true
}

// Navigate checks that screen is mounted in the current state.
func (r *Router) Navigate(screen Screen) error {
	state := r.State()
	if state == Loading {
		return ErrLoading
	}
	for _, s := range Screens(state) {
		if s == screen {
			return nil
		}
	}
	return ErrNotReachable
}

// Run follows sess until ctx is done, calling onChange after each state
// transition. onChange may be nil.
func (r *Router) Run(ctx context.Context, sess *session.Session, onChange func(State)) {
	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if state, changed := r.Apply(st); changed && onChange != nil {
				onChange(state)
			}
		}
	}
}
