package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/edupost/edupost-client/internal/api"
	"github.com/edupost/edupost-client/internal/auth"
	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/storage"
)

// Backend is the slice of the REST API the auth operations need.
type Backend interface {
	Login(ctx context.Context, email, password string) (dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) error
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Manager owns the session lifecycle: bootstrap, login, register and logout.
// It and the bootstrap are the only writers of the session and token store.
type Manager struct {
	session *Session
	tokens  tokenStore
	backend Backend
	logger  *log.Logger

	bootOnce sync.Once
	flight   singleflight.Group
}

// NewManager wires a session to its token store and backend. A nil logger
// uses log.Default().
func NewManager(sess *Session, store storage.TokenStore, backend Backend, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		session: sess,
		tokens:  tokenStore{backend: store, logger: logger},
		backend: backend,
		logger:  logger,
	}
}

// TokenSource exposes a persisted token to the API client. Storage failures
// are logged and read as no token.
func TokenSource(store storage.TokenStore, logger *log.Logger) api.TokenSource {
	if logger == nil {
		logger = log.Default()
	}
	return tokenStore{backend: store, logger: logger}
}

// Session returns the state holder the manager writes to.
func (m *Manager) Session() *Session {
	return m.session
}

// Bootstrap restores the session from the token store. It runs once; later
// calls wait for the first to finish and return the current state. Loading
// always ends, whatever fails along the way.
func (m *Manager) Bootstrap(ctx context.Context) State {
	m.bootOnce.Do(func() {
		defer m.session.finishLoading()

		token := m.tokens.load(ctx)
		if token == "" {
			return
		}
		m.session.setToken(token)

		email, ok := auth.TryExtractEmail(token)
		if !ok {
			return
		}
		user, err := m.backend.FindUserByEmail(ctx, email)
		if err != nil {
			m.logger.Printf("session: hydrate user from stored token: %v", err)
			return
		}
		m.session.setUser(user)
	})
	return m.session.Snapshot()
}

// Login exchanges credentials for a token, persists it, and then tries to
// load the user's profile. A failed profile fetch leaves the token in place
// with no user. Backend errors are returned unchanged; a response without an
// access token yields *api.InvalidResponseError and changes nothing.
// Concurrent logins with identical credentials share one request.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	key := flightKey("login", strings.ToLower(email), password)
	return m.shared(ctx, key, func(ctx context.Context) error {
		return m.login(ctx, email, password)
	})
}

func (m *Manager) login(ctx context.Context, email, password string) error {
	resp, err := m.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return &api.InvalidResponseError{Reason: "login response is missing access_token"}
	}

	m.tokens.save(ctx, resp.AccessToken)
	m.session.update(func(st *State) {
		st.Token = resp.AccessToken
		if st.User != nil && !strings.EqualFold(st.User.Email, email) {
			st.User = nil
		}
	})

	user, err := m.backend.FindUserByEmail(ctx, email)
	if err != nil {
		m.logger.Printf("session: fetch user after login: %v", err)
		return nil
	}
	m.session.setUser(user)
	return nil
}

// Register creates an account without signing in. Concurrent registrations
// with an identical payload share one request.
func (m *Manager) Register(ctx context.Context, req dto.RegisterRequest) error {
	key := flightKey("register",
		strings.ToLower(strings.TrimSpace(req.Email)),
		req.Name, req.Username, req.Password,
		strings.Join(req.Roles, ","),
	)
	return m.shared(ctx, key, func(ctx context.Context) error {
		return m.backend.Register(ctx, req)
	})
}

// shared runs fn once per key among overlapping callers. fn runs detached
// from any single caller's cancellation; each caller stops waiting when its
// own ctx is done.
func (m *Manager) shared(ctx context.Context, key string, fn func(context.Context) error) error {
	detached := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(key, func() (any, error) {
		return nil, fn(detached)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// flightKey hashes a submission so only identical ones coalesce and no
// password is kept in the group's key.
func flightKey(op string, fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return op + ":" + hex.EncodeToString(h.Sum(nil))
}

// Logout forgets the token locally. There is no server-side session to end.
func (m *Manager) Logout(ctx context.Context) {
	m.tokens.clear(ctx)
	m.session.reset()
}
