package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edupost/edupost-client/internal/api"
	"github.com/edupost/edupost-client/internal/models"
	"github.com/edupost/edupost-client/internal/models/dto"
	"github.com/edupost/edupost-client/internal/storage"
	"github.com/edupost/edupost-client/internal/storage/memory"
)

type fakeBackend struct {
	mu          sync.Mutex
	loginResp   dto.LoginResponse
	loginErr    error
	registerErr error
	users       map[string]models.User
	findErr     error
	loginCalls  int32
	regCalls    int32
	findCalls   int32
	gate        chan struct{}
	registered  []dto.RegisterRequest
	// password, when set, is the only one Login accepts.
	password string
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (dto.LoginResponse, error) {
	atomic.AddInt32(&f.loginCalls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if f.password != "" && password != f.password {
		return dto.LoginResponse{}, &api.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Register(ctx context.Context, req dto.RegisterRequest) error {
	atomic.AddInt32(&f.regCalls, 1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.registered = append(f.registered, req)
	f.mu.Unlock()
	return f.registerErr
}

func (f *fakeBackend) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	atomic.AddInt32(&f.findCalls, 1)
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	user, ok := f.users[email]
	if !ok {
		return models.User{}, &api.APIError{Status: http.StatusNotFound, Message: "User not found"}
	}
	return user, nil
}

type brokenStore struct{}

func (brokenStore) Save(context.Context, string) error   { return errors.New("disk full") }
func (brokenStore) Load(context.Context) (string, error) { return "", errors.New("io error") }
func (brokenStore) Clear(context.Context) error          { return errors.New("io error") }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func tokenFor(email string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"1","email":"` + email + `"}`))
	return header + "." + payload + ".sig"
}

var ana = models.User{ID: "1", Name: "Ana", Username: "ana", Email: "a@x.com", Roles: models.Roles{models.RoleTeacher}}

func TestNewSessionIsLoading(t *testing.T) {
	st := New().Snapshot()
	if !st.Loading || st.User != nil || st.Token != "" {
		t.Fatalf("unexpected initial state %+v", st)
	}
}

func TestBootstrapWithoutStoredToken(t *testing.T) {
	backend := &fakeBackend{}
	m := NewManager(New(), memory.NewTokenStore(), backend, quietLogger())

	st := m.Bootstrap(context.Background())
	if st.Loading || st.User != nil || st.Token != "" {
		t.Fatalf("expected empty finished session, got %+v", st)
	}
	if backend.findCalls != 0 {
		t.Fatal("no backend call expected without a token")
	}
}

func TestBootstrapHydratesUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	token := tokenFor("a@x.com")
	_ = store.Save(ctx, token)
	backend := &fakeBackend{users: map[string]models.User{"a@x.com": ana}}

	st := NewManager(New(), store, backend, quietLogger()).Bootstrap(ctx)
	if st.Loading || st.Token != token || st.User == nil || st.User.ID != "1" {
		t.Fatalf("expected hydrated session, got %+v", st)
	}
	if !st.Authenticated() || !st.HasRole(models.RoleTeacher) {
		t.Fatal("expected authenticated teacher")
	}
}

func TestBootstrapUndecodableToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	_ = store.Save(ctx, "opaque-token")
	backend := &fakeBackend{users: map[string]models.User{"a@x.com": ana}}

	st := NewManager(New(), store, backend, quietLogger()).Bootstrap(ctx)
	if st.Loading || st.Token != "opaque-token" || st.User != nil {
		t.Fatalf("expected token without user, got %+v", st)
	}
	if st.Authenticated() {
		t.Fatal("token without user must not count as authenticated")
	}
	if backend.findCalls != 0 {
		t.Fatal("no lookup expected for an undecodable token")
	}
}

func TestBootstrapUnknownUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	token := tokenFor("ghost@x.com")
	_ = store.Save(ctx, token)

	st := NewManager(New(), store, &fakeBackend{}, quietLogger()).Bootstrap(ctx)
	if st.Loading || st.Token != token || st.User != nil {
		t.Fatalf("expected token without user, got %+v", st)
	}
}

func TestBootstrapStorageFailureIsAbsence(t *testing.T) {
	var logs bytes.Buffer
	st := NewManager(New(), brokenStore{}, &fakeBackend{}, log.New(&logs, "", 0)).Bootstrap(context.Background())
	if st.Loading || st.Token != "" || st.User != nil {
		t.Fatalf("expected empty finished session, got %+v", st)
	}
	if !strings.Contains(logs.String(), "io error") {
		t.Fatalf("expected storage failure to be logged, got %q", logs.String())
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	_ = store.Save(ctx, tokenFor("a@x.com"))
	backend := &fakeBackend{users: map[string]models.User{"a@x.com": ana}}
	m := NewManager(New(), store, backend, quietLogger())

	m.Bootstrap(ctx)
	m.Logout(ctx)
	st := m.Bootstrap(ctx)
	if st.Token != "" || st.User != nil || st.Loading {
		t.Fatalf("second bootstrap must not restore state, got %+v", st)
	}
	if backend.findCalls != 1 {
		t.Fatalf("expected a single lookup, got %d", backend.findCalls)
	}
}

func TestLoginStoresToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	backend := &fakeBackend{
		loginResp: dto.LoginResponse{AccessToken: "T"},
		users:     map[string]models.User{"a@x.com": ana},
	}
	m := NewManager(New(), store, backend, quietLogger())
	m.Bootstrap(ctx)

	if err := m.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if token, _ := store.Load(ctx); token != "T" {
		t.Fatalf("expected stored T, got %q", token)
	}
	st := m.Session().Snapshot()
	if st.Token != "T" || st.User == nil || st.User.Email != "a@x.com" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestLoginProfileFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	backend := &fakeBackend{loginResp: dto.LoginResponse{AccessToken: "T"}, findErr: errors.New("network down")}
	m := NewManager(New(), store, backend, quietLogger())
	m.Bootstrap(ctx)

	if err := m.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("login should succeed without profile: %v", err)
	}
	st := m.Session().Snapshot()
	if st.Token != "T" || st.User != nil {
		t.Fatalf("expected token without user, got %+v", st)
	}
	if token, _ := store.Load(ctx); token != "T" {
		t.Fatalf("expected stored T, got %q", token)
	}
}

func TestLoginMissingAccessToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	_ = store.Save(ctx, "old")
	backend := &fakeBackend{users: map[string]models.User{"a@x.com": ana}}
	m := NewManager(New(), store, backend, quietLogger())
	m.Bootstrap(ctx)
	before := m.Session().Snapshot()

	err := m.Login(ctx, "a@x.com", "pw")
	var invalid *api.InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError, got %v", err)
	}
	if token, _ := store.Load(ctx); token != "old" {
		t.Fatalf("store must be unchanged, got %q", token)
	}
	after := m.Session().Snapshot()
	if after.Token != before.Token || (after.User == nil) != (before.User == nil) {
		t.Fatalf("session must be unchanged: before %+v after %+v", before, after)
	}
}

func TestLoginBackendErrorPropagates(t *testing.T) {
	ctx := context.Background()
	backendErr := &api.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	m := NewManager(New(), memory.NewTokenStore(), &fakeBackend{loginErr: backendErr}, quietLogger())
	m.Bootstrap(ctx)

	err := m.Login(ctx, "a@x.com", "bad")
	if err != backendErr {
		t.Fatalf("expected backend error unchanged, got %v", err)
	}
	if st := m.Session().Snapshot(); st.Token != "" {
		t.Fatalf("expected no token, got %+v", st)
	}
}

func TestLoginAsOtherUserDropsStaleUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	_ = store.Save(ctx, tokenFor("a@x.com"))
	backend := &fakeBackend{users: map[string]models.User{"a@x.com": ana}}
	m := NewManager(New(), store, backend, quietLogger())
	m.Bootstrap(ctx)

	backend.loginResp = dto.LoginResponse{AccessToken: "T2"}
	if err := m.Login(ctx, "b@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if st := m.Session().Snapshot(); st.Token != "T2" || st.User != nil {
		t.Fatalf("expected previous user dropped, got %+v", st)
	}
}

func TestConcurrentLoginsShareOneRequest(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		loginResp: dto.LoginResponse{AccessToken: "T"},
		users:     map[string]models.User{"a@x.com": ana},
		gate:      make(chan struct{}),
	}
	m := NewManager(New(), memory.NewTokenStore(), backend, quietLogger())
	m.Bootstrap(ctx)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Login(ctx, "a@x.com", "pw")
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&backend.loginCalls) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	// Give the second caller time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)
	close(backend.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("login: %v", err)
		}
	}
	if calls := atomic.LoadInt32(&backend.loginCalls); calls != 1 {
		t.Fatalf("expected one backend login, got %d", calls)
	}
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	backend := &fakeBackend{}
	m := NewManager(New(), store, backend, quietLogger())
	m.Bootstrap(ctx)

	req := dto.RegisterRequest{Name: "A", Username: "a", Email: "a@x.com", Password: "p", Roles: models.Roles{models.RoleStudent}}
	if err := m.Register(ctx, req); err != nil {
		t.Fatalf("register: %v", err)
	}
	st := m.Session().Snapshot()
	if st.Token != "" || st.User != nil {
		t.Fatalf("register must not authenticate, got %+v", st)
	}
	if _, err := store.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("register must not store a token, got %v", err)
	}
	if len(backend.registered) != 1 || backend.registered[0].Username != "a" {
		t.Fatalf("unexpected register calls %+v", backend.registered)
	}
}

func TestRegisterBackendErrorPropagates(t *testing.T) {
	conflict := &api.APIError{Status: http.StatusConflict, Message: "Email already in use"}
	m := NewManager(New(), memory.NewTokenStore(), &fakeBackend{registerErr: conflict}, quietLogger())
	if err := m.Register(context.Background(), dto.RegisterRequest{Email: "a@x.com"}); err != conflict {
		t.Fatalf("expected conflict unchanged, got %v", err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	_ = store.Save(ctx, tokenFor("a@x.com"))
	backend := &fakeBackend{users: map[string]models.User{"a@x.com": ana}}
	m := NewManager(New(), store, backend, quietLogger())
	m.Bootstrap(ctx)

	m.Logout(ctx)
	if _, err := store.Load(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected empty store, got %v", err)
	}
	if st := m.Session().Snapshot(); st.Token != "" || st.User != nil || st.Loading {
		t.Fatalf("unexpected state after logout %+v", st)
	}

	m.Logout(ctx)
	NewManager(New(), brokenStore{}, backend, quietLogger()).Logout(ctx)
}

func TestSubscribersSeeTransitions(t *testing.T) {
	ctx := context.Background()
	sess := New()
	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	if first := <-updates; !first.Loading {
		t.Fatalf("expected initial loading state, got %+v", first)
	}

	backend := &fakeBackend{loginResp: dto.LoginResponse{AccessToken: "T"}, users: map[string]models.User{"a@x.com": ana}}
	m := NewManager(sess, memory.NewTokenStore(), backend, quietLogger())
	m.Bootstrap(ctx)
	if st := <-updates; st.Loading {
		t.Fatalf("expected loading finished, got %+v", st)
	}

	if err := m.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if st := <-updates; st.User == nil || st.Token != "T" {
		t.Fatalf("expected latest state to be authenticated, got %+v", st)
	}

	unsubscribe()
	if _, ok := <-updates; ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	m.Logout(ctx)
}

func TestSnapshotIsACopy(t *testing.T) {
	sess := New()
	sess.setToken("T")
	sess.setUser(ana)
	st := sess.Snapshot()
	st.User.Roles[0] = "HACKED"
	if sess.Snapshot().User.Roles[0] != models.RoleTeacher {
		t.Fatal("snapshot mutation leaked into session")
	}
}

func TestLoadingNeverReturns(t *testing.T) {
	sess := New()
	sess.finishLoading()
	sess.update(func(st *State) { st.Loading = true })
	if sess.Snapshot().Loading {
		t.Fatal("loading must not become true again")
	}
}

func TestClearingTokenClearsUser(t *testing.T) {
	sess := New()
	sess.setToken("T")
	sess.setUser(ana)
	sess.setToken("")
	if st := sess.Snapshot(); st.User != nil {
		t.Fatalf("user must be absent without a token, got %+v", st)
	}
}

func waitForCalls(t *testing.T, calls *int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(calls) < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d backend calls, saw %d", want, atomic.LoadInt32(calls))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOverlappingLoginsWithDifferentPasswords(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		loginResp: dto.LoginResponse{AccessToken: "T"},
		users:     map[string]models.User{"a@x.com": ana},
		gate:      make(chan struct{}),
		password:  "right",
	}
	m := NewManager(New(), memory.NewTokenStore(), backend, quietLogger())
	m.Bootstrap(ctx)

	wrong := make(chan error, 1)
	right := make(chan error, 1)
	go func() { wrong <- m.Login(ctx, "a@x.com", "wrong") }()
	waitForCalls(t, &backend.loginCalls, 1)
	go func() { right <- m.Login(ctx, "a@x.com", "right") }()
	waitForCalls(t, &backend.loginCalls, 2)
	close(backend.gate)

	var apiErr *api.APIError
	if err := <-wrong; !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("wrong password should fail on its own, got %v", err)
	}
	if err := <-right; err != nil {
		t.Fatalf("right password should succeed on its own, got %v", err)
	}
	if st := m.Session().Snapshot(); st.Token != "T" || st.User == nil {
		t.Fatalf("expected signed-in session, got %+v", st)
	}
}

func TestOverlappingRegistrationsWithDifferentPayloads(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{gate: make(chan struct{})}
	m := NewManager(New(), memory.NewTokenStore(), backend, quietLogger())

	errs := make(chan error, 2)
	go func() {
		errs <- m.Register(ctx, dto.RegisterRequest{Name: "A", Username: "a", Email: "a@x.com", Password: "pw-one"})
	}()
	waitForCalls(t, &backend.regCalls, 1)
	go func() {
		errs <- m.Register(ctx, dto.RegisterRequest{Name: "A", Username: "a2", Email: "a@x.com", Password: "pw-two"})
	}()
	waitForCalls(t, &backend.regCalls, 2)
	close(backend.gate)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if len(backend.registered) != 2 {
		t.Fatalf("expected both payloads sent, got %+v", backend.registered)
	}
}

func TestCancelledCallerDoesNotFailSharedLogin(t *testing.T) {
	backend := &fakeBackend{
		loginResp: dto.LoginResponse{AccessToken: "T"},
		users:     map[string]models.User{"a@x.com": ana},
		gate:      make(chan struct{}),
	}
	m := NewManager(New(), memory.NewTokenStore(), backend, quietLogger())
	m.Bootstrap(context.Background())

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() { firstErr <- m.Login(first, "a@x.com", "pw") }()
	waitForCalls(t, &backend.loginCalls, 1)

	secondErr := make(chan error, 1)
	go func() { secondErr <- m.Login(context.Background(), "a@x.com", "pw") }()
	// Give the second caller time to join the in-flight call.
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should see its own cancellation, got %v", err)
	}
	close(backend.gate)
	if err := <-secondErr; err != nil {
		t.Fatalf("second caller should not inherit the cancellation, got %v", err)
	}
	if calls := atomic.LoadInt32(&backend.loginCalls); calls != 1 {
		t.Fatalf("expected one backend login, got %d", calls)
	}
}
