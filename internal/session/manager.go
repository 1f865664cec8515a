package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/doronEilam/blog/internal/credentials"
	"github.com/doronEilam/blog/internal/tokens"
	"github.com/doronEilam/blog/pkg/logger"
	"github.com/doronEilam/blog/pkg/metrics"
)

// Auth endpoints on the remote API.
const (
	LoginPath    = "/login/"
	LogoutPath   = "/logout"
	RegisterPath = "/register"
	ProfilePath  = "/user/profile"
	RefreshPath  = "/token/refresh/"
)

// ErrNoSession is returned when a refresh is requested without a stored
// refresh token.
var ErrNoSession = errors.New("no refresh token available")

// State is the session lifecycle. The only transitions are
// unauthenticated -> authenticating -> authenticated and
// authenticated -> unauthenticated (logout or unrecoverable refresh failure).
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// Group is a server-side permission group.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the identity descriptor derived from login or the profile endpoint.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	IsAdmin     bool     `json:"is_admin"`
	IsSuperuser bool     `json:"is_superuser"`
	Groups      []Group  `json:"groups,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// snapshot is the cached identity, tied to the access token it was derived
// from so a rotated token invalidates it.
type snapshot struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Manager owns the credential pair, the single-flight refresh state, and the
// current-user descriptor. It is the only writer of session state; the
// request dispatcher consumes it through AccessToken/EnsureFreshAccess/Expire.
type Manager struct {
	baseURL string
	http    *http.Client
	store   credentials.Store

	sf singleflight.Group

	mu      sync.RWMutex
	current *User
	state   State

	onState   func(State)
	onExpired func(reason string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient overrides the HTTP client used for the auth endpoints.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.http = c }
}

// WithStateHook registers a callback fired on every state transition.
func WithStateHook(fn func(State)) Option {
	return func(m *Manager) { m.onState = fn }
}

// WithExpiredHook registers a callback fired when the session is torn down
// after an unrecoverable auth failure (the redirect-to-login analog).
func WithExpiredHook(fn func(reason string)) Option {
	return func(m *Manager) { m.onExpired = fn }
}

// NewManager creates a session manager talking to the API at baseURL.
func NewManager(baseURL string, store credentials.Store, opts ...Option) *Manager {
	m := &Manager{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		store:   store,
		state:   StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type loginResponse struct {
	Access      string   `json:"access"`
	Refresh     string   `json:"refresh"`
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	IsAdmin     bool     `json:"is_admin"`
	IsSuperuser bool     `json:"is_superuser"`
	Groups      []Group  `json:"groups"`
	Permissions []string `json:"permissions"`
}

type profileResponse struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	IsStaff     bool    `json:"is_staff"`
	IsSuperuser bool    `json:"is_superuser"`
	Groups      []Group `json:"groups"`
}

// Login authenticates against POST /login/, persists the returned pair and
// caches the identity snapshot.
func (m *Manager) Login(ctx context.Context, username, password string) (*User, error) {
	m.setState(StateAuthenticating)
	status, body, err := m.doJSON(ctx, http.MethodPost, LoginPath, "",
		map[string]string{"username": username, "password": password})
	if err != nil {
		m.failLogin()
		return nil, fmt.Errorf("login request: %w", err)
	}
	if status != http.StatusOK {
		m.failLogin()
		return nil, fmt.Errorf("login failed: %s", httpMessage(status, body))
	}
	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		m.failLogin()
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if lr.Access == "" || lr.Refresh == "" {
		m.failLogin()
		return nil, errors.New("login response missing token pair")
	}
	if err := m.store.Save(credentials.Pair{Access: lr.Access, Refresh: lr.Refresh}); err != nil {
		m.failLogin()
		return nil, fmt.Errorf("persist credentials: %w", err)
	}
	user := &User{
		ID:          lr.UserID,
		Username:    lr.Username,
		Email:       lr.Email,
		IsAdmin:     lr.IsAdmin,
		IsSuperuser: lr.IsSuperuser,
		Groups:      lr.Groups,
		Permissions: lr.Permissions,
	}
	m.cacheSnapshot(user, lr.Access)
	m.setCurrent(user)
	m.setState(StateAuthenticated)
	logger.Infof("session: logged in as %s", user.Username)
	return user.clone(), nil
}

// failLogin clears a possibly half-written pair and resets state.
func (m *Manager) failLogin() {
	if err := m.store.Clear(); err != nil {
		logger.Warnf("session: clear after failed login: %v", err)
	}
	m.setCurrent(nil)
	m.setState(StateUnauthenticated)
}

// Logout notifies the server (best effort) and always cleans up locally.
// It never returns an error.
func (m *Manager) Logout(ctx context.Context) {
	if pair, ok := m.store.Load(); ok {
		status, _, err := m.doJSON(ctx, http.MethodPost, LogoutPath, pair.Access,
			map[string]string{"refresh": pair.Refresh})
		if err != nil {
			logger.Warnf("session: logout request failed: %v", err)
		} else if status >= http.StatusMultipleChoices {
			logger.Warnf("session: logout returned %d", status)
		}
	}
	m.teardown()
	logger.Debugf("session: logged out")
}

// Register creates a new account via POST /register.
func (m *Manager) Register(ctx context.Context, username, password, email string) error {
	status, body, err := m.doJSON(ctx, http.MethodPost, RegisterPath, "",
		map[string]string{"username": username, "email": email, "password": password})
	if err != nil {
		return fmt.Errorf("register request: %w", err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("register failed: %s", httpMessage(status, body))
	}
	return nil
}

// Restore reconciles session state at startup. A stored pair whose cached
// snapshot was minted from the same access token restores without a network
// call; otherwise the profile is fetched and re-cached. Profile failure tears
// the session down (fail-closed). Returns (nil, nil) when no session exists.
func (m *Manager) Restore(ctx context.Context) (*User, error) {
	pair, ok := m.store.Load()
	if !ok {
		m.setCurrent(nil)
		m.setState(StateUnauthenticated)
		return nil, nil
	}
	if data, ok := m.store.LoadIdentity(); ok {
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err == nil && snap.Token == pair.Access {
			user := snap.User
			m.setCurrent(&user)
			m.setState(StateAuthenticated)
			return user.clone(), nil
		}
		// stale or unreadable snapshot, refetch below
		if err := m.store.ClearIdentity(); err != nil {
			logger.Warnf("session: drop stale snapshot: %v", err)
		}
	}

	access := pair.Access
	if tokens.IsExpired(access) {
		var err error
		if access, err = m.EnsureFreshAccess(ctx); err != nil {
			m.teardown()
			return nil, fmt.Errorf("restore session: %w", err)
		}
	}
	status, body, err := m.doJSON(ctx, http.MethodGet, ProfilePath, access, nil)
	if err != nil {
		m.teardown()
		return nil, fmt.Errorf("restore profile: %w", err)
	}
	if status != http.StatusOK {
		m.teardown()
		return nil, fmt.Errorf("restore profile: %s", httpMessage(status, body))
	}
	var pr profileResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		m.teardown()
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	user := &User{
		ID:          pr.ID,
		Username:    pr.Username,
		Email:       pr.Email,
		IsAdmin:     pr.IsStaff,
		IsSuperuser: pr.IsSuperuser,
		Groups:      pr.Groups,
	}
	m.cacheSnapshot(user, access)
	m.setCurrent(user)
	m.setState(StateAuthenticated)
	return user.clone(), nil
}

// EnsureFreshAccess returns a usable access token, refreshing at most once
// system-wide: concurrent callers are coalesced onto a single in-flight
// POST /token/refresh/ and all observe its one outcome. Refresh failure
// clears the credential pair; retrying is the dispatcher's decision.
func (m *Manager) EnsureFreshAccess(ctx context.Context) (string, error) {
	v, err, _ := m.sf.Do("refresh", func() (interface{}, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	pair, ok := m.store.Load()
	if !ok {
		return "", ErrNoSession
	}
	logger.Debugf("session: refreshing access token")
	status, body, err := m.doJSON(ctx, http.MethodPost, RefreshPath, "",
		map[string]string{"refresh": pair.Refresh})
	if err != nil {
		m.dropPair()
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("refresh request: %w", err)
	}
	if status != http.StatusOK {
		m.dropPair()
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("refresh rejected: %s", httpMessage(status, body))
	}
	var rr struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.Unmarshal(body, &rr); err != nil || rr.Access == "" {
		m.dropPair()
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", errors.New("refresh response did not contain a new access token")
	}
	next := credentials.Pair{Access: rr.Access, Refresh: pair.Refresh}
	if rr.Refresh != "" {
		// server rotated the refresh token
		next.Refresh = rr.Refresh
	}
	if err := m.store.Save(next); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("persist refreshed pair: %w", err)
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	logger.Debugf("session: access token refreshed")
	return next.Access, nil
}

// Expire tears the session down after an unrecoverable auth failure and
// fires the expired hook. Called by the dispatcher; never by refresh itself.
func (m *Manager) Expire(reason string) {
	logger.Warnf("session: expired: %s", reason)
	m.teardown()
	if m.onExpired != nil {
		m.onExpired(reason)
	}
}

// AccessToken returns the stored access token, if a full pair is present.
func (m *Manager) AccessToken() (string, bool) {
	pair, ok := m.store.Load()
	if !ok {
		return "", false
	}
	return pair.Access, true
}

// IsAuthenticated reports whether a credential pair is stored.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.store.Load()
	return ok
}

// CurrentUser returns a copy of the in-memory user descriptor, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAdmin reports whether the current user carries the staff flag.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.IsAdmin
}

// IsSuperuser reports whether the current user is a superuser.
func (m *Manager) IsSuperuser() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.IsSuperuser
}

// InGroup reports whether the current user belongs to the named group.
func (m *Manager) InGroup(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return false
	}
	for _, g := range m.current.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Groups = append([]Group(nil), u.Groups...)
	c.Permissions = append([]string(nil), u.Permissions...)
	return &c
}

func (m *Manager) cacheSnapshot(user *User, access string) {
	data, err := json.Marshal(snapshot{User: *user, Token: access})
	if err != nil {
		logger.Warnf("session: encode snapshot: %v", err)
		return
	}
	if err := m.store.SaveIdentity(data); err != nil {
		logger.Warnf("session: cache snapshot: %v", err)
	}
}

func (m *Manager) setCurrent(u *User) {
	m.mu.Lock()
	m.current = u
	m.mu.Unlock()
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	m.mu.Unlock()
	if changed && m.onState != nil {
		m.onState(s)
	}
}

func (m *Manager) dropPair() {
	if err := m.store.Clear(); err != nil {
		logger.Warnf("session: clear credentials: %v", err)
	}
}

// teardown removes every trace of the session, best effort on each step.
func (m *Manager) teardown() {
	m.dropPair()
	if err := m.store.ClearIdentity(); err != nil {
		logger.Warnf("session: clear snapshot: %v", err)
	}
	m.setCurrent(nil)
	m.setState(StateUnauthenticated)
}

// doJSON performs one JSON request against the auth endpoints and returns
// the status code and raw body.
func (m *Manager) doJSON(ctx context.Context, method, path, bearer string, in any) (int, []byte, error) {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// httpMessage extracts a human-readable message from a DRF error body.
func httpMessage(status int, body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			return fmt.Sprintf("status %d: %s", status, payload.Detail)
		}
		if payload.Error != "" {
			return fmt.Sprintf("status %d: %s", status, payload.Error)
		}
	}
	return fmt.Sprintf("status %d", status)
}
