package client

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doronEilam/blog/internal/apitest"
	"github.com/doronEilam/blog/internal/credentials"
	"github.com/doronEilam/blog/internal/session"
)

// stubSession gives tests direct control over the credential the dispatcher
// sees and the outcome of a refresh.
type stubSession struct {
	mu           sync.Mutex
	token        string
	hasToken     bool
	freshToken   string
	freshErr     error
	refreshCalls int
	expired      []string
}

func (s *stubSession) AccessToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.hasToken
}

func (s *stubSession) EnsureFreshAccess(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCalls++
	if s.freshErr != nil {
		return "", s.freshErr
	}
	s.token = s.freshToken
	return s.freshToken, nil
}

func (s *stubSession) Expire(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = append(s.expired, reason)
}

func (s *stubSession) expireCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expired)
}

func TestDo_AttachesBearer(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{token: srv.MintAccess("admin", time.Hour), hasToken: true}
	c := New(srv.URL, sess)

	var profile struct {
		Username string `json:"username"`
	}
	require.NoError(t, c.Get(context.Background(), "/user/profile", &profile))
	require.Equal(t, "admin", profile.Username)
	require.Equal(t, 0, sess.refreshCalls)
}

func TestDo_ExpiredTokenRefreshesBeforeSend(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{
		token:      srv.MintAccess("admin", -time.Minute),
		hasToken:   true,
		freshToken: srv.MintAccess("admin", time.Hour),
	}
	c := New(srv.URL, sess)

	require.NoError(t, c.Get(context.Background(), "/user/profile", nil))
	require.Equal(t, 1, sess.refreshCalls, "expired token must be refreshed before sending")
	require.Equal(t, 1, srv.Hits("GET", "/user/profile"), "the doomed request must never hit the wire")
}

func TestDo_RetriesOnceAfter401(t *testing.T) {
	srv := apitest.New(t)
	revoked := srv.MintAccess("admin", time.Hour)
	srv.Revoke(revoked)
	sess := &stubSession{
		token:      revoked,
		hasToken:   true,
		freshToken: srv.MintAccess("admin", time.Hour),
	}
	c := New(srv.URL, sess)

	require.NoError(t, c.Get(context.Background(), "/user/profile", nil))
	require.Equal(t, 1, sess.refreshCalls)
	require.Equal(t, 2, srv.Hits("GET", "/user/profile"))
	require.Equal(t, 0, sess.expireCount())
}

func TestDo_RetryResendsBody(t *testing.T) {
	srv := apitest.New(t)
	revoked := srv.MintAccess("admin", time.Hour)
	srv.Revoke(revoked)
	sess := &stubSession{
		token:      revoked,
		hasToken:   true,
		freshToken: srv.MintAccess("admin", time.Hour),
	}
	c := New(srv.URL, sess)

	var created struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	err := c.Post(context.Background(), "/articles/", map[string]any{"title": "hello"}, &created)
	require.NoError(t, err)
	require.Equal(t, "hello", created.Title)

	// the rejected first attempt must not have created anything
	var all []map[string]any
	require.NoError(t, c.Get(context.Background(), "/articles/", &all))
	require.Len(t, all, 1)
}

func TestDo_SecondUnauthorizedExpiresSession(t *testing.T) {
	srv := apitest.New(t)
	first := srv.MintAccess("admin", time.Hour)
	second := srv.MintAccess("alice", time.Hour)
	srv.Revoke(first)
	srv.Revoke(second)
	sess := &stubSession{token: first, hasToken: true, freshToken: second}
	c := New(srv.URL, sess)

	err := c.Get(context.Background(), "/user/profile", nil)
	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, 1, sess.refreshCalls, "must not refresh a second time")
	require.Equal(t, 2, srv.Hits("GET", "/user/profile"), "must not attempt a third send")
	require.Equal(t, 1, sess.expireCount())
}

func TestDo_RefreshFailureBeforeSendExpires(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{
		token:    srv.MintAccess("admin", -time.Minute),
		hasToken: true,
		freshErr: context.DeadlineExceeded,
	}
	c := New(srv.URL, sess)

	err := c.Get(context.Background(), "/user/profile", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, sess.expireCount())
	require.Equal(t, 0, srv.Hits("GET", "/user/profile"))
}

func TestDo_RefreshFailureAfter401Expires(t *testing.T) {
	srv := apitest.New(t)
	revoked := srv.MintAccess("admin", time.Hour)
	srv.Revoke(revoked)
	sess := &stubSession{token: revoked, hasToken: true, freshErr: session.ErrNoSession}
	c := New(srv.URL, sess)

	err := c.Get(context.Background(), "/user/profile", nil)
	require.ErrorIs(t, err, session.ErrNoSession)
	require.Equal(t, 1, sess.expireCount())
	require.Equal(t, 1, srv.Hits("GET", "/user/profile"))
}

func TestDo_RefreshEndpointUnauthorizedIsTerminal(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{token: srv.MintAccess("admin", time.Hour), hasToken: true}
	c := New(srv.URL, sess)

	err := c.Post(context.Background(), session.RefreshPath, map[string]string{"refresh": "garbage"}, nil)
	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, 0, sess.refreshCalls, "a rejected refresh call must never trigger another refresh")
	require.Equal(t, 1, srv.RefreshCalls())
	require.Equal(t, 1, sess.expireCount())
}

func TestDo_AnonymousRequest(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("articles", map[string]any{"title": "public"})
	sess := &stubSession{}
	c := New(srv.URL, sess)

	var articles []map[string]any
	require.NoError(t, c.Get(context.Background(), "/articles/", &articles))
	require.Len(t, articles, 1)

	// a protected endpoint rejects the anonymous call; nothing to refresh
	err := c.Get(context.Background(), "/user/profile", nil)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, 0, sess.refreshCalls)
	require.Equal(t, 0, sess.expireCount())
}

func TestDo_NoContent(t *testing.T) {
	srv := apitest.New(t)
	id := srv.Seed("articles", map[string]any{"title": "doomed"})
	sess := &stubSession{token: srv.MintAccess("admin", time.Hour), hasToken: true}
	c := New(srv.URL, sess)

	require.NoError(t, c.Delete(context.Background(), "/articles/"+strconv.FormatInt(id, 10)+"/"))
}

func TestDo_NotFoundPassesThrough(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{token: srv.MintAccess("admin", time.Hour), hasToken: true}
	c := New(srv.URL, sess)

	err := c.Get(context.Background(), "/articles/999/", nil)
	require.True(t, IsNotFound(err))
	require.Equal(t, 0, sess.refreshCalls, "non-401 errors must not trigger a refresh")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Not found.", apiErr.Detail)
}

func TestDo_UnauthorizedErrorCarriesCode(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{}
	c := New(srv.URL, sess)

	err := c.Get(context.Background(), "/user/profile", nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "token_not_valid", apiErr.Code)
}

func TestDo_RateLimitHonorsContext(t *testing.T) {
	srv := apitest.New(t)
	sess := &stubSession{}
	// burst 1: the second call must wait a full second, far past the deadline
	c := New(srv.URL, sess, WithRateLimit(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Get(ctx, "/articles/", nil))
	err := c.Get(ctx, "/articles/", nil)
	require.Error(t, err)
	require.Equal(t, 1, srv.Hits("GET", "/articles/"))
}

// End-to-end: a real session manager behind the dispatcher recovers from
// server-side revocation transparently.
func TestDo_WithSessionManager(t *testing.T) {
	srv := apitest.New(t)
	store := credentials.NewMemoryStore()
	m := session.NewManager(srv.URL, store)
	_, err := m.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)

	pair, ok := store.Load()
	require.True(t, ok)
	srv.Revoke(pair.Access)

	c := New(srv.URL, m)
	var profile struct {
		Username string `json:"username"`
	}
	require.NoError(t, c.Get(context.Background(), "/user/profile", &profile))
	require.Equal(t, "admin", profile.Username)
	require.Equal(t, 1, srv.RefreshCalls())
	require.True(t, m.IsAuthenticated())
}
