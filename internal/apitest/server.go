// Package apitest provides an in-memory stand-in for the remote blog API,
// used by tests across the module. It mints real HS256 JWTs so the token
// inspector and refresh flow exercise the production code paths.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const secret = "apitest-signing-secret-32-bytes!"

var mintSeq int64

type userRecord struct {
	ID        int64
	Password  string
	Email     string
	Admin     bool
	Superuser bool
	Groups    []gin.H
}

// Server is a fake blog API backed by gin + httptest.
type Server struct {
	URL string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RefreshDelay stalls the refresh endpoint, widening the window in
	// which concurrent callers can pile onto one in-flight refresh.
	// Set before issuing requests.
	RefreshDelay time.Duration

	mu            sync.Mutex
	users         map[string]*userRecord
	nextUserID    int64
	collections   map[string][]gin.H
	nextItemID    map[string]int64
	revoked       map[string]bool
	failRefresh   bool
	rotateRefresh bool
	refreshCalls  int
	hits          map[string]int
}

// New starts a fake API with two seeded accounts: admin/secret (staff,
// superuser, group "editors") and alice/wonderland (regular user).
func New(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		AccessTTL:   5 * time.Minute,
		RefreshTTL:  24 * time.Hour,
		users:       map[string]*userRecord{},
		collections: map[string][]gin.H{},
		nextItemID:  map[string]int64{},
		revoked:     map[string]bool{},
		hits:        map[string]int{},
	}
	s.AddUser("admin", "secret", true, true, "editors")
	s.AddUser("alice", "wonderland", false, false)

	srv := httptest.NewServer(s.router())
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// AddUser registers an account.
func (s *Server) AddUser(username, password string, admin, superuser bool, groups ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	rec := &userRecord{
		ID:        s.nextUserID,
		Password:  password,
		Email:     username + "@example.com",
		Admin:     admin,
		Superuser: superuser,
	}
	for i, g := range groups {
		rec.Groups = append(rec.Groups, gin.H{"id": i + 1, "name": g})
	}
	s.users[username] = rec
}

// MintAccess crafts an access token with the given lifetime; a negative ttl
// produces an already-expired token.
func (s *Server) MintAccess(username string, ttl time.Duration) string {
	return s.mint(username, "access", ttl)
}

// MintRefresh crafts a refresh token with the given lifetime.
func (s *Server) MintRefresh(username string, ttl time.Duration) string {
	return s.mint(username, "refresh", ttl)
}

func (s *Server) mint(username, typ string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"sub": username,
		"typ": typ,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
		// second-granularity claims make same-second mints byte-identical;
		// a unique id keeps revocation and rotation distinguishable
		"jti": strconv.FormatInt(atomic.AddInt64(&mintSeq, 1), 10),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		panic(fmt.Sprintf("apitest: mint token: %v", err))
	}
	return tok
}

// Revoke makes the server reject the given access token with 401, emulating
// server-side revocation of an otherwise valid token.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

// FailRefresh toggles 401 responses from the refresh endpoint.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RotateRefresh toggles refresh-token rotation on successful refresh.
func (s *Server) RotateRefresh(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateRefresh = rotate
}

// RefreshCalls reports how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Hits reports how many requests matched the given method and route pattern,
// e.g. Hits("GET", "/articles/").
func (s *Server) Hits(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+route]
}

// Seed adds an item to a named collection ("articles", "tags", ...) and
// returns its assigned id.
func (s *Server) Seed(collection string, item map[string]any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(collection, item)
}

func (s *Server) insert(collection string, item map[string]any) int64 {
	s.nextItemID[collection]++
	id := s.nextItemID[collection]
	stored := gin.H{"id": id}
	for k, v := range item {
		stored[k] = v
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return id
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		s.mu.Lock()
		s.hits[c.Request.Method+" "+c.FullPath()]++
		s.mu.Unlock()
	})

	r.POST("/login/", s.login)
	r.POST("/token/refresh/", s.refresh)
	r.POST("/register", s.register)

	auth := r.Group("", s.authRequired)
	auth.POST("/logout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
	})
	auth.GET("/user/profile", s.profile)
	auth.PUT("/user/profile", s.profile)

	// reads are public, mutations require auth
	for _, col := range []string{"articles", "tags", "categories", "comments"} {
		col := col
		r.GET("/"+col+"/", func(c *gin.Context) { s.list(c, col) })
		r.GET("/"+col+"/:id/", func(c *gin.Context) { s.get(c, col) })
		auth.POST("/"+col+"/", func(c *gin.Context) { s.create(c, col) })
		auth.PUT("/"+col+"/:id/", func(c *gin.Context) { s.update(c, col) })
		auth.DELETE("/"+col+"/:id/", func(c *gin.Context) { s.remove(c, col) })
	}
	r.GET("/articles/search/", func(c *gin.Context) { s.search(c, "articles") })
	r.GET("/articles/:id/comments/", s.articleComments)
	auth.POST("/comments/:id/add_reply/", s.addReply)

	auth.GET("/groups/", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"id": 1, "name": "editors"}})
	})
	admin := auth.Group("", s.adminRequired)
	admin.GET("/admin/users/", s.adminUsers)
	admin.GET("/admin/users/:id/", s.adminUser)
	admin.PATCH("/admin/users/:id/", s.adminUser)
	admin.DELETE("/admin/users/:id/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	admin.GET("/admin/stats/", func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{
			"total_users":    len(s.users),
			"total_articles": len(s.collections["articles"]),
			"total_comments": len(s.collections["comments"]),
		})
	})
	admin.GET("/admin/activity/", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{})
	})
	return r
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"detail": "Given token not valid for any token type",
		"code":   "token_not_valid",
	})
}

func (s *Server) verify(raw, typ string) (string, bool) {
	parsed, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != typ {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	return sub, sub != ""
}

func (s *Server) authRequired(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		unauthorized(c)
		return
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	s.mu.Lock()
	revoked := s.revoked[raw]
	s.mu.Unlock()
	if revoked {
		unauthorized(c)
		return
	}
	sub, ok := s.verify(raw, "access")
	if !ok {
		unauthorized(c)
		return
	}
	c.Set("username", sub)
	c.Next()
}

func (s *Server) adminRequired(c *gin.Context) {
	username := c.GetString("username")
	s.mu.Lock()
	rec := s.users[username]
	s.mu.Unlock()
	if rec == nil || !rec.Admin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
		return
	}
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	rec := s.users[req.Username]
	s.mu.Unlock()
	if rec == nil || rec.Password != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username/password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access":       s.MintAccess(req.Username, s.AccessTTL),
		"refresh":      s.MintRefresh(req.Username, s.RefreshTTL),
		"user_id":      rec.ID,
		"username":     req.Username,
		"email":        rec.Email,
		"is_admin":     rec.Admin,
		"is_superuser": rec.Superuser,
		"permissions":  []string{},
		"groups":       rec.Groups,
	})
}

func (s *Server) refresh(c *gin.Context) {
	s.mu.Lock()
	s.refreshCalls++
	fail := s.failRefresh
	rotate := s.rotateRefresh
	s.mu.Unlock()

	if s.RefreshDelay > 0 {
		time.Sleep(s.RefreshDelay)
	}
	if fail {
		unauthorized(c)
		return
	}
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, ok := s.verify(req.Refresh, "refresh")
	if !ok {
		unauthorized(c)
		return
	}
	resp := gin.H{"access": s.MintAccess(sub, s.AccessTTL)}
	if rotate {
		resp["refresh"] = s.MintRefresh(sub, s.RefreshTTL)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	s.AddUser(req.Username, req.Password, false, false)
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (s *Server) profile(c *gin.Context) {
	username := c.GetString("username")
	s.mu.Lock()
	rec := s.users[username]
	s.mu.Unlock()
	if rec == nil {
		unauthorized(c)
		return
	}
	groups := rec.Groups
	if groups == nil {
		groups = []gin.H{}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           rec.ID,
		"username":     username,
		"email":        rec.Email,
		"is_staff":     rec.Admin,
		"is_superuser": rec.Superuser,
		"groups":       groups,
	})
}

func (s *Server) list(c *gin.Context, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.collections[collection]
	if items == nil {
		items = []gin.H{}
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) find(c *gin.Context, collection string) (gin.H, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return nil, false
	}
	for _, item := range s.collections[collection] {
		if item["id"] == id {
			return item, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	return nil, false
}

func (s *Server) get(c *gin.Context, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.find(c, collection); ok {
		c.JSON(http.StatusOK, item)
	}
}

func (s *Server) create(c *gin.Context, collection string) {
	var item map[string]any
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	id := s.insert(collection, item)
	item["id"] = id
	s.mu.Unlock()
	c.JSON(http.StatusCreated, item)
}

func (s *Server) update(c *gin.Context, collection string) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.find(c, collection)
	if !ok {
		return
	}
	for k, v := range patch {
		if k != "id" {
			item[k] = v
		}
	}
	c.JSON(http.StatusOK, item)
}

func (s *Server) remove(c *gin.Context, collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.find(c, collection)
	if !ok {
		return
	}
	items := s.collections[collection]
	for i := range items {
		if items[i]["id"] == item["id"] {
			s.collections[collection] = append(items[:i], items[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) search(c *gin.Context, collection string) {
	q := strings.ToLower(c.Query("q"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, item := range s.collections[collection] {
		title, _ := item["title"].(string)
		if q == "" || strings.Contains(strings.ToLower(title), q) {
			out = append(out, item)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) articleComments(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for _, item := range s.collections["comments"] {
		if article, ok := item["article"]; ok && toInt64(article) == id {
			out = append(out, item)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addReply(c *gin.Context) {
	parentID, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req["parent"] = parentID
	id := s.insert("comments", req)
	req["id"] = id
	c.JSON(http.StatusCreated, req)
}

func (s *Server) adminUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []gin.H{}
	for name, rec := range s.users {
		out = append(out, gin.H{
			"id": rec.ID, "username": name, "email": rec.Email,
			"is_staff": rec.Admin, "groups": []int64{},
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminUser(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, rec := range s.users {
		if rec.ID == id {
			c.JSON(http.StatusOK, gin.H{
				"id": rec.ID, "username": name, "email": rec.Email,
				"is_staff": rec.Admin, "groups": []int64{},
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}
