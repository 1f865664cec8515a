package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doronEilam/blog/internal/apitest"
)

func execute(t *testing.T, srv *apitest.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BLOG_API_URL", srv.URL)
	t.Setenv("BLOG_STORAGE_BACKEND", "memory")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoginCommand(t *testing.T) {
	srv := apitest.New(t)

	out, err := execute(t, srv, "login", "-u", "admin", "-p", "secret")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as admin")
	require.Contains(t, out, "(staff)")
}

func TestLoginCommand_BadPassword(t *testing.T) {
	srv := apitest.New(t)

	_, err := execute(t, srv, "login", "-u", "admin", "-p", "nope")
	require.Error(t, err)
}

func TestArticlesListCommand_Anonymous(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("articles", map[string]any{"title": "Hello world", "author_name": "admin"})

	out, err := execute(t, srv, "articles", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Hello world")
}

func TestArticlesCreateCommand_RequiresLogin(t *testing.T) {
	srv := apitest.New(t)

	// memory backend holds no credentials across invocations
	_, err := execute(t, srv, "articles", "create", "-t", "Draft", "-c", "text")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not logged in")
}
