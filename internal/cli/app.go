package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/doronEilam/blog/internal/api"
	"github.com/doronEilam/blog/internal/client"
	"github.com/doronEilam/blog/internal/config"
	"github.com/doronEilam/blog/internal/credentials"
	"github.com/doronEilam/blog/internal/session"
	"github.com/doronEilam/blog/pkg/logger"
)

// app wires configuration, credential storage, the session manager and the
// dispatcher together for one command invocation.
type app struct {
	cfg     *config.Config
	session *session.Manager
	client  *client.Client
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(cfg.API.BaseURL, store,
		session.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		session.WithExpiredHook(func(reason string) {
			logger.Warnf("session expired: %s", reason)
			fmt.Fprintln(os.Stderr, "Session expired. Run \"blogctl login\" to sign in again.")
		}),
	)

	opts := []client.Option{client.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout})}
	if cfg.RateLimit.Enabled {
		opts = append(opts, client.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	return &app{
		cfg:     cfg,
		session: mgr,
		client:  client.New(cfg.API.BaseURL, mgr, opts...),
	}, nil
}

func newStore(cfg *config.Config) (credentials.Store, error) {
	switch cfg.Storage.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return credentials.NewRedisStore(rdb, "blogctl"), nil
	case "memory":
		return credentials.NewMemoryStore(), nil
	default:
		path := cfg.Storage.Path
		if path == "" {
			var err error
			if path, err = credentials.DefaultFilePath(); err != nil {
				return nil, fmt.Errorf("resolve credential path: %w", err)
			}
		}
		return credentials.NewFileStore(path)
	}
}

// restore revives a previous session if credentials are on disk. Commands
// that tolerate anonymous access call it and ignore a nil user.
func (a *app) restore(ctx context.Context) (*session.User, error) {
	return a.session.Restore(ctx)
}

// requireSession revives the session and fails if nobody is signed in.
func (a *app) requireSession(ctx context.Context) error {
	user, err := a.restore(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("not logged in; run \"blogctl login\" first")
	}
	return nil
}

func (a *app) articles() *api.Articles     { return api.NewArticles(a.client) }
func (a *app) comments() *api.Comments     { return api.NewComments(a.client) }
func (a *app) tags() *api.Tags             { return api.NewTags(a.client) }
func (a *app) categories() *api.Categories { return api.NewCategories(a.client) }
func (a *app) admin() *api.Admin           { return api.NewAdmin(a.client) }

// commandContext cancels on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// run wraps a command body with app construction and signal handling.
func run(body func(ctx context.Context, a *app, w io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		a, err := newApp()
		if err != nil {
			return err
		}
		return body(ctx, a, cmd.OutOrStdout())
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
