package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doronEilam/blog/internal/apitest"
	"github.com/doronEilam/blog/internal/client"
	"github.com/doronEilam/blog/internal/credentials"
	"github.com/doronEilam/blog/internal/session"
)

func newDoer(t *testing.T, srv *apitest.Server, username, password string) Doer {
	t.Helper()
	m := session.NewManager(srv.URL, credentials.NewMemoryStore())
	_, err := m.Login(context.Background(), username, password)
	require.NoError(t, err)
	return client.New(srv.URL, m)
}

func TestArticles_CRUD(t *testing.T) {
	srv := apitest.New(t)
	articles := NewArticles(newDoer(t, srv, "admin", "secret"))
	ctx := context.Background()

	created, err := articles.Create(ctx, ArticleInput{Title: "First post", Content: "hello"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "First post", created.Title)

	got, err := articles.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	updated, err := articles.Update(ctx, created.ID, ArticleInput{Title: "Edited", Content: "hello"})
	require.NoError(t, err)
	require.Equal(t, "Edited", updated.Title)

	all, err := articles.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, articles.Delete(ctx, created.ID))
	_, err = articles.Get(ctx, created.ID)
	require.True(t, client.IsNotFound(err))
}

func TestArticles_Search(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("articles", map[string]any{"title": "Go concurrency patterns"})
	srv.Seed("articles", map[string]any{"title": "Gardening for beginners"})
	articles := NewArticles(newDoer(t, srv, "alice", "wonderland"))

	hits, err := articles.Search(context.Background(), "concurrency")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Go concurrency patterns", hits[0].Title)
}

func TestComments_ReplyFlow(t *testing.T) {
	srv := apitest.New(t)
	articleID := srv.Seed("articles", map[string]any{"title": "Discuss"})
	d := newDoer(t, srv, "alice", "wonderland")
	comments := NewComments(d)
	articles := NewArticles(d)
	ctx := context.Background()

	root, err := comments.Create(ctx, CommentInput{Article: articleID, Content: "nice post"})
	require.NoError(t, err)

	reply, err := comments.Reply(ctx, root.ID, "agreed")
	require.NoError(t, err)
	require.NotNil(t, reply.Parent)
	require.Equal(t, root.ID, *reply.Parent)

	onArticle, err := articles.Comments(ctx, articleID)
	require.NoError(t, err)
	require.Len(t, onArticle, 1, "replies must not appear as top-level article comments")
}

func TestTagsAndCategories(t *testing.T) {
	srv := apitest.New(t)
	d := newDoer(t, srv, "admin", "secret")
	tags := NewTags(d)
	categories := NewCategories(d)
	ctx := context.Background()

	tag, err := tags.Create(ctx, "golang")
	require.NoError(t, err)
	listed, err := tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NoError(t, tags.Delete(ctx, tag.ID))

	cat, err := categories.Create(ctx, CategoryInput{Name: "Tech", Description: "all things tech"})
	require.NoError(t, err)
	cat, err = categories.Update(ctx, cat.ID, CategoryInput{Name: "Technology"})
	require.NoError(t, err)
	require.Equal(t, "Technology", cat.Name)
	require.NoError(t, categories.Delete(ctx, cat.ID))
}

func TestAdmin_Endpoints(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("articles", map[string]any{"title": "one"})
	srv.Seed("comments", map[string]any{"article": 1, "content": "hi"})
	admin := NewAdmin(newDoer(t, srv, "admin", "secret"))
	ctx := context.Background()

	users, err := admin.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 1, stats.TotalArticles)
	require.Equal(t, 1, stats.TotalComments)

	groups, err := admin.Groups(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	_, err = admin.Activity(ctx)
	require.NoError(t, err)
}

func TestAdmin_ForbiddenForRegularUser(t *testing.T) {
	srv := apitest.New(t)
	admin := NewAdmin(newDoer(t, srv, "alice", "wonderland"))

	_, err := admin.Stats(context.Background())
	require.True(t, client.IsStatus(err, 403))
}
