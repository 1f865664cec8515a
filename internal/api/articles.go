package api

import (
	"context"
	"fmt"
	"net/url"
)

// ArticleInput is the writable subset of an article.
type ArticleInput struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Categories []int64 `json:"categories,omitempty"`
	Tags       []int64 `json:"tags,omitempty"`
}

// Articles accesses the article resource.
type Articles struct {
	d Doer
}

func NewArticles(d Doer) *Articles { return &Articles{d: d} }

func (a *Articles) List(ctx context.Context) ([]Article, error) {
	return getList[Article](ctx, a.d, "/articles/")
}

func (a *Articles) Get(ctx context.Context, id int64) (*Article, error) {
	var out Article
	if err := a.d.Get(ctx, fmt.Sprintf("/articles/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Articles) Create(ctx context.Context, in ArticleInput) (*Article, error) {
	var out Article
	if err := a.d.Post(ctx, "/articles/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Articles) Update(ctx context.Context, id int64, in ArticleInput) (*Article, error) {
	var out Article
	if err := a.d.Put(ctx, fmt.Sprintf("/articles/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Articles) Delete(ctx context.Context, id int64) error {
	return a.d.Delete(ctx, fmt.Sprintf("/articles/%d/", id))
}

// Search matches articles against a free-text query.
func (a *Articles) Search(ctx context.Context, query string) ([]Article, error) {
	return getList[Article](ctx, a.d, "/articles/search/?q="+url.QueryEscape(query))
}

// Comments lists the comment tree of one article.
func (a *Articles) Comments(ctx context.Context, id int64) ([]Comment, error) {
	return getList[Comment](ctx, a.d, fmt.Sprintf("/articles/%d/comments/", id))
}
