package api

import (
	"context"
	"fmt"
)

// Tags accesses the tag resource.
type Tags struct {
	d Doer
}

func NewTags(d Doer) *Tags { return &Tags{d: d} }

func (t *Tags) List(ctx context.Context) ([]Tag, error) {
	return getList[Tag](ctx, t.d, "/tags/")
}

func (t *Tags) Create(ctx context.Context, name string) (*Tag, error) {
	var out Tag
	if err := t.d.Post(ctx, "/tags/", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tags) Update(ctx context.Context, id int64, name string) (*Tag, error) {
	var out Tag
	if err := t.d.Put(ctx, fmt.Sprintf("/tags/%d/", id), map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Tags) Delete(ctx context.Context, id int64) error {
	return t.d.Delete(ctx, fmt.Sprintf("/tags/%d/", id))
}

// CategoryInput is the writable subset of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Categories accesses the category resource.
type Categories struct {
	d Doer
}

func NewCategories(d Doer) *Categories { return &Categories{d: d} }

func (c *Categories) List(ctx context.Context) ([]Category, error) {
	return getList[Category](ctx, c.d, "/categories/")
}

func (c *Categories) Get(ctx context.Context, id int64) (*Category, error) {
	var out Category
	if err := c.d.Get(ctx, fmt.Sprintf("/categories/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Categories) Create(ctx context.Context, in CategoryInput) (*Category, error) {
	var out Category
	if err := c.d.Post(ctx, "/categories/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Categories) Update(ctx context.Context, id int64, in CategoryInput) (*Category, error) {
	var out Category
	if err := c.d.Put(ctx, fmt.Sprintf("/categories/%d/", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Categories) Delete(ctx context.Context, id int64) error {
	return c.d.Delete(ctx, fmt.Sprintf("/categories/%d/", id))
}
