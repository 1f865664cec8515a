package api

import (
	"context"
	"fmt"
)

// CommentInput is the writable subset of a comment.
type CommentInput struct {
	Article int64  `json:"article"`
	Content string `json:"content"`
	Parent  *int64 `json:"parent,omitempty"`
}

// Comments accesses the comment resource.
type Comments struct {
	d Doer
}

func NewComments(d Doer) *Comments { return &Comments{d: d} }

func (c *Comments) List(ctx context.Context) ([]Comment, error) {
	return getList[Comment](ctx, c.d, "/comments/")
}

func (c *Comments) Get(ctx context.Context, id int64) (*Comment, error) {
	var out Comment
	if err := c.d.Get(ctx, fmt.Sprintf("/comments/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Comments) Create(ctx context.Context, in CommentInput) (*Comment, error) {
	var out Comment
	if err := c.d.Post(ctx, "/comments/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Comments) Update(ctx context.Context, id int64, content string) (*Comment, error) {
	var out Comment
	body := map[string]string{"content": content}
	if err := c.d.Put(ctx, fmt.Sprintf("/comments/%d/", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Comments) Delete(ctx context.Context, id int64) error {
	return c.d.Delete(ctx, fmt.Sprintf("/comments/%d/", id))
}

// Reply attaches a child comment to an existing one.
func (c *Comments) Reply(ctx context.Context, parentID int64, content string) (*Comment, error) {
	var out Comment
	body := map[string]string{"content": content}
	if err := c.d.Post(ctx, fmt.Sprintf("/comments/%d/add_reply/", parentID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
