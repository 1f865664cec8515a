package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// Doer is the slice of the request dispatcher the resource services need.
type Doer interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// getList fetches a collection endpoint. The server answers some endpoints
// with a bare array and paginated ones with a {"results": [...]} envelope;
// both decode to the same slice.
func getList[T any](ctx context.Context, d Doer, path string) ([]T, error) {
	var raw json.RawMessage
	if err := d.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var envelope struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode list %s: %w", path, err)
	}
	return envelope.Results, nil
}
