package api

import (
	"context"
	"fmt"
)

// AdminUserPatch holds the fields the admin user editor can change. Nil
// fields are left untouched.
type AdminUserPatch struct {
	Email   *string  `json:"email,omitempty"`
	IsStaff *bool    `json:"is_staff,omitempty"`
	Groups  *[]int64 `json:"groups,omitempty"`
}

// Admin accesses the staff-only management endpoints.
type Admin struct {
	d Doer
}

func NewAdmin(d Doer) *Admin { return &Admin{d: d} }

func (a *Admin) Users(ctx context.Context) ([]AdminUser, error) {
	return getList[AdminUser](ctx, a.d, "/admin/users/")
}

func (a *Admin) User(ctx context.Context, id int64) (*AdminUser, error) {
	var out AdminUser
	if err := a.d.Get(ctx, fmt.Sprintf("/admin/users/%d/", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) UpdateUser(ctx context.Context, id int64, patch AdminUserPatch) (*AdminUser, error) {
	var out AdminUser
	if err := a.d.Patch(ctx, fmt.Sprintf("/admin/users/%d/", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) DeleteUser(ctx context.Context, id int64) error {
	return a.d.Delete(ctx, fmt.Sprintf("/admin/users/%d/", id))
}

func (a *Admin) Stats(ctx context.Context) (*SiteStats, error) {
	var out SiteStats
	if err := a.d.Get(ctx, "/admin/stats/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *Admin) Activity(ctx context.Context) ([]ActivityEntry, error) {
	return getList[ActivityEntry](ctx, a.d, "/admin/activity/")
}

func (a *Admin) Groups(ctx context.Context) ([]Group, error) {
	return getList[Group](ctx, a.d, "/groups/")
}
