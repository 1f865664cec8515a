// Package api provides typed access to the blog's REST resources on top of
// the authenticated dispatcher.
package api

import "time"

// Article is a blog post as the API serves it. CategoryDetails and
// TagDetails are expanded objects; Categories and Tags carry the raw ids
// used when writing.
type Article struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Author          int64      `json:"author"`
	AuthorName      string     `json:"author_name"`
	Categories      []int64    `json:"categories,omitempty"`
	Tags            []int64    `json:"tags,omitempty"`
	CategoryDetails []Category `json:"category_details,omitempty"`
	TagDetails      []Tag      `json:"tag_details,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Comment can carry nested replies one level deep.
type Comment struct {
	ID         int64     `json:"id"`
	Author     int64     `json:"author"`
	AuthorName string    `json:"author_name"`
	Article    int64     `json:"article"`
	Parent     *int64    `json:"parent,omitempty"`
	Content    string    `json:"content"`
	Replies    []Comment `json:"replies,omitempty"`
	ReplyCount int       `json:"reply_count"`
	IsAuthor   bool      `json:"is_author"`
	IsAdmin    bool      `json:"is_admin"`
	CanDelete  bool      `json:"can_delete"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// AdminUser is the user shape returned by the admin endpoints.
type AdminUser struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	IsStaff   bool    `json:"is_staff"`
	Groups    []int64 `json:"groups"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SiteStats is the aggregate counters behind the admin dashboard.
type SiteStats struct {
	TotalUsers    int `json:"total_users"`
	TotalArticles int `json:"total_articles"`
	TotalComments int `json:"total_comments"`
}

// ActivityEntry is one row of the admin activity feed.
type ActivityEntry struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
