package service

import (
	"context"

	"github.com/deppfellow/user-api/internal/model"
)

const (
	// DefaultPageSize applies when a listing does not ask for a page size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a listing may ask for.
	MaxPageSize = 500
)

// Finder is the read side of the user store.
type Finder interface {
	Find(ctx context.Context, q model.UserQuery) ([]model.User, error)
}

// ListFilter narrows a listing. Zero-valued fields do not filter.
type ListFilter struct {
	NameSearch string
	IDs        []string
}

// ListPage fetches the page of users strictly before cursor, newest first.
func ListPage(ctx context.Context, finder Finder, filter ListFilter, cursor string, pageSize int) (*model.Page, error) {
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	users, err := finder.Find(ctx, model.UserQuery{
		Before:     cursor,
		NameSearch: filter.NameSearch,
		IDs:        filter.IDs,
		Limit:      pageSize,
	})
	if err != nil {
		return nil, err
	}

	return NewPage(users, pageSize), nil
}

// NewPage wraps one page of rows. A full page carries the id of its last row
// as the next cursor, even when no rows follow.
func NewPage(users []model.User, pageSize int) *model.Page {
	if users == nil {
		users = []model.User{}
	}

	page := &model.Page{Users: users}
	if len(users) > 0 && len(users) >= pageSize {
		page.NextPageCursor = users[len(users)-1].ID
	}
	return page
}
