// Package repository handles all interactions with the user store.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting storage away from the service layer.
package repository

import (
	"context"

	"github.com/deppfellow/user-api/internal/model"
)

// UserRepository persists users. Implementations return ids in descending
// order, which for v7 ids is newest first.
type UserRepository interface {
	Create(ctx context.Context, name string, age int) (*model.User, error)
	Find(ctx context.Context, q model.UserQuery) ([]model.User, error)
	// UpdateMany applies changes to every user in ids and reports how many
	// rows actually changed.
	UpdateMany(ctx context.Context, ids []string, changes model.UserChanges) (int64, error)
}
