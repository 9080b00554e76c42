package repository

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/deppfellow/user-api/internal/errs"
	"github.com/deppfellow/user-api/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MemoryUsers keeps users in process memory. Data is lost on restart.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
	now   func() time.Time
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		users: make(map[string]model.User),
		now:   time.Now,
	}
}

func (r *MemoryUsers) Create(_ context.Context, name string, age int) (*model.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generating user id")
	}

	now := r.now().UTC()
	user := model.User{
		ID:        id.String(),
		Name:      name,
		Age:       age,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.users[user.ID] = user
	r.mu.Unlock()

	return &user, nil
}

func (r *MemoryUsers) Find(_ context.Context, q model.UserQuery) ([]model.User, error) {
	var search *regexp.Regexp
	if q.NameSearch != "" {
		var err error
		if search, err = regexp.Compile(q.NameSearch); err != nil {
			return nil, errs.NewValidationError("The search expression is not a valid regular expression", nil)
		}
	}

	before := strings.ToLower(q.Before)
	ids := make([]string, len(q.IDs))
	for i, id := range q.IDs {
		ids[i] = strings.ToLower(id)
	}

	r.mu.RLock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		if before != "" && u.ID >= before {
			continue
		}
		if search != nil && !search.MatchString(u.Name) {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, u.ID) {
			continue
		}
		users = append(users, u)
	}
	r.mu.RUnlock()

	slices.SortFunc(users, func(a, b model.User) int {
		return strings.Compare(b.ID, a.ID)
	})
	if q.Limit > 0 && len(users) > q.Limit {
		users = users[:q.Limit]
	}
	return users, nil
}

func (r *MemoryUsers) UpdateMany(_ context.Context, ids []string, changes model.UserChanges) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, id := range ids {
		u, ok := r.users[strings.ToLower(id)]
		if !ok {
			continue
		}

		changed := false
		if changes.Name != nil && u.Name != *changes.Name {
			u.Name = *changes.Name
			changed = true
		}
		if changes.Age != nil && u.Age != *changes.Age {
			u.Age = *changes.Age
			changed = true
		}
		if !changed {
			continue
		}

		u.UpdatedAt = r.now().UTC()
		r.users[u.ID] = u
		affected++
	}
	return affected, nil
}
