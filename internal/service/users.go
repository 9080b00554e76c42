package service

import (
	"context"

	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/errs"
	"github.com/deppfellow/user-api/internal/model"
	"github.com/deppfellow/user-api/internal/repository"
	"github.com/rs/zerolog"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest, identity *auth.Identity, logger *zerolog.Logger) (*model.User, error) {
	user, err := s.users.Create(ctx, req.Name, *req.Age)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("user_id", user.ID).
		Str("actor", subject(identity)).
		Msg("user created")

	return user, nil
}

func (s *UserService) List(ctx context.Context, req model.ListUsersRequest, _ *auth.Identity, _ *zerolog.Logger) (*model.Page, error) {
	return ListPage(ctx, s.users, ListFilter{
		NameSearch: req.Q,
		IDs:        req.ID,
	}, req.Page, req.Count)
}

// Update applies the same changes to every listed user.
func (s *UserService) Update(ctx context.Context, req model.UpdateUsersRequest, identity *auth.Identity, logger *zerolog.Logger) (*model.UpdateUsersResponse, error) {
	changes := model.UserChanges{Name: req.Name, Age: req.Age}
	if changes.Empty() {
		return nil, errs.NewNoChangesError()
	}

	affected, err := s.users.UpdateMany(ctx, req.ID, changes)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Int("requested", len(req.ID)).
		Int64("affected", affected).
		Str("actor", subject(identity)).
		Msg("users updated")

	return &model.UpdateUsersResponse{UsersAffected: affected}, nil
}

func subject(identity *auth.Identity) string {
	if identity == nil {
		return ""
	}
	return identity.Subject
}
