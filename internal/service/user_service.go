package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/storage"
)

// UserService manages portal users.
type UserService interface {
	Create(ctx context.Context, u model.User) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	// GetActive returns NotFoundError for unknown or inactive users.
	GetActive(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type userServiceImpl struct {
	store storage.UserStore
}

// NewUserService creates a new UserService.
func NewUserService(store storage.UserStore) UserService {
	return &userServiceImpl{store: store}
}

func (s *userServiceImpl) Create(ctx context.Context, u model.User) (*model.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return nil, &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if u.Role == "" {
		u.Role = model.RoleCollaborator
	}
	if !u.Role.Valid() {
		return nil, &ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", u.Role)}
	}

	if err := s.store.Create(ctx, &u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &ConflictError{Resource: "user", ID: strings.ToLower(u.Email)}
		}
		return nil, err
	}
	return &u, nil
}

func (s *userServiceImpl) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	return u, err
}

func (s *userServiceImpl) GetActive(ctx context.Context, id string) (*model.User, error) {
	u, err := s.store.GetActive(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user", ID: id}
	}
	return u, err
}

func (s *userServiceImpl) List(ctx context.Context) ([]model.User, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}
