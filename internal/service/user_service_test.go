package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/facilita/notifier/internal/model"
	"github.com/facilita/notifier/internal/service"
	"github.com/facilita/notifier/internal/storage"
	storagemocks "github.com/facilita/notifier/internal/storage/mocks"
)

func TestUserService_Create(t *testing.T) {
	store := &storagemocks.MockUserStore{}
	store.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
	svc := service.NewUserService(store)

	u, err := svc.Create(context.Background(), model.User{Name: " Ana ", Email: "ana@example.com", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, model.RoleCollaborator, u.Role)
	store.AssertExpectations(t)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc := service.NewUserService(&storagemocks.MockUserStore{})

	tests := []struct {
		name  string
		user  model.User
		field string
	}{
		{"missing name", model.User{Email: "a@b.c"}, "name"},
		{"bad email", model.User{Name: "Ana", Email: "not-an-email"}, "email"},
		{"bad role", model.User{Name: "Ana", Email: "a@b.c", Role: "ROOT"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.user)
			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestUserService_CreateDuplicate(t *testing.T) {
	store := &storagemocks.MockUserStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(storage.ErrDuplicate)
	svc := service.NewUserService(store)

	_, err := svc.Create(context.Background(), model.User{Name: "Ana", Email: "Ana@example.com"})
	var ce *service.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ana@example.com", ce.ID)
}

func TestUserService_GetActiveNotFound(t *testing.T) {
	store := &storagemocks.MockUserStore{}
	store.On("GetActive", mock.Anything, "gone").Return(nil, storage.ErrNotFound)
	store.On("Get", mock.Anything, "gone").Return(nil, storage.ErrNotFound)
	svc := service.NewUserService(store)

	var nf *service.NotFoundError
	_, err := svc.GetActive(context.Background(), "gone")
	require.ErrorAs(t, err, &nf)
	_, err = svc.Get(context.Background(), "gone")
	require.ErrorAs(t, err, &nf)
}

func TestUserService_ListNeverNil(t *testing.T) {
	store := &storagemocks.MockUserStore{}
	store.On("List", mock.Anything).Return(nil, nil)
	svc := service.NewUserService(store)

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
}
