package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/facilita/notifier/internal/model"
)

// MockContentEventService is a mock implementation of service.ContentEventService.
type MockContentEventService struct {
	mock.Mock
}

//nolint:revive
func (m *MockContentEventService) Publish(ev model.ContentEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}
