package sessions

import (
	"context"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"ghdash/models"
)

// MockSessionsService is a mock implementation of the SessionsService interface
type MockSessionsService struct {
	mock.Mock
}

func (m *MockSessionsService) CreateSession(ctx context.Context, record models.TokenRecord) (*models.Session, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionsService) GetSession(ctx context.Context, id string) (mo.Option[*models.Session], error) {
	args := m.Called(ctx, id)
	return args.Get(0).(mo.Option[*models.Session]), args.Error(1)
}

func (m *MockSessionsService) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionsService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
