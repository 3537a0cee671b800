package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListByAction(ctx context.Context, tenantID string, action Action, limit int) ([]Entry, error) {
	args := m.Called(ctx, tenantID, action, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *MockRepository) ListByAttendance(ctx context.Context, tenantID, attendanceID string) ([]Entry, error) {
	args := m.Called(ctx, tenantID, attendanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func TestService_ListConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("clamps limit to default", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListByAction", ctx, "scit", ActionConflict, defaultReviewLimit).
			Return([]Entry{{ID: "a1", Action: ActionConflict}}, nil)

		svc := NewService(repo, slog.Default())
		entries, err := svc.ListConflicts(ctx, "scit", 0)

		assert.NoError(t, err)
		assert.Len(t, entries, 1)
		repo.AssertExpectations(t)
	})

	t.Run("propagates repository error", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ListByAction", ctx, "scit", ActionConflict, 10).
			Return(nil, errors.New("boom"))

		svc := NewService(repo, slog.Default())
		entries, err := svc.ListConflicts(ctx, "scit", 10)

		assert.Error(t, err)
		assert.Nil(t, entries)
	})
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("ListByAttendance", ctx, "scit", "att-1").
		Return([]Entry{{Action: ActionCreated}, {Action: ActionConflict}}, nil)

	svc := NewService(repo, slog.Default())
	entries, err := svc.History(ctx, "scit", "att-1")

	assert.NoError(t, err)
	assert.Equal(t, ActionCreated, entries[0].Action)
	assert.Equal(t, ActionConflict, entries[1].Action)
}
