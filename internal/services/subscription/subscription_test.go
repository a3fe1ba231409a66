package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/models"
)

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) GetActiveSubscription(ctx context.Context, username string) (*models.UserSubscription, error) {
	args := m.Called(ctx, username)
	sub, _ := args.Get(0).(*models.UserSubscription)
	return sub, args.Error(1)
}

func (m *mockSubscriptionRepo) GetPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, name)
	plan, _ := args.Get(0).(*models.SubscriptionPlan)
	return plan, args.Error(1)
}

func (m *mockSubscriptionRepo) CreateSubscription(ctx context.Context, sub models.UserSubscription) (int64, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubscriptionRepo) IncrementUsage(ctx context.Context, subscriptionID int64, count int) error {
	args := m.Called(ctx, subscriptionID, count)
	return args.Error(0)
}

func (m *mockSubscriptionRepo) ResetUsage(ctx context.Context, subscriptionID int64, resetDate time.Time) error {
	args := m.Called(ctx, subscriptionID, resetDate)
	return args.Error(0)
}

// noopCache всегда промахивается, сервис ходит прямо в репозиторий.
type noopCache struct{}

func (noopCache) Get(key string, result any) (bool, error)                  { return false, nil }
func (noopCache) Set(key string, value any, expiration time.Duration) error { return nil }
func (noopCache) Invalidate(key string) error                               { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *mockSubscriptionRepo, now time.Time) *SubscriptionService {
	svc := NewSubscriptionService(repo, noopCache{}, discardLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func starterSub(now time.Time, used int) *models.UserSubscription {
	return &models.UserSubscription{
		ID:                 1,
		Username:           "alice",
		PlanID:             2,
		Status:             models.SubscriptionStatusActive,
		StartDate:          now.AddDate(0, -2, 0),
		LeadsUsedThisMonth: used,
		LastResetDate:      now.AddDate(0, 0, -10),
		Plan: &models.SubscriptionPlan{
			ID:        2,
			Name:      "Starter",
			Price:     29,
			LeadLimit: 100,
		},
	}
}

func TestAvailableCredits(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		sub      *models.UserSubscription
		expected int
	}{
		{
			name:     "без подписки возвращается бесплатный лимит",
			sub:      nil,
			expected: 10,
		},
		{
			name:     "остаток равен лимиту минус использованное",
			sub:      starterSub(now, 37),
			expected: 63,
		},
		{
			name:     "лимит исчерпан",
			sub:      starterSub(now, 100),
			expected: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mockSubscriptionRepo)
			repo.On("GetActiveSubscription", mock.Anything, "alice").Return(tc.sub, nil)

			svc := newTestService(repo, now)
			credits, err := svc.AvailableCredits(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, credits)

			// чтение баланса не должно заводить строку подписки
			repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
			repo.AssertExpectations(t)
		})
	}
}

func TestCanProcess_CreatesFreeSubscriptionLazily(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	freePlan := &models.SubscriptionPlan{ID: 1, Name: "Free", LeadLimit: 10}

	repo := new(mockSubscriptionRepo)
	repo.On("GetActiveSubscription", mock.Anything, "bob").Return(nil, nil).Once()
	repo.On("GetPlanByName", mock.Anything, "Free").Return(freePlan, nil)
	repo.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(sub models.UserSubscription) bool {
		return sub.Username == "bob" &&
			sub.PlanID == int64(1) &&
			sub.Status == models.SubscriptionStatusActive &&
			sub.LeadsUsedThisMonth == 0
	})).Return(int64(5), nil)
	repo.On("GetActiveSubscription", mock.Anything, "bob").Return(&models.UserSubscription{
		ID:            5,
		Username:      "bob",
		PlanID:        1,
		Status:        models.SubscriptionStatusActive,
		LastResetDate: now,
		Plan:          freePlan,
	}, nil).Once()

	svc := newTestService(repo, now)
	ok, err := svc.CanProcess(context.Background(), "bob", 7)
	require.NoError(t, err)
	assert.True(t, ok)
	repo.AssertExpectations(t)
}

func TestCanProcess_MissingFreePlanDegrades(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	repo := new(mockSubscriptionRepo)
	repo.On("GetActiveSubscription", mock.Anything, "bob").Return(nil, nil)
	repo.On("GetPlanByName", mock.Anything, "Free").Return(nil, nil)

	svc := newTestService(repo, now)

	// отсутствие тарифа Free — ошибка конфигурации, а не ошибка вызова:
	// подписка не создается, проверка квоты отвечает отказом
	ok, err := svc.CanProcess(context.Background(), "bob", 3)
	require.NoError(t, err)
	assert.False(t, ok)
	repo.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestCanProcess_RejectsWhenNotEnoughCredits(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	repo := new(mockSubscriptionRepo)
	repo.On("GetActiveSubscription", mock.Anything, "alice").Return(starterSub(now, 98), nil)

	svc := newTestService(repo, now)

	ok, err := svc.CanProcess(context.Background(), "alice", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanProcess(context.Background(), "alice", 2)
	require.NoError(t, err)
	assert.True(t, ok, "ровно доступное количество должно проходить")
}

func TestResetIfDue(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("сброс после 30 дней", func(t *testing.T) {
		sub := starterSub(now, 80)
		sub.LastResetDate = now.AddDate(0, 0, -31)

		repo := new(mockSubscriptionRepo)
		repo.On("GetActiveSubscription", mock.Anything, "alice").Return(sub, nil)
		repo.On("ResetUsage", mock.Anything, int64(1), now.UTC()).Return(nil).Once()

		svc := newTestService(repo, now)
		require.NoError(t, svc.ResetIfDue(context.Background(), "alice"))

		assert.Equal(t, 0, sub.LeadsUsedThisMonth)
		assert.Equal(t, now.UTC(), sub.LastResetDate)
		repo.AssertExpectations(t)

		// повторный вызов в том же окне ничего не делает
		require.NoError(t, svc.ResetIfDue(context.Background(), "alice"))
		repo.AssertNumberOfCalls(t, "ResetUsage", 1)
	})

	t.Run("до 30 дней счётчик не трогается", func(t *testing.T) {
		sub := starterSub(now, 80)
		sub.LastResetDate = now.AddDate(0, 0, -29)

		repo := new(mockSubscriptionRepo)
		repo.On("GetActiveSubscription", mock.Anything, "alice").Return(sub, nil)

		svc := newTestService(repo, now)
		require.NoError(t, svc.ResetIfDue(context.Background(), "alice"))

		assert.Equal(t, 80, sub.LeadsUsedThisMonth)
		repo.AssertNotCalled(t, "ResetUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("без подписки ничего не происходит", func(t *testing.T) {
		repo := new(mockSubscriptionRepo)
		repo.On("GetActiveSubscription", mock.Anything, "ghost").Return(nil, nil)

		svc := newTestService(repo, now)
		require.NoError(t, svc.ResetIfDue(context.Background(), "ghost"))
		repo.AssertNotCalled(t, "ResetUsage", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDebit(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("списание увеличивает счётчик", func(t *testing.T) {
		repo := new(mockSubscriptionRepo)
		repo.On("GetActiveSubscription", mock.Anything, "alice").Return(starterSub(now, 5), nil)
		repo.On("IncrementUsage", mock.Anything, int64(1), 1).Return(nil).Once()

		svc := newTestService(repo, now)
		require.NoError(t, svc.Debit(context.Background(), "alice", 1))
		repo.AssertExpectations(t)
	})

	t.Run("списание без подписки — предупреждение, не ошибка", func(t *testing.T) {
		repo := new(mockSubscriptionRepo)
		repo.On("GetActiveSubscription", mock.Anything, "ghost").Return(nil, nil)

		svc := newTestService(repo, now)
		require.NoError(t, svc.Debit(context.Background(), "ghost", 1))
		repo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything)
	})
}
