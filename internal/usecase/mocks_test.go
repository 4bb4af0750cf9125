package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// MockPortalSession は PortalSession のテスト用モック
type MockPortalSession struct {
	mock.Mock
}

func (m *MockPortalSession) Login(ctx context.Context, req domain.SyncRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPortalSession) FetchSchedule(ctx context.Context) (domain.ScheduleContext, []domain.RawShift, error) {
	args := m.Called(ctx)
	if args.Get(1) == nil {
		return args.Get(0).(domain.ScheduleContext), nil, args.Error(2)
	}
	return args.Get(0).(domain.ScheduleContext), args.Get(1).([]domain.RawShift), args.Error(2)
}

func (m *MockPortalSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockCalendarRepository は CalendarRepository のテスト用モック
type MockCalendarRepository struct {
	mock.Mock
}

func (m *MockCalendarRepository) FindEvents(ctx context.Context, timeMin, timeMax time.Time) ([]domain.Event, error) {
	args := m.Called(ctx, timeMin, timeMax)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockCalendarRepository) InsertShift(ctx context.Context, s domain.ResolvedShift) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockNotifier は Notifier のテスト用モック
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendSyncSummary(ctx context.Context, result domain.SyncResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// openerFor は常に同じセッションを返す PortalOpener を作る
func openerFor(session PortalSession) PortalOpener {
	return func(context.Context) (PortalSession, error) {
		return session, nil
	}
}

// at は time.Time の同一時刻判定を行う引数マッチャー
func at(expected time.Time) interface{} {
	return mock.MatchedBy(func(actual time.Time) bool {
		return actual.Equal(expected)
	})
}

// shiftStartingAt は開始時刻でシフトを判定する引数マッチャー
func shiftStartingAt(expected time.Time) interface{} {
	return mock.MatchedBy(func(actual domain.ResolvedShift) bool {
		return actual.Start.Equal(expected)
	})
}
