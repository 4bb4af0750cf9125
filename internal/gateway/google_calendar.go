package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

// EventsProvider Google Calendar APIのイベント操作を抽象化したインターフェース
type EventsProvider interface {
	ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
}

// serviceEventsProvider calendar.ServiceによるEventsProviderの実装
type serviceEventsProvider struct {
	service *calendar.Service
}

// ListEvents 指定期間のイベントを取得
func (p *serviceEventsProvider) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string) ([]*calendar.Event, error) {
	events, err := p.service.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		SingleEvents(true).
		MaxResults(50).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return events.Items, nil
}

// InsertEvent イベントを登録
func (p *serviceEventsProvider) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return p.service.Events.Insert(calendarID, event).Context(ctx).Do()
}

// GoogleCalendarRepository Google Calendar APIを使用したCalendarRepositoryの実装
type GoogleCalendarRepository struct {
	provider   EventsProvider
	calendarID string
	timezone   *time.Location
}

// NewGoogleCalendarRepository Google Calendarリポジトリを作成
func NewGoogleCalendarRepository(ctx context.Context, credentialsJSON []byte, calendarID string, opts ...option.ClientOption) (*GoogleCalendarRepository, error) {
	tokenSource, err := NewTokenSource(ctx, credentialsJSON)
	if err != nil {
		return nil, err
	}

	service, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("google Calendar APIサービスの作成に失敗しました: %v", err)
	}

	return NewGoogleCalendarRepositoryWithProvider(&serviceEventsProvider{service: service}, calendarID, shift.Pacific), nil
}

// NewGoogleCalendarRepositoryWithProvider EventsProviderを指定してリポジトリを作成
func NewGoogleCalendarRepositoryWithProvider(provider EventsProvider, calendarID string, timezone *time.Location) *GoogleCalendarRepository {
	return &GoogleCalendarRepository{
		provider:   provider,
		calendarID: calendarID,
		timezone:   timezone,
	}
}

// FindEvents 指定期間に重なる予定を取得
func (r *GoogleCalendarRepository) FindEvents(ctx context.Context, timeMin, timeMax time.Time) ([]domain.Event, error) {
	items, err := r.provider.ListEvents(ctx, r.calendarID, timeMin.Format(time.RFC3339), timeMax.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("%w: カレンダーイベントの取得に失敗しました: %v", domain.ErrCalendarAPI, err)
	}

	domainEvents := make([]domain.Event, 0, len(items))
	for _, item := range items {
		domainEvent, err := r.convertToEvent(item)
		if err != nil {
			slog.WarnContext(ctx, "イベントの変換をスキップしました", "event_id", item.Id, "err", err)
			continue
		}
		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// InsertShift シフトを予定として登録
func (r *GoogleCalendarRepository) InsertShift(ctx context.Context, s domain.ResolvedShift) error {
	event := &calendar.Event{
		Summary:     s.Summary,
		Description: s.Description,
		Start: &calendar.EventDateTime{
			DateTime: s.Start.Format(time.RFC3339),
			TimeZone: shift.CalendarTimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: s.End.Format(time.RFC3339),
			TimeZone: shift.CalendarTimeZone,
		},
	}

	if _, err := r.provider.InsertEvent(ctx, r.calendarID, event); err != nil {
		return fmt.Errorf("%w: 予定の登録に失敗しました (%s): %v", domain.ErrCalendarAPI, s.Summary, err)
	}
	return nil
}

// convertToEvent Google Calendar APIのイベントをドメインエンティティに変換
func (r *GoogleCalendarRepository) convertToEvent(event *calendar.Event) (domain.Event, error) {
	domainEvent := domain.Event{
		ID:          event.Id,
		Title:       event.Summary,
		Description: event.Description,
	}

	if event.Start == nil || event.End == nil {
		return domain.Event{}, fmt.Errorf("開始時刻が設定されていません")
	}

	// 開始時刻の処理
	if event.Start.DateTime != "" {
		startTime, err := time.Parse(time.RFC3339, event.Start.DateTime)
		if err != nil {
			return domain.Event{}, fmt.Errorf("開始時刻の解析に失敗しました: %v", err)
		}
		domainEvent.StartTime = startTime.In(r.timezone)
	} else if event.Start.Date != "" {
		// 終日イベント
		startTime, err := time.ParseInLocation("2006-01-02", event.Start.Date, r.timezone)
		if err != nil {
			return domain.Event{}, fmt.Errorf("開始日の解析に失敗しました: %v", err)
		}
		domainEvent.StartTime = startTime
		domainEvent.IsAllDay = true
	} else {
		return domain.Event{}, fmt.Errorf("開始時刻が設定されていません")
	}

	// 終了時刻の処理
	if event.End.DateTime != "" {
		endTime, err := time.Parse(time.RFC3339, event.End.DateTime)
		if err != nil {
			return domain.Event{}, fmt.Errorf("終了時刻の解析に失敗しました: %v", err)
		}
		domainEvent.EndTime = endTime.In(r.timezone)
	} else if event.End.Date != "" {
		endTime, err := time.ParseInLocation("2006-01-02", event.End.Date, r.timezone)
		if err != nil {
			return domain.Event{}, fmt.Errorf("終了日の解析に失敗しました: %v", err)
		}
		domainEvent.EndTime = endTime
	} else {
		return domain.Event{}, fmt.Errorf("終了時刻が設定されていません")
	}

	return domainEvent, nil
}
