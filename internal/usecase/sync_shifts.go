package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

// 進捗メッセージ
const (
	msgLoggingIn      = "Logging into ABI..."
	msgAccessing      = "Accessing Schedule..."
	msgFoundFormat    = "Found %d shifts. Uploading..."
	msgSkippedFormat  = "Skipped (Duplicate) Day %s"
	msgInsertedFormat = "%s at %s (%d/%d)"
	msgComplete       = "Sync Complete!"
)

// errStopped 呼び出し側が進捗の受信をやめたことを示す
var errStopped = errors.New("同期が呼び出し側によって中断されました")

// PortalSession ログイン済みのポータルを操作するポート
type PortalSession interface {
	Login(ctx context.Context, req domain.SyncRequest) error
	FetchSchedule(ctx context.Context) (domain.ScheduleContext, []domain.RawShift, error)
	Close() error
}

// PortalOpener ブラウザを起動してポータルセッションを開始する
type PortalOpener func(ctx context.Context) (PortalSession, error)

// CalendarRepository カレンダーの予定を検索・登録するポート
type CalendarRepository interface {
	FindEvents(ctx context.Context, timeMin, timeMax time.Time) ([]domain.Event, error)
	InsertShift(ctx context.Context, s domain.ResolvedShift) error
}

// Notifier 同期結果を通知するポート
type Notifier interface {
	SendSyncSummary(ctx context.Context, result domain.SyncResult) error
}

// SyncShiftsUseCase シフト同期ユースケース
type SyncShiftsUseCase struct {
	openPortal   PortalOpener
	calendarRepo CalendarRepository
	notifier     Notifier
}

// NewSyncShiftsUseCase ユースケースを生成（notifierはnil可）
func NewSyncShiftsUseCase(openPortal PortalOpener, calendarRepo CalendarRepository, notifier Notifier) *SyncShiftsUseCase {
	return &SyncShiftsUseCase{
		openPortal:   openPortal,
		calendarRepo: calendarRepo,
		notifier:     notifier,
	}
}

// Execute ポータルのシフトをカレンダーへ同期し、進捗メッセージを順に返す
// エラー発生時は ("", err) を1度だけ返して終了する
// 呼び出し側がループを抜けた場合は実行中のステップの後で中断する
func (uc *SyncShiftsUseCase) Execute(ctx context.Context, req domain.SyncRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		logger := slog.With("sync_id", uuid.NewString(), "venue_id", req.VenueID)
		started := time.Now()

		result, err := uc.run(ctx, logger, req, func(msg string) bool {
			logger.DebugContext(ctx, "進捗", "status", msg)
			return yield(msg, nil)
		})
		switch {
		case errors.Is(err, errStopped):
			logger.InfoContext(ctx, "同期を中断しました")
		case err != nil:
			logger.ErrorContext(ctx, "同期に失敗しました", "err", err)
			yield("", err)
		default:
			logger.InfoContext(ctx, "同期が完了しました",
				"total", result.Total,
				"inserted", len(result.Inserted),
				"skipped", len(result.Skipped),
				"elapsed", time.Since(started))
		}
	}
}

func (uc *SyncShiftsUseCase) run(ctx context.Context, logger *slog.Logger, req domain.SyncRequest, emit func(string) bool) (domain.SyncResult, error) {
	var result domain.SyncResult

	if err := ValidateRequest(req); err != nil {
		return result, err
	}

	if !emit(msgLoggingIn) {
		return result, errStopped
	}

	sc, raws, err := scrapeSchedule(ctx, logger, uc.openPortal, req, func() bool {
		return emit(msgAccessing)
	})
	if err != nil {
		return result, err
	}

	result.Total = len(raws)
	if !emit(fmt.Sprintf(msgFoundFormat, len(raws))) {
		return result, errStopped
	}

	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		resolved, err := shift.Resolve(sc, raw)
		if err != nil {
			return result, err
		}

		timeMin, timeMax := shift.ProbeRange(resolved.Start)
		existing, err := uc.calendarRepo.FindEvents(ctx, timeMin, timeMax)
		if err != nil {
			return result, err
		}

		var msg string
		if shift.IsDuplicate(existing, resolved.Summary) {
			result.Skipped = append(result.Skipped, resolved)
			msg = fmt.Sprintf(msgSkippedFormat, raw.Day)
		} else {
			if err := uc.calendarRepo.InsertShift(ctx, resolved); err != nil {
				return result, err
			}
			result.Inserted = append(result.Inserted, resolved)
			msg = fmt.Sprintf(msgInsertedFormat, raw.Day, raw.TimeRange, i+1, len(raws))
		}

		if !emit(msg) {
			return result, errStopped
		}
	}

	if uc.notifier != nil {
		// 通知の失敗は同期結果に影響させない
		if err := uc.notifier.SendSyncSummary(ctx, result); err != nil {
			logger.WarnContext(ctx, "同期結果の通知に失敗しました", "err", err)
		}
	}

	if !emit(msgComplete) {
		return result, errStopped
	}
	return result, nil
}

// scrapeSchedule ポータルにログインしてスケジュールを取得する
// ブラウザは戻る前に必ず閉じる
func scrapeSchedule(ctx context.Context, logger *slog.Logger, openPortal PortalOpener, req domain.SyncRequest, onLoggedIn func() bool) (domain.ScheduleContext, []domain.RawShift, error) {
	session, err := openPortal(ctx)
	if err != nil {
		return domain.ScheduleContext{}, nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WarnContext(ctx, "ブラウザの終了に失敗しました", "err", err)
		}
	}()

	if err := session.Login(ctx, req); err != nil {
		return domain.ScheduleContext{}, nil, err
	}

	if onLoggedIn != nil && !onLoggedIn() {
		return domain.ScheduleContext{}, nil, errStopped
	}

	sc, raws, err := session.FetchSchedule(ctx)
	if err != nil {
		return domain.ScheduleContext{}, nil, err
	}

	logger.InfoContext(ctx, "スケジュールを取得しました", "year", sc.Year, "month", sc.Month.String(), "shifts", len(raws))
	return sc, raws, nil
}
