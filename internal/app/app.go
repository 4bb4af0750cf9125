// Package app は設定からユースケースとハンドラーを組み立てる
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/k-negishi/abi-shift-sync/internal/config"
	"github.com/k-negishi/abi-shift-sync/internal/gateway"
	"github.com/k-negishi/abi-shift-sync/internal/usecase"
)

// App 組み立て済みのユースケース
type App struct {
	Config *config.Config
	Sync   *usecase.SyncShiftsUseCase
	Export *usecase.ExportShiftsUseCase
}

// New 設定からGoogle Calendar・ポータル・LINE通知を初期化してユースケースを作成
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	calendarRepo, err := gateway.NewGoogleCalendarRepository(ctx, []byte(cfg.GoogleCredentials), cfg.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("google Calendarの初期化に失敗しました: %w", err)
	}

	openPortal := PortalOpener(gateway.NewABIPortal(gateway.PortalOptions{
		BaseURL:        cfg.PortalURL,
		BrowserPath:    cfg.BrowserPath,
		Headless:       cfg.BrowserHeadless,
		ElementTimeout: cfg.ElementTimeout,
	}))

	// LINE通知は設定がある場合のみ有効にする
	var notifier usecase.Notifier
	if cfg.NotificationEnabled() {
		notifier = gateway.NewLINENotifier(cfg.LineChannelAccessToken, cfg.LineUserID)
	} else {
		slog.DebugContext(ctx, "LINE通知は無効です")
	}

	return &App{
		Config: cfg,
		Sync:   usecase.NewSyncShiftsUseCase(openPortal, calendarRepo, notifier),
		Export: usecase.NewExportShiftsUseCase(openPortal),
	}, nil
}

// PortalOpener ABIPortalをユースケースのPortalOpenerに変換
func PortalOpener(portal *gateway.ABIPortal) usecase.PortalOpener {
	return func(ctx context.Context) (usecase.PortalSession, error) {
		session, err := portal.Open(ctx)
		if err != nil {
			// nilの*ABIPortalSessionをインターフェースに入れて返さない
			return nil, err
		}
		return session, nil
	}
}
