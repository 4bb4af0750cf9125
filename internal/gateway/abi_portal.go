package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// defaultPortalURL ABIポータルのログイン画面
const defaultPortalURL = "https://ess.abimm.com/ABIMM_ASP/Request.aspx"

const (
	defaultElementTimeout = 10 * time.Second
	navigationTimeout     = 30 * time.Second
)

// ポータル画面のセレクタ
const (
	venueInputSelector   = "#input_venue"
	venueSubmitSelector  = "input[value='Submit']"
	loginIDSelector      = "#LoginId"
	pinSelector          = "#PIN"
	loginButtonSelector  = "#loginButton"
	scheduleLinkSelector = "//a[normalize-space(.)='View My Schedule']"
)

// PortalOptions ブラウザとポータルの設定
type PortalOptions struct {
	BaseURL        string
	BrowserPath    string
	Headless       bool
	ElementTimeout time.Duration
}

// ABIPortal chromedpでABIポータルを操作するセッションを作成する
type ABIPortal struct {
	opts PortalOptions
}

// NewABIPortal ポータルクライアントを作成
func NewABIPortal(opts PortalOptions) *ABIPortal {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultPortalURL
	}
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = defaultElementTimeout
	}
	return &ABIPortal{opts: opts}
}

// Open ブラウザを起動してセッションを開始
// 返されたセッションは必ずCloseすること
func (p *ABIPortal) Open(ctx context.Context) (*ABIPortalSession, error) {
	allocOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if p.opts.BrowserPath != "" {
		allocOptions = append(allocOptions, chromedp.ExecPath(p.opts.BrowserPath))
	}

	// ブラウザの寿命はリクエストではなくCloseで管理する
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOptions...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("ブラウザの起動に失敗しました: %w", err)
	}

	slog.DebugContext(ctx, "ブラウザを起動しました", "headless", p.opts.Headless)

	return &ABIPortalSession{
		baseURL:        p.opts.BaseURL,
		elementTimeout: p.opts.ElementTimeout,
		tabCtx:         tabCtx,
		cancelTab:      cancelTab,
		cancelAlloc:    cancelAlloc,
	}, nil
}

// ABIPortalSession ログイン状態を保持するブラウザセッション
type ABIPortalSession struct {
	baseURL        string
	elementTimeout time.Duration

	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

// run タイムアウトつきでアクションを実行する
// ctxがキャンセルされた場合も実行を中断する
func (s *ABIPortalSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Login 会場ID・ログインID・PINでポータルにログイン
// ログイン後に "View My Schedule" が表示されなければ認証失敗とみなす
func (s *ABIPortalSession) Login(ctx context.Context, req domain.SyncRequest) error {
	slog.InfoContext(ctx, "ポータルにログインします", "venue_id", req.VenueID)

	err := s.run(ctx, navigationTimeout,
		chromedp.Navigate(s.baseURL),
		chromedp.WaitVisible(venueInputSelector, chromedp.ByQuery),
		chromedp.SendKeys(venueInputSelector, req.VenueID, chromedp.ByQuery),
		chromedp.Click(venueSubmitSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("ログイン画面の表示に失敗しました: %w", err)
	}

	if err := s.run(ctx, s.elementTimeout, chromedp.WaitVisible(loginIDSelector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: 会場ID %s が受け付けられませんでした: %v", domain.ErrAuthentication, req.VenueID, err)
	}

	err = s.run(ctx, navigationTimeout,
		chromedp.SendKeys(loginIDSelector, req.Username, chromedp.ByQuery),
		chromedp.SendKeys(pinSelector, req.Password, chromedp.ByQuery),
		chromedp.Click(loginButtonSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("ログイン情報の送信に失敗しました: %w", err)
	}

	if err := s.run(ctx, s.elementTimeout, chromedp.WaitVisible(scheduleLinkSelector, chromedp.BySearch)); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: ログイン後の画面に遷移しませんでした: %v", domain.ErrAuthentication, err)
	}

	return nil
}

// FetchSchedulePage スケジュール画面を開いてHTMLを取得
func (s *ABIPortalSession) FetchSchedulePage(ctx context.Context) (string, error) {
	if err := s.run(ctx, navigationTimeout, chromedp.Click(scheduleLinkSelector, chromedp.BySearch)); err != nil {
		return "", fmt.Errorf("スケジュール画面への遷移に失敗しました: %w", err)
	}

	if err := s.run(ctx, s.elementTimeout, chromedp.WaitVisible(monthTitleSelector, chromedp.ByQuery)); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: 年月の見出しが表示されませんでした: %v", domain.ErrScrapeFormat, err)
	}

	var page string
	if err := s.run(ctx, navigationTimeout, chromedp.OuterHTML("html", &page, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("スケジュール画面のHTML取得に失敗しました: %w", err)
	}
	return page, nil
}

// FetchSchedule スケジュール画面から年月とシフト一覧を取得
func (s *ABIPortalSession) FetchSchedule(ctx context.Context) (domain.ScheduleContext, []domain.RawShift, error) {
	page, err := s.FetchSchedulePage(ctx)
	if err != nil {
		return domain.ScheduleContext{}, nil, err
	}
	return ParseSchedulePage(page)
}

// Close ブラウザを終了する（複数回呼び出しても安全）
func (s *ABIPortalSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("ブラウザの終了に失敗しました: %w", err)
		}
		s.cancelTab()
		s.cancelAlloc()
	})
	return s.closeErr
}
