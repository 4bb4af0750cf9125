package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/k-negishi/abi-shift-sync/internal/app"
	"github.com/k-negishi/abi-shift-sync/internal/config"
	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shiftsync",
	Short: "Mirror ABI portal shifts into Google Calendar.",
	Long: `shiftsync logs into the ABI scheduling portal, reads the current month of shift
assignments and inserts them into Google Calendar, skipping shifts that are already there.

Configuration is read from the environment (and .env when present):
  GOOGLE_TOKEN_JSON / GOOGLE_TOKEN_FILE   Google OAuth token (default: token.json)
  CALENDAR_ID                             target calendar (default: primary)
  BROWSER_PATH, BROWSER_HEADLESS          Chrome binary and headless mode
  LINE_CHANNEL_ACCESS_TOKEN, LINE_USER_ID optional sync summary push`,
	Example: `
  # Start the streaming HTTP endpoint
  shiftsync serve --addr :8000

  # Run one sync from the terminal
  ABI_PIN=0000 shiftsync sync --venue 1234 --user guard01

  # Write this month's shifts to an iCalendar file
  shiftsync export --venue 1234 --user guard01 --pin 0000 --out shifts.ics
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadApp 設定を読み込み、ロガーとユースケースを初期化
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("設定読み込みエラー: %w", err)
	}
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.SlogLevel()))

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("初期化エラー: %w", err)
	}
	return a, nil
}

// credentialFlags sync / export 共通のログイン情報フラグ
type credentialFlags struct {
	venue string
	user  string
	pin   string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.venue, "venue", "", "ABI venue id (env: ABI_VENUE_ID)")
	cmd.Flags().StringVar(&f.user, "user", "", "ABI login id (env: ABI_USERNAME)")
	cmd.Flags().StringVar(&f.pin, "pin", "", "ABI PIN (env: ABI_PIN)")
}

// request フラグ、なければ環境変数からログイン情報を組み立てる
func (f *credentialFlags) request() domain.SyncRequest {
	return domain.SyncRequest{
		VenueID:  firstNonEmpty(f.venue, os.Getenv("ABI_VENUE_ID")),
		Username: firstNonEmpty(f.user, os.Getenv("ABI_USERNAME")),
		Password: firstNonEmpty(f.pin, os.Getenv("ABI_PIN")),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
