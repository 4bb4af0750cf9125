package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/k-negishi/abi-shift-sync/internal/app"
	"github.com/k-negishi/abi-shift-sync/internal/config"
	"github.com/k-negishi/abi-shift-sync/internal/handler"
)

// Lambda Function URL（RESPONSE_STREAMモード）のエントリーポイント
func main() {
	ctx := context.Background()

	// 設定を読み込み
	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("設定読み込みエラー", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(app.NewLogger(os.Stderr, cfg.SlogLevel()))

	// Google Calendar・ポータル・LINE通知を初期化
	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("初期化エラー", "err", err)
		os.Exit(1)
	}

	h := handler.NewLambdaHandler(a.Sync, cfg.SyncTimeout)
	lambda.Start(h.Handle)
}
