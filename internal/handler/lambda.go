package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// LambdaHandler Lambda Function URL（RESPONSE_STREAMモード）から同期を実行するハンドラー
type LambdaHandler struct {
	syncer      Syncer
	syncTimeout time.Duration
}

// NewLambdaHandler Lambdaハンドラーを作成
func NewLambdaHandler(syncer Syncer, syncTimeout time.Duration) *LambdaHandler {
	return &LambdaHandler{
		syncer:      syncer,
		syncTimeout: syncTimeout,
	}
}

// Handle リクエストを処理し、進捗をストリーミングで返す
func (h *LambdaHandler) Handle(ctx context.Context, request events.LambdaFunctionURLRequest) (*events.LambdaFunctionURLStreamingResponse, error) {
	method := request.RequestContext.HTTP.Method
	path := request.RawPath

	switch {
	case method == http.MethodOptions:
		return response(http.StatusNoContent, nil, nil), nil
	case method == http.MethodGet && path == "/health":
		return response(http.StatusOK, textHeaders(), strings.NewReader("OK")), nil
	case method != http.MethodPost || (path != "/sync" && path != "/" && path != ""):
		return response(http.StatusNotFound, textHeaders(), strings.NewReader("404 page not found")), nil
	}

	req, err := decodeLambdaBody(request)
	if err != nil {
		slog.WarnContext(ctx, "不正なリクエストです", "err", err)
		return response(http.StatusBadRequest, map[string]string{"Content-Type": "application/json"}, strings.NewReader(string(errorBody(err)))), nil
	}

	pr, pw := io.Pipe()
	go func() {
		syncCtx, cancel := context.WithTimeout(ctx, h.syncTimeout)
		defer cancel()
		err := Stream(pw, nil, h.syncer.Execute(syncCtx, req))
		if err != nil {
			slog.WarnContext(ctx, "クライアントへの進捗送信を中断しました", "err", err)
		}
		pw.CloseWithError(err)
	}()

	headers := map[string]string{
		"Content-Type":      "text/event-stream",
		"Cache-Control":     "no-cache",
		"X-Accel-Buffering": "no",
	}
	return response(http.StatusOK, headers, pr), nil
}

// decodeLambdaBody Base64エンコードされている場合はデコードしてから読み込む
func decodeLambdaBody(request events.LambdaFunctionURLRequest) (domain.SyncRequest, error) {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return domain.SyncRequest{}, fmt.Errorf("%w: ボディのBase64デコードに失敗しました: %v", domain.ErrInvalidRequest, err)
		}
		body = string(decoded)
	}
	return decodeSyncRequest(strings.NewReader(body))
}

func response(status int, headers map[string]string, body io.Reader) *events.LambdaFunctionURLStreamingResponse {
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Access-Control-Allow-Origin"] = "*"
	headers["Access-Control-Allow-Methods"] = "GET, POST, OPTIONS"
	headers["Access-Control-Allow-Headers"] = "*"
	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       body,
	}
}

func textHeaders() map[string]string {
	return map[string]string{"Content-Type": "text/plain; charset=utf-8"}
}
