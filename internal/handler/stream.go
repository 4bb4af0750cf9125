package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/usecase"
)

// maxRequestBody リクエストボディの上限
const maxRequestBody = 64 << 10

// statusEvent SSEで送る進捗イベント
type statusEvent struct {
	Status string `json:"status"`
}

// errorResponse ストリーム開始前のエラーレスポンス
type errorResponse struct {
	Error string `json:"error"`
}

// ErrorLine エラーを進捗ストリームの最終行に変換
func ErrorLine(err error) string {
	return "❌ Error: " + err.Error()
}

// Stream 進捗メッセージを1行ずつSSEイベントとして書き込む
// 書き込みに失敗した場合は同期処理を中断してエラーを返す
func Stream(w io.Writer, flush func() error, seq iter.Seq2[string, error]) error {
	for msg, err := range seq {
		line := msg
		if err != nil {
			line = ErrorLine(err)
		}
		if err := writeEvent(w, line); err != nil {
			return fmt.Errorf("進捗の書き込みに失敗しました: %w", err)
		}
		if flush == nil {
			continue
		}
		if err := flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return fmt.Errorf("進捗の送信に失敗しました: %w", err)
		}
	}
	return nil
}

// writeEvent `data: {"status": "..."}` 形式のイベントを書き込む
func writeEvent(w io.Writer, line string) error {
	var b strings.Builder
	b.WriteString("data: ")
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(statusEvent{Status: line}); err != nil {
		return err
	}
	// Encodeは末尾に改行を1つ付ける
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// decodeSyncRequest リクエストボディを読み込んで検証
func decodeSyncRequest(body io.Reader) (domain.SyncRequest, error) {
	var req domain.SyncRequest
	if err := json.NewDecoder(io.LimitReader(body, maxRequestBody)).Decode(&req); err != nil {
		return domain.SyncRequest{}, fmt.Errorf("%w: JSONの解析に失敗しました: %v", domain.ErrInvalidRequest, err)
	}
	if err := usecase.ValidateRequest(req); err != nil {
		return domain.SyncRequest{}, err
	}
	return req, nil
}

// errorBody エラーレスポンスのJSON
func errorBody(err error) []byte {
	b, _ := json.Marshal(errorResponse{Error: err.Error()})
	return b
}
