package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

// LINENotifier LINE Messaging APIを使用したNotifierの実装
type LINENotifier struct {
	channelAccessToken string
	userID             string
	httpClient         *http.Client
	endpoint           string
	clock              func() time.Time
}

// lineMessage LINE APIに送信するメッセージ構造体
type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// linePushRequest LINE Push APIのリクエスト構造体
type linePushRequest struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

// lineErrorResponse LINE APIのエラーレスポンス構造体
type lineErrorResponse struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}

// NewLINENotifier LINE通知クライアントを作成
func NewLINENotifier(channelAccessToken, userID string) *LINENotifier {
	return &LINENotifier{
		channelAccessToken: channelAccessToken,
		userID:             userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint: "https://api.line.me/v2/bot/message/push",
		clock:    time.Now,
	}
}

// SendSyncSummary 同期結果をLINEで通知
func (n *LINENotifier) SendSyncSummary(ctx context.Context, result domain.SyncResult) error {
	// 通知メッセージを作成
	message := n.buildSyncMessage(result)

	// LINE Push APIでメッセージを送信
	return n.sendPushMessage(ctx, message)
}

// buildSyncMessage 同期結果通知用のメッセージを構築
func (n *LINENotifier) buildSyncMessage(result domain.SyncResult) string {
	var messageBuilder strings.Builder
	now := n.clock().In(shift.Pacific)

	// ABI Shift Sync
	messageBuilder.WriteString(fmt.Sprintf("ABI Shift Sync %s(%s)\n\n", now.Format("1/2 15:04"), getWeekdayJapanese(now.Weekday())))

	// 登録したシフト
	if len(result.Inserted) > 0 {
		messageBuilder.WriteString(fmt.Sprintf("Added %d/%d:\n", len(result.Inserted), result.Total))
		for _, s := range result.Inserted {
			appendShiftToMessage(&messageBuilder, s)
		}
	} else {
		messageBuilder.WriteString(fmt.Sprintf("Added 0/%d: 新しいシフトなし\n", result.Total))
	}

	// 重複でスキップしたシフト
	if len(result.Skipped) > 0 {
		messageBuilder.WriteString(fmt.Sprintf("\nSkipped %d (Duplicate)\n", len(result.Skipped)))
	}

	return messageBuilder.String()
}

// appendShiftToMessage シフトをメッセージに追加
func appendShiftToMessage(builder *strings.Builder, s domain.ResolvedShift) {
	builder.WriteString(fmt.Sprintf("🔸 %s(%s) %s\n",
		s.Start.Format("1/2"),
		getWeekdayJapanese(s.Start.Weekday()),
		s.TimeRange))
}

// sendPushMessage LINE Push APIでメッセージを送信
func (n *LINENotifier) sendPushMessage(ctx context.Context, message string) error {
	// リクエストボディを作成
	pushRequest := linePushRequest{
		To: n.userID,
		Messages: []lineMessage{
			{
				Type: "text",
				Text: message,
			},
		},
	}

	requestBody, err := json.Marshal(pushRequest)
	if err != nil {
		return fmt.Errorf("リクエストボディのJSON変換に失敗しました: %v", err)
	}

	// HTTPリクエストを作成
	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		n.endpoint,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %v", err)
	}

	// ヘッダーを設定
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", n.channelAccessToken))

	// APIリクエストを送信
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("LINE APIリクエストの送信に失敗しました: %v", err)
	}
	defer resp.Body.Close()

	// レスポンスを確認
	if resp.StatusCode != http.StatusOK {
		// エラーレスポンスの詳細を取得
		var errorResponse lineErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResponse); err != nil {
			return fmt.Errorf("LINE API呼び出しが失敗しました (Status: %d, レスポンス解析不可: %v)", resp.StatusCode, err)
		}

		errorDetails := errorResponse.Message
		if len(errorResponse.Details) > 0 {
			errorDetails += fmt.Sprintf(" (詳細: %s)", errorResponse.Details[0].Message)
		}

		return fmt.Errorf("LINE API呼び出しが失敗しました (Status: %d): %s", resp.StatusCode, errorDetails)
	}

	return nil
}

// getWeekdayJapanese 曜日を日本語に変換
func getWeekdayJapanese(weekday time.Weekday) string {
	weekdays := map[time.Weekday]string{
		time.Sunday:    "日",
		time.Monday:    "月",
		time.Tuesday:   "火",
		time.Wednesday: "水",
		time.Thursday:  "木",
		time.Friday:    "金",
		time.Saturday:  "土",
	}
	return weekdays[weekday]
}
