package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

// newTestLINENotifier テスト用の LINENotifier を構築するヘルパー
func newTestLINENotifier(token, userID string, httpClient *http.Client, endpoint string, clock func() time.Time) *LINENotifier {
	return &LINENotifier{
		channelAccessToken: token,
		userID:             userID,
		httpClient:         httpClient,
		endpoint:           endpoint,
		clock:              clock,
	}
}

// --- getWeekdayJapanese テスト ---

func TestGetWeekdayJapanese(t *testing.T) {
	tests := []struct {
		weekday  time.Weekday
		expected string
	}{
		{time.Sunday, "日"},
		{time.Monday, "月"},
		{time.Tuesday, "火"},
		{time.Wednesday, "水"},
		{time.Thursday, "木"},
		{time.Friday, "金"},
		{time.Saturday, "土"},
	}

	for _, tt := range tests {
		t.Run(tt.weekday.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, getWeekdayJapanese(tt.weekday))
		})
	}
}

// --- buildSyncMessage テスト ---

func testSyncResult() domain.SyncResult {
	return domain.SyncResult{
		Total: 3,
		Inserted: []domain.ResolvedShift{
			{
				Day:       "3",
				TimeRange: "11:00 PM - 2:00 AM",
				Start:     time.Date(2024, time.June, 3, 23, 0, 0, 0, shift.Pacific),
				End:       time.Date(2024, time.June, 4, 2, 0, 0, 0, shift.Pacific),
			},
			{
				Day:       "5",
				TimeRange: "9:00 AM - 5:00 PM",
				Start:     time.Date(2024, time.June, 5, 9, 0, 0, 0, shift.Pacific),
				End:       time.Date(2024, time.June, 5, 17, 0, 0, 0, shift.Pacific),
			},
		},
		Skipped: []domain.ResolvedShift{
			{Day: "4", TimeRange: "9:00 AM - 5:00 PM"},
		},
	}
}

func TestBuildSyncMessage_WithShifts(t *testing.T) {
	fixedTime := time.Date(2024, time.June, 1, 10, 30, 0, 0, shift.Pacific)

	n := newTestLINENotifier("token", "user", http.DefaultClient, "", func() time.Time {
		return fixedTime
	})

	message := n.buildSyncMessage(testSyncResult())

	assert.Contains(t, message, "ABI Shift Sync 6/1 10:30(土)")
	assert.Contains(t, message, "Added 2/3:")
	assert.Contains(t, message, "🔸 6/3(月) 11:00 PM - 2:00 AM")
	assert.Contains(t, message, "🔸 6/5(水) 9:00 AM - 5:00 PM")
	assert.Contains(t, message, "Skipped 1 (Duplicate)")
}

func TestBuildSyncMessage_NoNewShifts(t *testing.T) {
	fixedTime := time.Date(2024, time.June, 1, 10, 30, 0, 0, shift.Pacific)

	n := newTestLINENotifier("token", "user", http.DefaultClient, "", func() time.Time {
		return fixedTime
	})

	message := n.buildSyncMessage(domain.SyncResult{Total: 0})

	assert.Contains(t, message, "Added 0/0: 新しいシフトなし")
	assert.NotContains(t, message, "Skipped")
}

// --- appendShiftToMessage テスト ---

func TestAppendShiftToMessage(t *testing.T) {
	var builder strings.Builder

	appendShiftToMessage(&builder, domain.ResolvedShift{
		TimeRange: "6:00 PM - 10:00 PM",
		Start:     time.Date(2024, time.June, 9, 18, 0, 0, 0, shift.Pacific),
	})

	assert.Equal(t, "🔸 6/9(日) 6:00 PM - 10:00 PM\n", builder.String())
}

// --- sendPushMessage テスト（httptest 使用） ---

func TestSendPushMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// ヘッダーを検証
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		// リクエストボディを検証
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var pushReq linePushRequest
		err = json.Unmarshal(body, &pushReq)
		require.NoError(t, err)
		assert.Equal(t, "test-user", pushReq.To)
		assert.Len(t, pushReq.Messages, 1)
		assert.Equal(t, "text", pushReq.Messages[0].Type)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestLINENotifier("test-token", "test-user", server.Client(), server.URL, time.Now)

	err := n.sendPushMessage(context.Background(), "テストメッセージ")
	assert.NoError(t, err)
}

func TestSendPushMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		err := json.NewEncoder(w).Encode(lineErrorResponse{
			Message: "Invalid request",
		})
		require.NoError(t, err)
	}))
	defer server.Close()

	n := newTestLINENotifier("test-token", "test-user", server.Client(), server.URL, time.Now)

	err := n.sendPushMessage(context.Background(), "テストメッセージ")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LINE API呼び出しが失敗しました")
}

func TestSendSyncSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var pushReq linePushRequest
		err = json.Unmarshal(body, &pushReq)
		require.NoError(t, err)

		// メッセージが構築されていることを確認
		assert.Contains(t, pushReq.Messages[0].Text, "ABI Shift Sync")
		assert.Contains(t, pushReq.Messages[0].Text, "Added 2/3:")

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := newTestLINENotifier("test-token", "test-user", server.Client(), server.URL, time.Now)

	err := n.SendSyncSummary(context.Background(), testSyncResult())
	assert.NoError(t, err)
}
