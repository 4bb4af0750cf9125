package shift

import (
	"strings"
	"time"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

// ProbeWindow 重複確認で検索する時間幅
const ProbeWindow = time.Minute

// ProbeRange 開始時刻から1分間の検索範囲を返す
func ProbeRange(start time.Time) (time.Time, time.Time) {
	return start, start.Add(ProbeWindow)
}

// IsDuplicate 既存の予定にタイトルが完全一致するものがあるか判定
// 前後の空白のみ除去し、大文字小文字や内部の空白は区別する
func IsDuplicate(existing []domain.Event, summary string) bool {
	target := strings.TrimSpace(summary)
	for _, event := range existing {
		if strings.TrimSpace(event.Title) == target {
			return true
		}
	}
	return false
}
