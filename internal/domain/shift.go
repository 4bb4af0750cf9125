package domain

import "time"

// RawShift ポータルから取得したままのシフト情報
type RawShift struct {
	Day         string `json:"day"`
	TimeRange   string `json:"time"`
	Description string `json:"description"`
}

// ScheduleContext スケジュール画面に表示されている年月
type ScheduleContext struct {
	Year  int
	Month time.Month
}

// ResolvedShift 開始・終了時刻を確定したシフト
type ResolvedShift struct {
	Day         string
	TimeRange   string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}

// SyncRequest 同期リクエストの入力値
type SyncRequest struct {
	VenueID  string `json:"venue_id" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SyncResult 同期結果のサマリー
type SyncResult struct {
	Total    int
	Inserted []ResolvedShift
	Skipped  []ResolvedShift
}
