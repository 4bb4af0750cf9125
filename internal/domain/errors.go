package domain

import "errors"

// 同期処理で発生するエラーの種別
var (
	ErrAuthentication = errors.New("ポータルへのログインに失敗しました")
	ErrScrapeFormat   = errors.New("スケジュール画面の形式が想定と異なります")
	ErrTimeFormat     = errors.New("シフト時刻の形式が不正です")
	ErrCalendarAPI    = errors.New("Google Calendar APIの呼び出しに失敗しました")
	ErrInvalidRequest = errors.New("リクエストが不正です")
)
