// Package ics はシフトをiCalendar形式で書き出す
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

const (
	productID    = "abi-shift-sync"
	calendarName = "ABI Shifts"
)

// uidNamespace 予定UIDを生成するための名前空間
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://ess.abimm.com/"))

// WriteShifts シフト一覧をPUBLISH形式のVCALENDARとして書き出す
// 同じシフトからは常に同じUIDが生成されるため、再取り込みしても予定は重複しない
func WriteShifts(w io.Writer, shifts []domain.ResolvedShift, now time.Time) error {
	cal := ical.NewCalendarFor(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(calendarName)
	cal.SetXWRTimezone(shift.CalendarTimeZone)

	for _, s := range shifts {
		event := cal.AddEvent(ShiftUID(s))
		event.SetDtStampTime(now)
		event.SetStartAt(s.Start)
		event.SetEndAt(s.End)
		event.SetSummary(s.Summary)
		if s.Description != "" {
			event.SetDescription(s.Description)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("iCalendarの書き出しに失敗しました: %v", err)
	}
	return nil
}

// ShiftUID 開始時刻と予定タイトルから予定のUIDを生成
func ShiftUID(s domain.ResolvedShift) string {
	name := s.Start.UTC().Format(time.RFC3339) + "|" + s.Summary
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@" + productID
}
