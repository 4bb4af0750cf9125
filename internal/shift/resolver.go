package shift

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

const (
	// SummaryPrefix カレンダーに登録する予定タイトルの接頭辞
	SummaryPrefix = "Skate Guard: "

	// CalendarTimeZone 予定に付与するタイムゾーン名
	CalendarTimeZone = "America/Los_Angeles"

	timeRangeSeparator = " - "
	monthHeaderLayout  = "January 2006"
	shiftTimeLayout    = "2006-1-2 3:04 PM"
)

// Pacific シフト時刻に付与する固定オフセット (UTC-08:00、夏時間は考慮しない)
var Pacific = time.FixedZone("PST", -8*60*60)

// ParseMonthHeader "June 2024" 形式の見出しから年月を取得
func ParseMonthHeader(header string) (domain.ScheduleContext, error) {
	normalized := strings.Join(strings.Fields(header), " ")
	parsed, err := time.Parse(monthHeaderLayout, normalized)
	if err != nil {
		return domain.ScheduleContext{}, fmt.Errorf("%w: 月見出し %q を解析できません", domain.ErrScrapeFormat, header)
	}
	return domain.ScheduleContext{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// ExtractDay 日付ラベルから数字だけを取り出して日にちを返す ("3rd" → 3)
func ExtractDay(label string) (int, error) {
	var digits strings.Builder
	for _, r := range label {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("%w: 日付ラベル %q に数字がありません", domain.ErrTimeFormat, label)
	}
	day, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, fmt.Errorf("%w: 日付ラベル %q を解析できません: %v", domain.ErrTimeFormat, label, err)
	}
	return day, nil
}

// Summary 予定タイトルを組み立てる
func Summary(timeRange string) string {
	return SummaryPrefix + timeRange
}

// Resolve 取得したシフトを開始・終了時刻つきのシフトに変換
func Resolve(sc domain.ScheduleContext, raw domain.RawShift) (domain.ResolvedShift, error) {
	parts := strings.Split(raw.TimeRange, timeRangeSeparator)
	if len(parts) != 2 {
		return domain.ResolvedShift{}, fmt.Errorf("%w: 時間帯 %q は \"開始 - 終了\" の形式ではありません", domain.ErrTimeFormat, raw.TimeRange)
	}

	day, err := ExtractDay(raw.Day)
	if err != nil {
		return domain.ResolvedShift{}, err
	}

	start, err := parseShiftTime(sc, day, parts[0])
	if err != nil {
		return domain.ResolvedShift{}, err
	}
	end, err := parseShiftTime(sc, day, parts[1])
	if err != nil {
		return domain.ResolvedShift{}, err
	}

	// 日付をまたぐシフトは終了時刻を翌日にする（1回のみ）
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	return domain.ResolvedShift{
		Day:         raw.Day,
		TimeRange:   raw.TimeRange,
		Start:       start,
		End:         end,
		Summary:     Summary(raw.TimeRange),
		Description: raw.Description,
	}, nil
}

// parseShiftTime "9:00 AM" を指定日の時刻に変換
func parseShiftTime(sc domain.ScheduleContext, day int, clock string) (time.Time, error) {
	value := fmt.Sprintf("%d-%d-%d %s", sc.Year, int(sc.Month), day, strings.ToUpper(strings.TrimSpace(clock)))
	t, err := time.ParseInLocation(shiftTimeLayout, value, Pacific)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 時刻 %q を解析できません: %v", domain.ErrTimeFormat, clock, err)
	}
	return t, nil
}
