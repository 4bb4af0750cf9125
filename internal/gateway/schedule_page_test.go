package gateway

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

func TestParseSchedulePage_Fixture(t *testing.T) {
	page, err := os.ReadFile("testdata/schedule.html")
	require.NoError(t, err)

	sc, shifts, err := ParseSchedulePage(string(page))
	require.NoError(t, err)

	assert.Equal(t, domain.ScheduleContext{Year: 2024, Month: time.June}, sc)

	// 詳細のない日付とカレンダー外の要素は含まれない
	expected := []domain.RawShift{
		{Day: "3rd", TimeRange: "11:00 PM - 2:00 AM", Description: "11:00 PM - 2:00 AM (Skate Guard)\nMain Rink"},
		{Day: "4", TimeRange: "9:00 AM - 5:00 PM", Description: "9:00 AM - 5:00 PM(Skate Guard)\nStudio B"},
		{Day: "Mon 10", TimeRange: "6:00 PM - 10:00 PM", Description: "6:00 PM - 10:00 PM"},
	}
	if diff := cmp.Diff(expected, shifts); diff != "" {
		t.Errorf("シフト一覧が一致しません (-want +got):\n%s", diff)
	}
}

func TestParseSchedulePage_DayWithoutDetails(t *testing.T) {
	page := `<div class="MonthTitle">July 2024</div>
<table id="calendar_table"><tr>
<td class="calendar_day_box"><div>5</div></td>
<td class="calendar_day_box"><div>6</div><div class="other">Closed</div></td>
</tr></table>`

	sc, shifts, err := ParseSchedulePage(page)
	require.NoError(t, err)
	assert.Equal(t, time.July, sc.Month)
	assert.Empty(t, shifts)
}

func TestParseSchedulePage_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{
			name: "年月の見出しがない",
			page: `<table id="calendar_table"></table>`,
		},
		{
			name: "年月の見出しが不正",
			page: `<div class="MonthTitle">Schedule</div><table id="calendar_table"></table>`,
		},
		{
			name: "月名が省略形",
			page: `<div class="MonthTitle">Jun 2024</div><table id="calendar_table"></table>`,
		},
		{
			name: "詳細にリンクがない",
			page: `<div class="MonthTitle">June 2024</div>
<table id="calendar_table"><tr><td class="calendar_day_box"><div>3</div><div class="day_details">Off</div></td></tr></table>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, shifts, err := ParseSchedulePage(tt.page)
			assert.ErrorIs(t, err, domain.ErrScrapeFormat)
			assert.Nil(t, shifts)
		})
	}
}

func TestRenderedText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="target">  Line   one<br>Line two<p>Para</p><script>ignored()</script>
	<span>tail</span><!-- note --></div>`))
	require.NoError(t, err)

	assert.Equal(t, "Line one\nLine two\nPara\ntail", renderedText(doc.Find("#target")))
	assert.Equal(t, "", renderedText(doc.Find("#missing")))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "only", firstLine("only"))
	assert.Equal(t, "", firstLine(""))
}
