package gateway

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

// スケジュール画面のセレクタ
const (
	monthTitleSelector = ".MonthTitle"
	dayBoxSelector     = "#calendar_table .calendar_day_box"
	dayDetailsSelector = ".day_details"
)

// blockElements 描画時に改行を伴う要素
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true, atom.Li: true,
	atom.Nav: true, atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true,
	atom.Table: true, atom.Tbody: true, atom.Td: true, atom.Tfoot: true, atom.Th: true,
	atom.Thead: true, atom.Tr: true, atom.Ul: true,
}

// ParseSchedulePage スケジュール画面のHTMLから年月とシフト一覧を取り出す
// シフトは画面上の並び順で返す
func ParseSchedulePage(page string) (domain.ScheduleContext, []domain.RawShift, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return domain.ScheduleContext{}, nil, fmt.Errorf("%w: HTMLの解析に失敗しました: %v", domain.ErrScrapeFormat, err)
	}

	title := doc.Find(monthTitleSelector).First()
	if title.Length() == 0 {
		return domain.ScheduleContext{}, nil, fmt.Errorf("%w: 年月の見出しが見つかりません", domain.ErrScrapeFormat)
	}
	sc, err := shift.ParseMonthHeader(renderedText(title))
	if err != nil {
		return domain.ScheduleContext{}, nil, err
	}

	var (
		shifts  []domain.RawShift
		scanErr error
	)
	doc.Find(dayBoxSelector).EachWithBreak(func(i int, box *goquery.Selection) bool {
		details := box.Find(dayDetailsSelector).First()
		if details.Length() == 0 {
			return true
		}

		link := details.Find("a").First()
		if link.Length() == 0 {
			scanErr = fmt.Errorf("%w: %d番目の日付にシフト時刻のリンクがありません", domain.ErrScrapeFormat, i+1)
			return false
		}
		timeRange, _, _ := strings.Cut(renderedText(link), "(")

		shifts = append(shifts, domain.RawShift{
			Day:         firstLine(renderedText(box)),
			TimeRange:   strings.TrimSpace(timeRange),
			Description: renderedText(details),
		})
		return true
	})
	if scanErr != nil {
		return domain.ScheduleContext{}, nil, scanErr
	}

	return sc, shifts, nil
}

// renderedText 画面に表示される文字列に近い形でテキストを取り出す
// 行ごとに空白を詰め、空行は除く
func renderedText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeText(n, &b)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(node *html.Node, b *strings.Builder) {
	switch node.Type {
	case html.TextNode:
		b.WriteString(node.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch node.DataAtom {
		case atom.Script, atom.Style, atom.Noscript:
			return
		case atom.Br:
			b.WriteString("\n")
			return
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		b.WriteString("\n")
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, b)
	}
	if block {
		b.WriteString("\n")
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
