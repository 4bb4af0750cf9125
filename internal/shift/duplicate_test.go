package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
)

func TestProbeRange(t *testing.T) {
	start := time.Date(2024, time.June, 3, 9, 0, 0, 0, Pacific)

	timeMin, timeMax := ProbeRange(start)
	assert.Equal(t, start, timeMin)
	assert.Equal(t, "2024-06-03T09:01:00-08:00", timeMax.Format(time.RFC3339))
}

func TestIsDuplicate(t *testing.T) {
	summary := "Skate Guard: 9:00 AM - 5:00 PM"

	tests := []struct {
		name     string
		existing []domain.Event
		expected bool
	}{
		{"完全一致", []domain.Event{{Title: "Skate Guard: 9:00 AM - 5:00 PM"}}, true},
		{"前後の空白は無視", []domain.Event{{Title: "  Skate Guard: 9:00 AM - 5:00 PM\n"}}, true},
		{"複数のうち1件が一致", []domain.Event{{Title: "歯医者"}, {Title: "Skate Guard: 9:00 AM - 5:00 PM"}}, true},
		{"大文字小文字が異なる", []domain.Event{{Title: "skate guard: 9:00 AM - 5:00 PM"}}, false},
		{"内部の空白が異なる", []domain.Event{{Title: "Skate Guard:  9:00 AM - 5:00 PM"}}, false},
		{"時間帯が異なる", []domain.Event{{Title: "Skate Guard: 9:00 AM - 6:00 PM"}}, false},
		{"タイトルなし", []domain.Event{{Title: ""}}, false},
		{"予定なし", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicate(tt.existing, summary))
		})
	}
}
