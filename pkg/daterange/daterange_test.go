package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(Layout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolve(t *testing.T) {
	// 2025-06-15 is a Sunday.
	today := date("2025-06-15")

	tests := []struct {
		name  string
		token string
		today time.Time
		want  string
	}{
		{"this week on a sunday", TokenThisWeek, today, "2025-06-15"},
		{"this week mid week", TokenThisWeek, date("2025-06-18"), "2025-06-15"},
		{"this week on a saturday", TokenThisWeek, date("2025-06-21"), "2025-06-15"},
		{"this month", TokenThisMonth, today, "2025-06-01"},
		{"this month on the first", TokenThisMonth, date("2025-06-01"), "2025-06-01"},
		{"last 30", TokenLast30, today, "2025-05-16"},
		{"empty token falls back to last 30", "", today, "2025-05-16"},
		{"unknown token falls back to last 30", "lastYear", today, "2025-05-16"},
		{"last 30 across month boundary", TokenLast30, date("2025-01-15"), "2024-12-16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.token, tt.today))
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	today := date("2025-06-15")
	for i := 0; i < 5; i++ {
		assert.Equal(t, Resolve(TokenThisWeek, today), Resolve(TokenThisWeek, today))
	}
	assert.LessOrEqual(t, Resolve(TokenThisWeek, today), Day(today))
	assert.Equal(t, Day(today.AddDate(0, 0, -30)), Resolve(TokenLast30, today))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "2025-06-15", Normalize("2025-06-15T10:30:00Z"))
	assert.Equal(t, "2025-06-15", Normalize("2025-06-15"))
	assert.Equal(t, "2025", Normalize("2025"))
}
