package fine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/segyhp/library-engine/internal/config"
)

func TestCalculator_Compute(t *testing.T) {
	calc := NewCalculator(config.LibraryConfig{MaxDayBorrowBook: 7, FinePerDay: 1000})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		borrowDate time.Time
		expected   int64
	}{
		{"borrowed today", now, 0},
		{"inside grace period", now.AddDate(0, 0, -3), 0},
		{"exactly at grace period", now.AddDate(0, 0, -7), 0},
		{"one hour short of eight days", now.AddDate(0, 0, -8).Add(time.Hour), 0},
		{"one day late", now.AddDate(0, 0, -8), 1000},
		{"forty days", now.AddDate(0, 0, -40), 33000},
		{"borrow date in the future", now.Add(time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, calc.Compute(tt.borrowDate, now))
		})
	}
}

func TestCalculator_ComputeIsMonotonic(t *testing.T) {
	calc := Calculator{MaxDays: 7, RatePerDay: 250}
	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	previous := int64(0)
	for hours := 0; hours <= 24*60; hours += 5 {
		got := calc.Compute(borrowDate, borrowDate.Add(time.Duration(hours)*time.Hour))
		assert.GreaterOrEqual(t, got, previous, "fine decreased at %d hours", hours)
		assert.GreaterOrEqual(t, got, int64(0))
		if hours < 24*8 {
			assert.Zero(t, got, "fine charged inside grace period at %d hours", hours)
		}
		previous = got
	}
}

func TestCalculator_ZeroValue(t *testing.T) {
	var calc Calculator
	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, calc.Compute(borrowDate, borrowDate.AddDate(1, 0, 0)))
	assert.Equal(t, borrowDate, calc.DueDate(borrowDate))
}

func TestCalculator_LateDaysAndDueDate(t *testing.T) {
	calc := Calculator{MaxDays: 7, RatePerDay: 1000}
	borrowDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, calc.LateDays(borrowDate, borrowDate.AddDate(0, 0, 7)))
	assert.Equal(t, 33, calc.LateDays(borrowDate, borrowDate.AddDate(0, 0, 40)))
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), calc.DueDate(borrowDate))
}
