// Package fine computes late-return penalties.
package fine

import (
	"time"

	"github.com/segyhp/library-engine/internal/config"
	"github.com/segyhp/library-engine/pkg/utils"
)

// Calculator turns a borrow period into a fine. The zero value charges nothing.
type Calculator struct {
	// MaxDays is the grace period; days up to and including it are free.
	MaxDays int
	// RatePerDay is charged for every whole day past MaxDays, in minor units.
	RatePerDay int64
}

func NewCalculator(cfg config.LibraryConfig) Calculator {
	return Calculator{
		MaxDays:    cfg.MaxDayBorrowBook,
		RatePerDay: cfg.FinePerDay,
	}
}

// Compute returns the fine for a loan borrowed at borrowDate and returned at now.
func (c Calculator) Compute(borrowDate, now time.Time) int64 {
	lateDays := c.LateDays(borrowDate, now)
	if lateDays == 0 {
		return 0
	}
	return int64(lateDays) * c.RatePerDay
}

// LateDays returns the whole days past the grace period, or 0 inside it.
func (c Calculator) LateDays(borrowDate, now time.Time) int {
	days := utils.DaysElapsed(borrowDate, now)
	if days <= c.MaxDays {
		return 0
	}
	return days - c.MaxDays
}

// DueDate is the last moment a loan can be returned without a fine.
func (c Calculator) DueDate(borrowDate time.Time) time.Time {
	return utils.CalculateDueDate(borrowDate, c.MaxDays)
}
