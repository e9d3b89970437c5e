package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// MinorUnitExponent converts minor currency units to major ones (cents to units)
const MinorUnitExponent = -2

// DaysElapsed returns the whole days between from and to (floor division by one day).
// It never returns a negative number.
func DaysElapsed(from, to time.Time) int {
	elapsed := to.Sub(from)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / day)
}

// CalculateDueDate returns the moment a loan stops being inside its grace period
func CalculateDueDate(borrowDate time.Time, graceDays int) time.Time {
	return borrowDate.AddDate(0, 0, graceDays)
}

// FormatMinorUnits renders an amount stored in minor units as a fixed two-decimal string
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, MinorUnitExponent).StringFixed(2)
}
