package domain

import (
	"time"

	"github.com/lib/pq"
)

// FineHistory records one return transaction that produced a non-zero fine
type FineHistory struct {
	ID        int64         `json:"id" db:"id"`
	UserID    int64         `json:"userId" db:"user_id"`
	LoanIDs   pq.Int64Array `json:"loanIds" db:"loan_ids"`
	Fine      int64         `json:"fine" db:"fine"`
	HasPaid   bool          `json:"hasPaid" db:"has_paid"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// FineHistoryFilter narrows a fine-history listing. Nil fields are not filtered on.
type FineHistoryFilter struct {
	UserID  *int64
	HasPaid *bool
	Offset  int
	Limit   int
}

// Normalize clamps offset and limit into their accepted ranges
func (f FineHistoryFilter) Normalize() FineHistoryFilter {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}

type FineRef struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type PayFinesRequest struct {
	Fines []FineRef `json:"fines" validate:"required,min=1,dive"`
}

// FineIDs flattens the request, dropping repeated ids while keeping order
func (r *PayFinesRequest) FineIDs() []int64 {
	ids := make([]int64, 0, len(r.Fines))
	for _, f := range r.Fines {
		ids = append(ids, f.ID)
	}
	return UniqueIDs(ids)
}

type PayFinesResponse struct {
	UpdatedCount int64 `json:"updatedCount"`
}

type OutstandingResponse struct {
	UserID      int64 `json:"userId"`
	Outstanding int64 `json:"outstanding"`
}

// UniqueIDs collects ids in first-seen order without repeats
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
