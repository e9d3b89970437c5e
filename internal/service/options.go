package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/cache"
)

type options struct {
	now func() time.Time
}

// Option configures a service at construction time.
type Option func(*options)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// invalidateOutstanding drops the cached fine total. Cache trouble never fails the caller.
func invalidateOutstanding(ctx context.Context, fineCache cache.FineCache, logger *zap.Logger, userID int64) {
	if fineCache == nil {
		return
	}
	if err := fineCache.Invalidate(ctx, userID); err != nil {
		logger.Warn(logMsgCacheInvalidateFailed, zap.Error(err), zap.Int64(logAttrUserID, userID))
	}
}

const (
	logMsgBorrowRejected         = "borrow rejected"
	logMsgBorrowFailed           = "borrow failed"
	logMsgBooksBorrowed          = "books borrowed"
	logMsgReturnFailed           = "return transaction failed"
	logMsgBooksReturned          = "books returned"
	logMsgFinesPaid              = "fines paid"
	logMsgCacheReadFailed        = "failed to read outstanding fine from cache"
	logMsgCacheWriteFailed       = "failed to write outstanding fine to cache"
	logMsgCacheFillSkipped       = "outstanding fine changed while loading, cache fill skipped"
	logMsgCacheInvalidateFailed  = "failed to invalidate outstanding fine cache"
	logMsgOverdueReportGenerated = "overdue report generated"
	logAttrUserID                = "user_id"
	logAttrBookIDs               = "book_ids"
	logAttrLoanIDs               = "loan_ids"
	logAttrFine                  = "fine"
	logAttrFineHistoryID         = "fine_history_id"
	logAttrCode                  = "code"
	logAttrFineIDs               = "fine_ids"
	logAttrUpdated               = "updated"
	logAttrOverdueCount          = "overdue_count"
	logAttrTotalFine             = "total_fine"
)
