package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/cache"
	"github.com/segyhp/library-engine/internal/domain"
	"github.com/segyhp/library-engine/internal/repository"
	customError "github.com/segyhp/library-engine/pkg/errors"
)

// FineService settles and reports fines
type FineService struct {
	fineRepo  repository.FineHistoryRepository
	fineCache cache.FineCache
	logger    *zap.Logger
	options
}

func NewFineService(
	fineRepo repository.FineHistoryRepository,
	fineCache cache.FineCache,
	logger *zap.Logger,
	opts ...Option,
) *FineService {
	return &FineService{
		fineRepo:  fineRepo,
		fineCache: fineCache,
		logger:    logger,
		options:   buildOptions(opts),
	}
}

// PayFines marks the user's fine histories as paid and returns how many matched.
// IDs that belong to another user, or do not exist, are ignored.
func (s *FineService) PayFines(ctx context.Context, userID int64, fineIDs []int64) (int64, error) {
	fineIDs = domain.UniqueIDs(fineIDs)
	if len(fineIDs) == 0 {
		return 0, nil
	}

	updated, err := s.fineRepo.MarkPaid(ctx, userID, fineIDs, s.now().UTC())
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	if updated > 0 {
		invalidateOutstanding(ctx, s.fineCache, s.logger, userID)
	}

	s.logger.Info(logMsgFinesPaid,
		zap.Int64(logAttrUserID, userID),
		zap.Int64s(logAttrFineIDs, fineIDs),
		zap.Int64(logAttrUpdated, updated),
	)

	return updated, nil
}

// List returns fine histories matching the filter
func (s *FineService) List(ctx context.Context, filter domain.FineHistoryFilter) ([]*domain.FineHistory, error) {
	histories, err := s.fineRepo.List(ctx, filter.Normalize())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if histories == nil {
		histories = []*domain.FineHistory{}
	}
	return histories, nil
}

// Outstanding returns the user's unpaid fine total, served from cache when possible
func (s *FineService) Outstanding(ctx context.Context, userID int64) (int64, error) {
	fillCache := false
	var version int64
	if s.fineCache != nil {
		amount, found, err := s.fineCache.GetOutstanding(ctx, userID)
		if err != nil {
			s.logger.Warn(logMsgCacheReadFailed, zap.Error(err), zap.Int64(logAttrUserID, userID))
		} else if found {
			return amount, nil
		}

		// the version must be read before the store so a concurrent
		// Invalidate makes the fill below a no-op
		if version, err = s.fineCache.Version(ctx, userID); err != nil {
			s.logger.Warn(logMsgCacheReadFailed, zap.Error(err), zap.Int64(logAttrUserID, userID))
		} else {
			fillCache = true
		}
	}

	total, err := s.fineRepo.SumUnpaidByUser(ctx, userID)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	if fillCache {
		stored, err := s.fineCache.SetOutstanding(ctx, userID, total, version)
		if err != nil {
			s.logger.Warn(logMsgCacheWriteFailed, zap.Error(err), zap.Int64(logAttrUserID, userID))
		} else if !stored {
			s.logger.Debug(logMsgCacheFillSkipped, zap.Int64(logAttrUserID, userID))
		}
	}

	return total, nil
}
