package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/cache"
	"github.com/segyhp/library-engine/internal/config"
	"github.com/segyhp/library-engine/internal/domain"
	"github.com/segyhp/library-engine/internal/fine"
	"github.com/segyhp/library-engine/internal/repository"
	customError "github.com/segyhp/library-engine/pkg/errors"
)

// LoanService owns borrowing and returning books
type LoanService struct {
	uow        repository.UnitOfWork
	loanRepo   repository.LoanRepository
	calculator fine.Calculator
	fineCache  cache.FineCache
	config     config.LibraryConfig
	logger     *zap.Logger
	options
}

func NewLoanService(
	uow repository.UnitOfWork,
	loanRepo repository.LoanRepository,
	fineCache cache.FineCache,
	cfg config.LibraryConfig,
	logger *zap.Logger,
	opts ...Option,
) *LoanService {
	return &LoanService{
		uow:        uow,
		loanRepo:   loanRepo,
		calculator: fine.NewCalculator(cfg),
		fineCache:  fineCache,
		config:     cfg,
		logger:     logger,
		options:    buildOptions(opts),
	}
}

// Borrow opens one loan per requested book for the user.
//
// The user is rejected with ErrExceedsLimit when the request would leave them
// holding more than MaxBorrowBook open loans, and with ErrAlreadyBorrowed when
// any requested book is out with anyone. Either rejection happens before
// anything is written.
func (s *LoanService) Borrow(ctx context.Context, userID int64, bookIDs []int64) ([]*domain.Loan, error) {
	bookIDs = domain.UniqueIDs(bookIDs)
	if len(bookIDs) == 0 {
		return nil, customError.WrapInvalidRequest("Payload cannot be empty")
	}

	now := s.now().UTC()
	var created []*domain.Loan

	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// held until commit, so a second borrow by the same user waits for this one
		if err := repos.Loans.LockUser(ctx, userID); err != nil {
			return err
		}

		open, err := repos.Loans.CountOpenByUser(ctx, userID)
		if err != nil {
			return err
		}
		if open+len(bookIDs) > s.config.MaxBorrowBook {
			return customError.WrapExceedsLimit(userID, s.config.MaxBorrowBook)
		}

		borrowed, err := repos.Loans.FindOpenByBooks(ctx, bookIDs)
		if err != nil {
			return err
		}
		if len(borrowed) > 0 {
			return customError.WrapAlreadyBorrowed(loanBookIDs(borrowed))
		}

		loans := make([]*domain.Loan, 0, len(bookIDs))
		for _, bookID := range bookIDs {
			loans = append(loans, &domain.Loan{
				UserID:     userID,
				BookID:     bookID,
				ReffKey:    uuid.New(),
				BorrowDate: now,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}

		if err := repos.Loans.CreateBatch(ctx, loans); err != nil {
			return err
		}

		created = loans
		return nil
	})
	if err != nil {
		return nil, s.borrowError(err, userID, bookIDs)
	}

	s.logger.Info(logMsgBooksBorrowed,
		zap.Int64(logAttrUserID, userID),
		zap.Int64s(logAttrBookIDs, bookIDs),
	)

	return created, nil
}

func (s *LoanService) borrowError(err error, userID int64, bookIDs []int64) error {
	if code := customError.CodeOf(err); code != "" {
		s.logger.Info(logMsgBorrowRejected,
			zap.String(logAttrCode, code),
			zap.Int64(logAttrUserID, userID),
			zap.Int64s(logAttrBookIDs, bookIDs),
		)
		return err
	}

	// lost a race with another user's borrow of the same book
	if repository.IsUniqueViolation(err, repository.OpenLoanPerBookIndex) {
		s.logger.Info(logMsgBorrowRejected,
			zap.String(logAttrCode, customError.ErrCodeAlreadyBorrowed),
			zap.Int64(logAttrUserID, userID),
			zap.Int64s(logAttrBookIDs, bookIDs),
		)
		return customError.WrapAlreadyBorrowed(bookIDs)
	}

	if repository.IsForeignKeyViolation(err) {
		return customError.WrapReferenceNotFound(err)
	}

	s.logger.Error(logMsgBorrowFailed,
		zap.Error(err),
		zap.Int64(logAttrUserID, userID),
		zap.Int64s(logAttrBookIDs, bookIDs),
	)
	return customError.WrapDatabaseError(err)
}

// Return closes the user's open loans for the given books and records the
// aggregate fine, all in one transaction. Books the user does not currently
// hold are skipped. A zero fine writes no fine history.
func (s *LoanService) Return(ctx context.Context, userID int64, bookIDs []int64) (*domain.ReturnResult, error) {
	bookIDs = domain.UniqueIDs(bookIDs)
	if len(bookIDs) == 0 {
		return &domain.ReturnResult{LoanIDs: []int64{}}, nil
	}

	now := s.now().UTC()
	var result *domain.ReturnResult

	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		closed, err := repos.Loans.CloseOpen(ctx, userID, bookIDs, now)
		if err != nil {
			return err
		}

		res := &domain.ReturnResult{LoanIDs: make([]int64, 0, len(closed))}
		for _, loan := range closed {
			res.Fine += s.calculator.Compute(loan.BorrowDate, now)
			res.LoanIDs = append(res.LoanIDs, loan.ID)
		}

		if res.Fine > 0 {
			history := &domain.FineHistory{
				UserID:    userID,
				LoanIDs:   pq.Int64Array(res.LoanIDs),
				Fine:      res.Fine,
				HasPaid:   false,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repos.Fines.Create(ctx, history); err != nil {
				return err
			}
			res.FineHistoryID = &history.ID
		}

		result = res
		return nil
	})
	if err != nil {
		s.logger.Error(logMsgReturnFailed,
			zap.Error(err),
			zap.Int64(logAttrUserID, userID),
			zap.Int64s(logAttrBookIDs, bookIDs),
		)
		return nil, customError.WrapTransactionFailure(err)
	}

	if result.Fine > 0 {
		invalidateOutstanding(ctx, s.fineCache, s.logger, userID)
	}

	fields := []zap.Field{
		zap.Int64(logAttrUserID, userID),
		zap.Int64s(logAttrLoanIDs, result.LoanIDs),
		zap.Int64(logAttrFine, result.Fine),
	}
	if result.FineHistoryID != nil {
		fields = append(fields, zap.Int64(logAttrFineHistoryID, *result.FineHistoryID))
	}
	s.logger.Info(logMsgBooksReturned, fields...)

	return result, nil
}

// ListOpenLoans returns the books the user currently holds
func (s *LoanService) ListOpenLoans(ctx context.Context, userID int64) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListOpenByUser(ctx, userID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if loans == nil {
		loans = []*domain.Loan{}
	}
	return loans, nil
}

// ListLoans returns loan history, returned loans included
func (s *LoanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.List(ctx, filter.Normalize())
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if loans == nil {
		loans = []*domain.Loan{}
	}
	return loans, nil
}

func (s *LoanService) CountLoans(ctx context.Context, filter domain.LoanFilter) (int64, error) {
	count, err := s.loanRepo.Count(ctx, filter)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return count, nil
}

// OverdueReport lists open loans already accruing a fine at now
func (s *LoanService) OverdueReport(ctx context.Context, now time.Time) (*domain.OverdueReport, error) {
	now = now.UTC()
	// a loan is fined once a whole day past the grace period has elapsed
	cutoff := now.Add(-time.Duration(s.config.MaxDayBorrowBook+1) * 24 * time.Hour)

	loans, err := s.loanRepo.ListOpenBorrowedBefore(ctx, cutoff)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	report := &domain.OverdueReport{
		GeneratedAt: now,
		Loans:       make([]*domain.OverdueLoan, 0, len(loans)),
	}
	for _, loan := range loans {
		lateDays := s.calculator.LateDays(loan.BorrowDate, now)
		if lateDays == 0 {
			continue
		}
		accrued := s.calculator.Compute(loan.BorrowDate, now)
		report.Loans = append(report.Loans, &domain.OverdueLoan{
			Loan:        loan,
			DueDate:     s.calculator.DueDate(loan.BorrowDate),
			DaysOverdue: lateDays,
			AccruedFine: accrued,
		})
		report.TotalFine += accrued
	}

	s.logger.Info(logMsgOverdueReportGenerated,
		zap.Int(logAttrOverdueCount, len(report.Loans)),
		zap.Int64(logAttrTotalFine, report.TotalFine),
	)

	return report, nil
}

func loanBookIDs(loans []*domain.Loan) []int64 {
	ids := make([]int64, 0, len(loans))
	for _, loan := range loans {
		ids = append(ids, loan.BookID)
	}
	return ids
}
