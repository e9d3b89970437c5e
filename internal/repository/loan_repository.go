package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/library-engine/internal/domain"
)

const (
	loansTable  = "loans"
	loanColumns = "id, user_id, book_id, reff_key, borrow_date, return_date, created_at, updated_at"
)

var loanSelectColumns = []any{"id", "user_id", "book_id", "reff_key", "borrow_date", "return_date", "created_at", "updated_at"}

var dialect = goqu.Dialect("postgres")

type loanRepository struct {
	db Querier
}

func NewLoanRepository(db Querier) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) LockUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, userID); err != nil {
		return fmt.Errorf("lock user %d: %w", userID, err)
	}
	return nil
}

func (r *loanRepository) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM loans
		WHERE user_id = $1 AND return_date IS NULL
	`

	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count open loans: %w", err)
	}

	return count, nil
}

func (r *loanRepository) FindOpenByBooks(ctx context.Context, bookIDs []int64) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE book_id = ANY($1) AND return_date IS NULL
		ORDER BY book_id
	`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, pq.Array(bookIDs)); err != nil {
		return nil, fmt.Errorf("find open loans by books: %w", err)
	}

	return loans, nil
}

func (r *loanRepository) CreateBatch(ctx context.Context, loans []*domain.Loan) error {
	if len(loans) == 0 {
		return nil
	}

	rows := make([]any, 0, len(loans))
	for _, loan := range loans {
		rows = append(rows, goqu.Record{
			"user_id":     loan.UserID,
			"book_id":     loan.BookID,
			"reff_key":    loan.ReffKey.String(),
			"borrow_date": loan.BorrowDate,
			"created_at":  loan.CreatedAt,
			"updated_at":  loan.UpdatedAt,
		})
	}

	query, args, err := dialect.Insert(loansTable).
		Rows(rows...).
		Returning("id").
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build loan insert: %w", err)
	}

	var ids []int64
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, args...); err != nil {
		return fmt.Errorf("insert loans: %w", err)
	}

	if len(ids) != len(loans) {
		return fmt.Errorf("insert loans: expected %d ids, got %d", len(loans), len(ids))
	}

	for i, id := range ids {
		loans[i].ID = id
	}

	return nil
}

func (r *loanRepository) CloseOpen(ctx context.Context, userID int64, bookIDs []int64, returnedAt time.Time) ([]*domain.Loan, error) {
	query := `
		UPDATE loans
		SET return_date = $1, updated_at = $1
		WHERE user_id = $2 AND book_id = ANY($3) AND return_date IS NULL
		RETURNING ` + loanColumns

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, returnedAt, userID, pq.Array(bookIDs)); err != nil {
		return nil, fmt.Errorf("close open loans: %w", err)
	}

	return loans, nil
}

func (r *loanRepository) ListOpenByUser(ctx context.Context, userID int64) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1 AND return_date IS NULL
		ORDER BY borrow_date, id
	`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, userID); err != nil {
		return nil, fmt.Errorf("list open loans: %w", err)
	}

	return loans, nil
}

func (r *loanRepository) ListOpenBorrowedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE return_date IS NULL AND borrow_date <= $1
		ORDER BY borrow_date, id
	`

	var loans []*domain.Loan
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, cutoff); err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}

	return loans, nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	filter = filter.Normalize()

	ds := filterLoans(dialect.From(loansTable), filter).
		Select(loanSelectColumns...).
		Order(goqu.I("id").Asc()).
		Limit(uint(filter.Limit))
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}

	loans := make([]*domain.Loan, 0)
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, args...); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	return loans, nil
}

func (r *loanRepository) Count(ctx context.Context, filter domain.LoanFilter) (int64, error) {
	query, args, err := filterLoans(dialect.From(loansTable), filter).
		Select(goqu.COUNT(goqu.Star())).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build loan count: %w", err)
	}

	var count int64
	if err := sqlx.GetContext(ctx, r.db, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count loans: %w", err)
	}

	return count, nil
}

func filterLoans(ds *goqu.SelectDataset, filter domain.LoanFilter) *goqu.SelectDataset {
	if filter.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*filter.UserID))
	}
	if filter.BookID != nil {
		ds = ds.Where(goqu.C("book_id").Eq(*filter.BookID))
	}
	if filter.Open != nil {
		if *filter.Open {
			ds = ds.Where(goqu.C("return_date").IsNull())
		} else {
			ds = ds.Where(goqu.C("return_date").IsNotNull())
		}
	}
	return ds
}
