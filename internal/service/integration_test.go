//go:build integration

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/segyhp/library-engine/internal/domain"
	"github.com/segyhp/library-engine/internal/repository"
	"github.com/segyhp/library-engine/migrations"
	customError "github.com/segyhp/library-engine/pkg/errors"
)

func setupDatabase(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("library_test"),
		postgres.WithUsername("library"),
		postgres.WithPassword("library"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(db.DB))

	db.MustExec(`INSERT INTO users (id, username) VALUES (1, 'alice'), (2, 'bob')`)
	db.MustExec(`INSERT INTO books (id, title) SELECT g, 'Book ' || g FROM generate_series(1, 10) AS g`)

	return db
}

func TestIntegration_BorrowReturnPay(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	clock := time.Now().UTC()
	now := func() time.Time { return clock }

	loanRepo := repository.NewLoanRepository(db)
	fineRepo := repository.NewFineHistoryRepository(db)
	loans := NewLoanService(repository.NewUnitOfWork(db), loanRepo, nil, libraryCfg, zap.NewNop(), WithClock(now))
	fines := NewFineService(fineRepo, nil, zap.NewNop(), WithClock(now))

	borrowed, err := loans.Borrow(ctx, 1, []int64{1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, borrowed, 4)

	_, err = loans.Borrow(ctx, 1, []int64{5})
	assert.Equal(t, customError.ErrCodeExceedsLimit, customError.CodeOf(err))

	_, err = loans.Borrow(ctx, 2, []int64{1})
	assert.Equal(t, customError.ErrCodeAlreadyBorrowed, customError.CodeOf(err))

	_, err = loans.Borrow(ctx, 2, []int64{99})
	assert.Equal(t, customError.ErrCodeReferenceNotFound, customError.CodeOf(err))

	clock = clock.AddDate(0, 0, 40)
	result, err := loans.Return(ctx, 1, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, int64(33000), result.Fine)
	require.NotNil(t, result.FineHistoryID)

	// a second return of the same book finds nothing open
	again, err := loans.Return(ctx, 1, []int64{1})
	require.NoError(t, err)
	assert.Zero(t, again.Fine)
	assert.Empty(t, again.LoanIDs)

	userID, returned := int64(1), false
	history, err := loans.ListLoans(ctx, domain.LoanFilter{UserID: &userID, Open: &returned})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].BookID)
	assert.False(t, history[0].IsOpen())

	total, err := loans.CountLoans(ctx, domain.LoanFilter{UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	outstanding, err := fines.Outstanding(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(33000), outstanding)

	updated, err := fines.PayFines(ctx, 2, []int64{*result.FineHistoryID})
	require.NoError(t, err)
	assert.Zero(t, updated)

	updated, err = fines.PayFines(ctx, 1, []int64{*result.FineHistoryID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	// paying again still matches the row and leaves it paid
	updated, err = fines.PayFines(ctx, 1, []int64{*result.FineHistoryID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	var hasPaid bool
	require.NoError(t, db.Get(&hasPaid, `SELECT has_paid FROM fine_histories WHERE id = $1`, *result.FineHistoryID))
	assert.True(t, hasPaid)

	outstanding, err = fines.Outstanding(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, outstanding)

	report, err := loans.OverdueReport(ctx, clock)
	require.NoError(t, err)
	assert.Len(t, report.Loans, 3)
	assert.Equal(t, int64(99000), report.TotalFine)
}

func TestIntegration_ConcurrentBorrowSameBook(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	loans := NewLoanService(repository.NewUnitOfWork(db), repository.NewLoanRepository(db), nil, libraryCfg, zap.NewNop())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for userID := int64(1); userID <= 2; userID++ {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				_, err := loans.Borrow(ctx, userID, []int64{7})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
				} else if customError.CodeOf(err) == customError.ErrCodeAlreadyBorrowed {
					rejected++
				}
			}(userID)
		}
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 9, rejected)

	var open int
	require.NoError(t, db.Get(&open, `SELECT COUNT(*) FROM loans WHERE book_id = 7 AND return_date IS NULL`))
	assert.Equal(t, 1, open)
}

func TestIntegration_ConcurrentReturnSameLoan(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	clock := time.Now().UTC()
	loans := NewLoanService(repository.NewUnitOfWork(db), repository.NewLoanRepository(db), nil, libraryCfg, zap.NewNop(),
		WithClock(func() time.Time { return clock }))

	_, err := loans.Borrow(ctx, 1, []int64{3})
	require.NoError(t, err)
	clock = clock.AddDate(0, 0, 10)

	results := make(chan int64, 5)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := loans.Return(ctx, 1, []int64{3})
			if assert.NoError(t, err) {
				results <- res.Fine
			}
		}()
	}
	wg.Wait()
	close(results)

	var total int64
	for fine := range results {
		total += fine
	}
	assert.Equal(t, int64(3000), total)

	var histories int
	require.NoError(t, db.Get(&histories, `SELECT COUNT(*) FROM fine_histories WHERE user_id = 1`))
	assert.Equal(t, 1, histories)
}
