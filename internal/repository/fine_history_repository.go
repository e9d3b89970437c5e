package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/library-engine/internal/domain"
)

const fineHistoriesTable = "fine_histories"

var fineHistoryColumns = []any{"id", "user_id", "loan_ids", "fine", "has_paid", "created_at", "updated_at"}

type fineHistoryRepository struct {
	db Querier
}

func NewFineHistoryRepository(db Querier) FineHistoryRepository {
	return &fineHistoryRepository{db: db}
}

func (r *fineHistoryRepository) Create(ctx context.Context, history *domain.FineHistory) error {
	query := `
		INSERT INTO fine_histories (user_id, loan_ids, fine, has_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := sqlx.GetContext(ctx, r.db, &history.ID, query,
		history.UserID,
		history.LoanIDs,
		history.Fine,
		history.HasPaid,
		history.CreatedAt,
		history.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fine history: %w", err)
	}

	return nil
}

func (r *fineHistoryRepository) MarkPaid(ctx context.Context, userID int64, ids []int64, paidAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE fine_histories
		SET has_paid = TRUE, updated_at = $1
		WHERE id = ANY($2) AND user_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, paidAt, pq.Array(ids), userID)
	if err != nil {
		return 0, fmt.Errorf("mark fines paid: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark fines paid: rows affected: %w", err)
	}

	return affected, nil
}

func (r *fineHistoryRepository) List(ctx context.Context, filter domain.FineHistoryFilter) ([]*domain.FineHistory, error) {
	filter = filter.Normalize()

	ds := dialect.From(fineHistoriesTable).
		Select(fineHistoryColumns...).
		Order(goqu.I("id").Asc()).
		Limit(uint(filter.Limit))

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	if filter.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*filter.UserID))
	}
	if filter.HasPaid != nil {
		ds = ds.Where(goqu.C("has_paid").Eq(*filter.HasPaid))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build fine history query: %w", err)
	}

	histories := make([]*domain.FineHistory, 0)
	if err := sqlx.SelectContext(ctx, r.db, &histories, query, args...); err != nil {
		return nil, fmt.Errorf("list fine histories: %w", err)
	}

	return histories, nil
}

func (r *fineHistoryRepository) SumUnpaidByUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(fine), 0)
		FROM fine_histories
		WHERE user_id = $1 AND has_paid = FALSE
	`

	var total int64
	if err := sqlx.GetContext(ctx, r.db, &total, query, userID); err != nil {
		return 0, fmt.Errorf("sum unpaid fines: %w", err)
	}

	return total, nil
}
