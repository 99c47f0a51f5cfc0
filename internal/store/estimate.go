package store

import (
	"context"
	"fmt"
	"time"

	"tameer/internal/utils"
	"tameer/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const estimateTableName = "tameer.estimates"

var estimateColumns = utils.StructTagValues(types.Estimate{})

type EstimateRepository struct {
	pool *pgxpool.Pool
}

func NewEstimateRepository(pool *pgxpool.Pool) *EstimateRepository {
	return &EstimateRepository{pool: pool}
}

// EstimateBySubmission returns the estimate attached to a submission, or nil
// when none exists.
func (r *EstimateRepository) EstimateBySubmission(ctx context.Context, submissionID string) (*types.Estimate, error) {
	query, args, err := psql().
		Select(estimateColumns...).
		From(estimateTableName).
		Where(sq.Eq{"submission_id": submissionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate estimate query: %w", err)
	}

	var est types.Estimate
	err = pgxscan.Get(ctx, r.pool, &est, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch estimate: %w", err)
	}

	return &est, nil
}

// SaveEstimate upserts the estimate keyed by submission id and flips the
// submission status to ESTIMATED in the same transaction. Both writes commit
// or roll back together. The returned flag reports whether this was the first
// estimate for the submission.
func (r *EstimateRepository) SaveEstimate(ctx context.Context, est *types.Estimate) (first bool, err error) {
	now := time.Now()
	est.CreatedAt = now
	est.UpdatedAt = now

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin estimate transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var had bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+estimateTableName+" WHERE submission_id = $1)",
		est.SubmissionID,
	).Scan(&had)
	if err != nil {
		return false, fmt.Errorf("failed to check for prior estimate: %w", err)
	}

	upsert, upsertArgs, err := psql().
		Insert(estimateTableName).
		SetMap(utils.StructToMap(est)).
		Suffix("ON CONFLICT (submission_id) DO UPDATE SET amount_pkr = EXCLUDED.amount_pkr, breakdown = EXCLUDED.breakdown, created_by = EXCLUDED.created_by, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate upsert estimate query: %w", err)
	}

	if _, err := tx.Exec(ctx, upsert, upsertArgs...); err != nil {
		return false, fmt.Errorf("failed to upsert estimate: %w", err)
	}

	status, statusArgs, err := psql().
		Update(submissionTableName).
		Set("status", types.SubmissionStatusEstimated).
		Set("updated_at", now).
		Where(sq.Eq{"id": est.SubmissionID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate status update query: %w", err)
	}

	if _, err := tx.Exec(ctx, status, statusArgs...); err != nil {
		return false, fmt.Errorf("failed to mark submission estimated: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit estimate transaction: %w", err)
	}

	return !had, nil
}
