package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tameer/internal/utils"
	"tameer/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const submissionTableName = "tameer.submissions"

var submissionColumns = append(utils.StructTagValues(types.Submission{}), "files_json")

// estimateExists filters submissions on whether an estimate row is attached.
const estimateExists = "EXISTS (SELECT 1 FROM tameer.estimates e WHERE e.submission_id = " + submissionTableName + ".id)"

type submissionRow struct {
	types.Submission
	FilesJSON []byte `db:"files_json"`
}

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

func (r *SubmissionRepository) CreateSubmission(ctx context.Context, sub *types.Submission) error {
	now := time.Now()
	sub.ID = utils.NanoID()
	sub.Status = types.SubmissionStatusPending
	sub.CreatedAt = now
	sub.UpdatedAt = now

	// Legacy single-file columns carry the first attachment for readers that
	// predate multi-file support.
	if len(sub.Files) > 0 {
		sub.FileURL = &sub.Files[0].URL
		sub.FileName = &sub.Files[0].Name
	}

	filesJSON, err := json.Marshal(sub.Files)
	if err != nil {
		return fmt.Errorf("failed to marshal file list: %w", err)
	}

	subMap := utils.StructToMap(sub)
	subMap["files_json"] = filesJSON

	query, args, err := psql().Insert(submissionTableName).SetMap(subMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert submission query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create submission")
}

func (r *SubmissionRepository) Submission(ctx context.Context, submissionID string) (*types.Submission, error) {
	query, args, err := psql().
		Select(submissionColumns...).
		From(submissionTableName).
		Where(sq.Eq{"id": submissionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate submission query: %w", err)
	}

	var row submissionRow
	err = pgxscan.Get(ctx, r.pool, &row, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}

	return rowToSubmission(&row), nil
}

// Search returns one page of submissions matching the filter plus the total
// match count for pagination math. Pages below 1 are treated as page 1.
func (r *SubmissionRepository) Search(ctx context.Context, params types.SearchParams) ([]*types.Submission, int, error) {
	where := searchPredicate(params)

	countQuery, countArgs, err := psql().
		Select("COUNT(*)").
		From(submissionTableName).
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate submission count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query, args, err := psql().
		Select(submissionColumns...).
		From(submissionTableName).
		Where(where).
		OrderBy("created_at DESC").
		Limit(types.SubmissionPageSize).
		Offset(searchOffset(params.Page)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to generate submission search query: %w", err)
	}

	var rows []*submissionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search submissions: %w", err)
	}

	subs := make([]*types.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, rowToSubmission(row))
	}

	return subs, total, nil
}

func (r *SubmissionRepository) Recent(ctx context.Context, limit uint64) ([]*types.Submission, error) {
	query, args, err := psql().
		Select(submissionColumns...).
		From(submissionTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent submissions query: %w", err)
	}

	var rows []*submissionRow
	if err := pgxscan.Select(ctx, r.pool, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch recent submissions: %w", err)
	}

	subs := make([]*types.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, rowToSubmission(row))
	}

	return subs, nil
}

// Counts returns the total submission count and how many carry an estimate.
func (r *SubmissionRepository) Counts(ctx context.Context) (total int, responded int, err error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(*) FILTER (WHERE %s) FROM %s",
		estimateExists, submissionTableName,
	)

	if err := r.pool.QueryRow(ctx, query).Scan(&total, &responded); err != nil {
		return 0, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	return total, responded, nil
}

// searchOffset clamps the page to >= 1 so the uint64 conversion can never
// underflow into an astronomic offset.
func searchOffset(page int) uint64 {
	if page < 1 {
		page = 1
	}
	return uint64(page-1) * types.SubmissionPageSize
}

func searchPredicate(params types.SearchParams) sq.And {
	where := sq.And{}

	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		where = append(where, sq.Or{
			sq.ILike{"full_name": pattern},
			sq.ILike{"email": pattern},
			sq.ILike{"property_type": pattern},
			sq.ILike{"location": pattern},
		})
	}

	switch params.Status {
	case types.StatusFilterPending:
		where = append(where, sq.Expr("NOT "+estimateExists))
	case types.StatusFilterResponded:
		where = append(where, sq.Expr(estimateExists))
	}

	if len(where) == 0 {
		where = append(where, sq.Expr("TRUE"))
	}

	return where
}

func rowToSubmission(row *submissionRow) *types.Submission {
	sub := row.Submission
	sub.Files = decodeFileList(row.FilesJSON, sub.FileURL, sub.FileName)
	return &sub
}

// decodeFileList parses the stored attachment list defensively. Malformed or
// missing payloads fall back to the legacy single-file columns, and failing
// that to an empty list.
func decodeFileList(raw []byte, legacyURL, legacyName *string) []types.FileMeta {
	if len(raw) > 0 {
		var files []types.FileMeta
		if err := json.Unmarshal(raw, &files); err == nil && len(files) > 0 {
			return files
		}
	}

	if legacyURL != nil && *legacyURL != "" {
		name := ""
		if legacyName != nil {
			name = *legacyName
		}
		return []types.FileMeta{{URL: *legacyURL, Name: name}}
	}

	return []types.FileMeta{}
}
