package portal

import (
	"context"
	"strconv"
	"strings"

	"tameer/pkg/types"
)

type Listing struct {
	submissions SubmissionStore
	estimates   EstimateStore
}

func NewListing(submissions SubmissionStore, estimates EstimateStore) *Listing {
	return &Listing{submissions: submissions, estimates: estimates}
}

// NormalizeSearchParams maps raw query values onto sane search parameters:
// unknown status filters collapse to "all" and the page is clamped to >= 1.
func NormalizeSearchParams(q, status, page string) types.SearchParams {
	params := types.SearchParams{
		Query:  strings.TrimSpace(q),
		Status: types.StatusFilterAll,
		Page:   1,
	}

	switch types.StatusFilter(strings.ToLower(status)) {
	case types.StatusFilterPending:
		params.Status = types.StatusFilterPending
	case types.StatusFilterResponded:
		params.Status = types.StatusFilterResponded
	}

	if n, err := strconv.Atoi(page); err == nil && n > 1 {
		params.Page = n
	}

	return params
}

// List returns one page of matching submissions, newest first. Pages past the
// end come back empty rather than failing.
func (l *Listing) List(ctx context.Context, params types.SearchParams) (*types.SubmissionPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	subs, total, err := l.submissions.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	pages := (total + types.SubmissionPageSize - 1) / types.SubmissionPageSize
	if pages < 1 {
		pages = 1
	}

	return &types.SubmissionPage{
		Submissions: subs,
		Total:       total,
		Page:        params.Page,
		Pages:       pages,
	}, nil
}

// Detail returns a submission alongside its estimate, if one exists.
func (l *Listing) Detail(ctx context.Context, submissionID string) (*types.Submission, *types.Estimate, error) {
	sub, err := l.submissions.Submission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}

	est, err := l.estimates.EstimateBySubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}

	return sub, est, nil
}

// Dashboard aggregates the admin home counters.
func (l *Listing) Dashboard(ctx context.Context) (*types.DashboardStats, error) {
	total, responded, err := l.submissions.Counts(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := l.submissions.Recent(ctx, 10)
	if err != nil {
		return nil, err
	}

	rate := 0
	if total > 0 {
		rate = responded * 100 / total
	}

	return &types.DashboardStats{
		Total:        total,
		Responded:    responded,
		Pending:      total - responded,
		ResponseRate: rate,
		Recent:       recent,
	}, nil
}
