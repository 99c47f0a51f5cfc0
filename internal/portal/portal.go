package portal

import (
	"context"
	"io"

	"tameer/internal/notify"
	"tameer/pkg/types"
)

// SubmissionStore is the persistence surface the workflow needs for visitor
// submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *types.Submission) error
	Submission(ctx context.Context, submissionID string) (*types.Submission, error)
	Search(ctx context.Context, params types.SearchParams) ([]*types.Submission, int, error)
	Recent(ctx context.Context, limit uint64) ([]*types.Submission, error)
	Counts(ctx context.Context) (total int, responded int, err error)
}

// EstimateStore persists admin estimates. SaveEstimate must apply the upsert
// and the submission status flip atomically.
type EstimateStore interface {
	EstimateBySubmission(ctx context.Context, submissionID string) (*types.Estimate, error)
	SaveEstimate(ctx context.Context, est *types.Estimate) (first bool, err error)
}

// ObjectStore is the external blob-store collaborator.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// Notifier delivers best-effort post-commit events.
type Notifier interface {
	Emit(event notify.Event)
}
