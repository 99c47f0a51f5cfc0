package portal

import (
	"context"
	"time"

	"tameer/internal/notify"
	"tameer/pkg/types"

	"github.com/sirupsen/logrus"
)

type Fulfillment struct {
	submissions SubmissionStore
	estimates   EstimateStore
	notifier    Notifier
	logger      *logrus.Logger
}

func NewFulfillment(submissions SubmissionStore, estimates EstimateStore, notifier Notifier, logger *logrus.Logger) *Fulfillment {
	return &Fulfillment{
		submissions: submissions,
		estimates:   estimates,
		notifier:    notifier,
		logger:      logger,
	}
}

// Save upserts the estimate for a submission and marks it ESTIMATED. The two
// writes happen in one store transaction; the downstream notification fires
// only after that transaction has committed and cannot undo it.
func (f *Fulfillment) Save(ctx context.Context, adminID, submissionID string, amountPKR int64, breakdown string) (*types.Submission, error) {
	if amountPKR < 0 {
		verr := &types.ValidationError{}
		verr.Add("Invalid amount")
		return nil, verr
	}

	sub, err := f.submissions.Submission(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	est := &types.Estimate{
		SubmissionID: sub.ID,
		AmountPKR:    amountPKR,
		Breakdown:    breakdown,
		CreatedBy:    adminID,
	}

	first, err := f.estimates.SaveEstimate(ctx, est)
	if err != nil {
		return nil, err
	}

	sub.Status = types.SubmissionStatusEstimated

	f.notifier.Emit(notify.Event{
		Kind: notify.EventEstimateReady,
		Payload: map[string]any{
			"submissionId": sub.ID,
			"fullName":     sub.FullName,
			"email":        sub.Email,
			"amountPKR":    amountPKR,
			"breakdown":    breakdown,
			"submission": map[string]any{
				"propertyType": sub.PropertyType,
				"location":     sub.Location,
				"timeline":     sub.Timeline,
				"budgetRange":  sub.BudgetRange,
				"plotSize":     sub.PlotSize,
				"coveredArea":  sub.CoveredArea,
				"floors":       sub.Floors,
				"files":        sub.Files,
			},
			"estimatedByUserId": adminID,
			"estimatedAt":       time.Now().UTC().Format(time.RFC3339),
			"isFirstEstimate":   first,
		},
	})

	return sub, nil
}
