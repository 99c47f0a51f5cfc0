package portal

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strconv"
	"strings"

	"tameer/internal/notify"
	"tameer/internal/utils"
	"tameer/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SubmissionRequest is the visitor-facing intake payload.
type SubmissionRequest struct {
	FullName     string `form:"fullName"`
	Email        string `form:"email"`
	Phone        string `form:"phone"`
	PropertyType string `form:"propertyType"`
	Location     string `form:"location"`
	PlotSize     string `form:"plotSize"`
	CoveredArea  string `form:"coveredArea"`
	Floors       string `form:"floors"`
	Timeline     string `form:"timeline"`
	BudgetRange  string `form:"budgetRange"`
	ExtraNotes   string `form:"extraNotes"`
}

// Attachment decouples the intake flow from multipart plumbing. Open is
// called once per upload attempt.
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type IntakeLimits struct {
	MaxFiles      int
	MaxTotalBytes int64
}

type Intake struct {
	submissions SubmissionStore
	objects     ObjectStore
	notifier    Notifier
	limits      IntakeLimits
	logger      *logrus.Logger
}

func NewIntake(submissions SubmissionStore, objects ObjectStore, notifier Notifier, limits IntakeLimits, logger *logrus.Logger) *Intake {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 10
	}
	if limits.MaxTotalBytes <= 0 {
		limits.MaxTotalBytes = 200 << 20
	}

	return &Intake{
		submissions: submissions,
		objects:     objects,
		notifier:    notifier,
		limits:      limits,
		logger:      logger,
	}
}

// Submit runs the full intake flow: validate, upload attachments, persist,
// notify. The submission row is only written after every upload succeeds; a
// failed upload aborts the whole intake. The post-persist notification is
// best effort and never affects the returned result.
func (i *Intake) Submit(ctx context.Context, req SubmissionRequest, attachments []Attachment) (*types.Submission, error) {
	floors, err := i.validate(&req)
	if err != nil {
		return nil, err
	}

	files := make([]Attachment, 0, len(attachments))
	var totalBytes int64
	for _, att := range attachments {
		if att.Size == 0 {
			continue
		}
		files = append(files, att)
		totalBytes += att.Size
	}

	verr := &types.ValidationError{}
	if len(files) > i.limits.MaxFiles {
		verr.Add(fmt.Sprintf("Max %d files allowed.", i.limits.MaxFiles))
	}
	if totalBytes > i.limits.MaxTotalBytes {
		verr.Add(fmt.Sprintf("Total upload limit is %dMB.", i.limits.MaxTotalBytes>>20))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	uploaded, err := i.uploadAll(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachments: %w", err)
	}

	sub := &types.Submission{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        optional(req.Phone),
		PropertyType: strings.TrimSpace(req.PropertyType),
		Location:     strings.TrimSpace(req.Location),
		PlotSize:     optional(req.PlotSize),
		CoveredArea:  optional(req.CoveredArea),
		Floors:       floors,
		Timeline:     optional(req.Timeline),
		BudgetRange:  optional(req.BudgetRange),
		ExtraNotes:   optional(req.ExtraNotes),
		Files:        uploaded,
	}

	if err := i.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	i.notifier.Emit(notify.Event{
		Kind: notify.EventSubmissionReceived,
		Payload: map[string]any{
			"submissionId": sub.ID,
			"fullName":     sub.FullName,
			"email":        sub.Email,
			"phone":        req.Phone,
			"propertyType": sub.PropertyType,
			"location":     sub.Location,
			"plotSize":     req.PlotSize,
			"coveredArea":  req.CoveredArea,
			"floors":       floors,
			"timeline":     req.Timeline,
			"budgetRange":  req.BudgetRange,
			"extraNotes":   req.ExtraNotes,
			"files":        uploaded,
		},
	})

	return sub, nil
}

// validate aggregates every violated constraint into a single error so the
// visitor sees the full list at once.
func (i *Intake) validate(req *SubmissionRequest) (*int, error) {
	verr := &types.ValidationError{}

	if len(strings.TrimSpace(req.FullName)) < 2 {
		verr.Add("Full name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		verr.Add("Valid email required")
	}
	if len(strings.TrimSpace(req.PropertyType)) < 3 {
		verr.Add("Property type required")
	}
	if len(strings.TrimSpace(req.Location)) < 2 {
		verr.Add("Location required")
	}

	var floors *int
	if raw := strings.TrimSpace(req.Floors); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verr.Add("Floors must be a whole number")
		} else {
			floors = &n
		}
	}

	return floors, verr.OrNil()
}

// uploadAll pushes every attachment to the object store concurrently under a
// collision-resistant key. The first failure cancels the rest and fails the
// batch.
func (i *Intake) uploadAll(ctx context.Context, files []Attachment) ([]types.FileMeta, error) {
	uploaded := make([]types.FileMeta, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for idx, att := range files {
		g.Go(func() error {
			body, err := att.Open()
			if err != nil {
				return fmt.Errorf("open %s: %w", att.Name, err)
			}
			defer body.Close()

			contentType := att.ContentType
			if contentType == "" {
				contentType = "application/octet-stream"
			}

			key := fmt.Sprintf("submissions/%s-%s", utils.NanoID(), att.Name)
			url, err := i.objects.UploadFile(gctx, key, body, att.Size, contentType)
			if err != nil {
				return fmt.Errorf("upload %s: %w", att.Name, err)
			}

			uploaded[idx] = types.FileMeta{
				URL:         url,
				Name:        att.Name,
				Size:        att.Size,
				ContentType: contentType,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return uploaded, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
