package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"

	"tameer/internal/notify"
	"tameer/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmissionStore struct {
	mu         sync.Mutex
	created    []*types.Submission
	failCreate error
	nextID     int
}

func (f *fakeSubmissionStore) CreateSubmission(_ context.Context, sub *types.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate != nil {
		return f.failCreate
	}

	f.nextID++
	sub.ID = fmt.Sprintf("sub-%03d", f.nextID)
	sub.Status = types.SubmissionStatusPending
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubmissionStore) Submission(_ context.Context, submissionID string) (*types.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, sub := range f.created {
		if sub.ID == submissionID {
			return sub, nil
		}
	}
	return nil, types.ErrSubmissionNotFound
}

func (f *fakeSubmissionStore) Search(_ context.Context, params types.SearchParams) ([]*types.Submission, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]*types.Submission, 0)
	for _, sub := range f.created {
		switch params.Status {
		case types.StatusFilterPending:
			if sub.Status != types.SubmissionStatusPending {
				continue
			}
		case types.StatusFilterResponded:
			if sub.Status != types.SubmissionStatusEstimated {
				continue
			}
		}
		matched = append(matched, sub)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (params.Page - 1) * types.SubmissionPageSize
	if start > total {
		start = total
	}
	end := start + types.SubmissionPageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (f *fakeSubmissionStore) Recent(_ context.Context, limit uint64) ([]*types.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if uint64(len(f.created)) < limit {
		limit = uint64(len(f.created))
	}
	return f.created[:limit], nil
}

func (f *fakeSubmissionStore) Counts(_ context.Context) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	responded := 0
	for _, sub := range f.created {
		if sub.Status == types.SubmissionStatusEstimated {
			responded++
		}
	}
	return len(f.created), responded, nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	uploads map[string]int64
	fail    error
}

func (f *fakeObjectStore) UploadFile(_ context.Context, key string, body io.Reader, size int64, _ string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}

	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = map[string]int64{}
	}
	f.uploads[key] = size

	return "https://cdn.example.com/" + key, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Emit(event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) kinds() []notify.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()

	kinds := make([]notify.EventKind, 0, len(f.events))
	for _, e := range f.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func memoryAttachment(name string, size int64) Attachment {
	return Attachment{
		Name:        name,
		Size:        size,
		ContentType: "application/pdf",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(make([]byte, 16))), nil
		},
	}
}

func validRequest() SubmissionRequest {
	return SubmissionRequest{
		FullName:     "Jane Doe",
		Email:        "jane@x.com",
		PropertyType: "Residential",
		Location:     "Lahore",
	}
}

func newIntake(subs *fakeSubmissionStore, objects *fakeObjectStore, notifier *fakeNotifier) *Intake {
	return NewIntake(subs, objects, notifier, IntakeLimits{}, testLogger())
}

func TestIntakeSubmit_NoFiles(t *testing.T) {
	subs := &fakeSubmissionStore{}
	notifier := &fakeNotifier{}
	intake := newIntake(subs, &fakeObjectStore{}, notifier)

	sub, err := intake.Submit(context.Background(), validRequest(), nil)
	require.NoError(t, err)

	assert.Equal(t, types.SubmissionStatusPending, sub.Status)
	assert.Empty(t, sub.Files)
	assert.Equal(t, "Jane Doe", sub.FullName)
	require.Len(t, subs.created, 1)
	assert.Equal(t, []notify.EventKind{notify.EventSubmissionReceived}, notifier.kinds())
}

func TestIntakeSubmit_WithFiles(t *testing.T) {
	subs := &fakeSubmissionStore{}
	objects := &fakeObjectStore{}
	intake := newIntake(subs, objects, &fakeNotifier{})

	attachments := []Attachment{
		memoryAttachment("plan.pdf", 1024),
		memoryAttachment("site.jpg", 2048),
		memoryAttachment("empty.txt", 0), // zero-byte files are skipped
	}

	sub, err := intake.Submit(context.Background(), validRequest(), attachments)
	require.NoError(t, err)

	require.Len(t, sub.Files, 2)
	assert.Equal(t, "plan.pdf", sub.Files[0].Name)
	assert.Equal(t, "site.jpg", sub.Files[1].Name)
	assert.Contains(t, sub.Files[0].URL, "plan.pdf")
	assert.Equal(t, int64(1024), sub.Files[0].Size)
	assert.Len(t, objects.uploads, 2)
}

func TestIntakeSubmit_TooManyFiles(t *testing.T) {
	subs := &fakeSubmissionStore{}
	objects := &fakeObjectStore{}
	notifier := &fakeNotifier{}
	intake := newIntake(subs, objects, notifier)

	attachments := make([]Attachment, 11)
	for i := range attachments {
		attachments[i] = memoryAttachment(fmt.Sprintf("file-%d.pdf", i), 100)
	}

	_, err := intake.Submit(context.Background(), validRequest(), attachments)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "Max 10 files allowed.")
	assert.Empty(t, subs.created)
	assert.Empty(t, objects.uploads)
	assert.Empty(t, notifier.events)
}

func TestIntakeSubmit_TotalSizeExceeded(t *testing.T) {
	subs := &fakeSubmissionStore{}
	objects := &fakeObjectStore{}
	intake := newIntake(subs, objects, &fakeNotifier{})

	attachments := []Attachment{
		memoryAttachment("a.zip", 150<<20),
		memoryAttachment("b.zip", 60<<20),
	}

	_, err := intake.Submit(context.Background(), validRequest(), attachments)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "Total upload limit is 200MB.")
	assert.Empty(t, subs.created)
	assert.Empty(t, objects.uploads)
}

func TestIntakeSubmit_AggregatesValidationErrors(t *testing.T) {
	subs := &fakeSubmissionStore{}
	intake := newIntake(subs, &fakeObjectStore{}, &fakeNotifier{})

	req := SubmissionRequest{
		FullName:     "J",
		Email:        "not-an-email",
		PropertyType: "ab",
		Location:     "x",
		Floors:       "two",
	}

	_, err := intake.Submit(context.Background(), req, nil)

	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "Full name is required")
	assert.Contains(t, verr.Error(), "Valid email required")
	assert.Contains(t, verr.Error(), "Property type required")
	assert.Contains(t, verr.Error(), "Location required")
	assert.Contains(t, verr.Error(), "Floors must be a whole number")
	assert.Empty(t, subs.created)
}

func TestIntakeSubmit_UploadFailureAbortsIntake(t *testing.T) {
	subs := &fakeSubmissionStore{}
	objects := &fakeObjectStore{fail: errors.New("bucket unavailable")}
	notifier := &fakeNotifier{}
	intake := newIntake(subs, objects, notifier)

	_, err := intake.Submit(context.Background(), validRequest(), []Attachment{
		memoryAttachment("plan.pdf", 1024),
	})

	require.Error(t, err)
	assert.Empty(t, subs.created, "no submission row may exist after a failed upload")
	assert.Empty(t, notifier.events)
}

func TestIntakeSubmit_PersistFailureSurfaced(t *testing.T) {
	subs := &fakeSubmissionStore{failCreate: errors.New("db down")}
	notifier := &fakeNotifier{}
	intake := newIntake(subs, &fakeObjectStore{}, notifier)

	_, err := intake.Submit(context.Background(), validRequest(), nil)
	require.Error(t, err)
	assert.Empty(t, notifier.events)
}

func TestIntakeSubmit_OptionalFields(t *testing.T) {
	subs := &fakeSubmissionStore{}
	intake := newIntake(subs, &fakeObjectStore{}, &fakeNotifier{})

	req := validRequest()
	req.Phone = "0300-1234567"
	req.Floors = "2"
	req.BudgetRange = "5M-10M"

	sub, err := intake.Submit(context.Background(), req, nil)
	require.NoError(t, err)

	require.NotNil(t, sub.Floors)
	assert.Equal(t, 2, *sub.Floors)
	require.NotNil(t, sub.Phone)
	assert.Equal(t, "0300-1234567", *sub.Phone)
	assert.Nil(t, sub.PlotSize)
}
