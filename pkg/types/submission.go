package types

import "time"

type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "PENDING"
	SubmissionStatusEstimated SubmissionStatus = "ESTIMATED"
)

// FileMeta describes one uploaded attachment. Rows are immutable once stored.
type FileMeta struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"type"`
}

type Submission struct {
	ID           string           `db:"id" json:"id"`
	FullName     string           `db:"full_name" json:"fullName"`
	Email        string           `db:"email" json:"email"`
	Phone        *string          `db:"phone" json:"phone"`
	PropertyType string           `db:"property_type" json:"propertyType"`
	Location     string           `db:"location" json:"location"`
	PlotSize     *string          `db:"plot_size" json:"plotSize"`
	CoveredArea  *string          `db:"covered_area" json:"coveredArea"`
	Floors       *int             `db:"floors" json:"floors"`
	Timeline     *string          `db:"timeline" json:"timeline"`
	BudgetRange  *string          `db:"budget_range" json:"budgetRange"`
	ExtraNotes   *string          `db:"extra_notes" json:"extraNotes"`
	Status       SubmissionStatus `db:"status" json:"status"`

	// Files is decoded from the files_json column at the read boundary.
	// Records created before multi-file support carry only the legacy
	// single-file columns, which the store falls back to.
	Files    []FileMeta `db:"-" json:"files"`
	FileURL  *string    `db:"file_url" json:"-"`
	FileName *string    `db:"file_name" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type Estimate struct {
	SubmissionID string    `db:"submission_id" json:"submissionId"`
	AmountPKR    int64     `db:"amount_pkr" json:"amountPKR"`
	Breakdown    string    `db:"breakdown" json:"breakdown"`
	CreatedBy    string    `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type StatusFilter string

const (
	StatusFilterAll       StatusFilter = "all"
	StatusFilterPending   StatusFilter = "pending"
	StatusFilterResponded StatusFilter = "responded"
)

const SubmissionPageSize = 20

type SearchParams struct {
	Query  string
	Status StatusFilter
	Page   int
}

type SubmissionPage struct {
	Submissions []*Submission
	Total       int
	Page        int
	Pages       int
}

type DashboardStats struct {
	Total        int
	Responded    int
	Pending      int
	ResponseRate int
	Recent       []*Submission
}
