package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"tameer/internal/portal"
	"tameer/pkg/types"

	"github.com/alexedwards/flow"
)

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.listing.Dashboard(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to load dashboard stats")
		s.internalServerError(w)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"total":        stats.Total,
		"responded":    stats.Responded,
		"pending":      stats.Pending,
		"responseRate": stats.ResponseRate,
		"recent":       stats.Recent,
	})
}

func (s *Service) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	params := portal.NormalizeSearchParams(
		r.URL.Query().Get("q"),
		r.URL.Query().Get("status"),
		r.URL.Query().Get("page"),
	)

	page, err := s.listing.List(r.Context(), params)
	if err != nil {
		s.logger.WithError(err).Error("failed to list submissions")
		s.internalServerError(w)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"submissions": page.Submissions,
		"total":       page.Total,
		"page":        page.Page,
		"pages":       page.Pages,
	})
}

func (s *Service) handleSubmissionDetail(w http.ResponseWriter, r *http.Request) {
	submissionID := flow.Param(r.Context(), "id")

	sub, est, err := s.listing.Detail(r.Context(), submissionID)
	if err != nil {
		if errors.Is(err, types.ErrSubmissionNotFound) {
			s.respondError(w, http.StatusNotFound, "not found")
			return
		}
		s.logger.WithError(err).Error("failed to load submission detail")
		s.internalServerError(w)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"submission": sub,
		"estimate":   est,
	})
}

func (s *Service) handleSaveEstimate(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identityFromContext(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("ctx doesn't contain identity")
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	submissionID := flow.Param(r.Context(), "id")

	if err := r.ParseMultipartForm(maxParseMemory); err != nil {
		if err := r.ParseForm(); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid form payload")
			return
		}
	}

	amountRaw := strings.TrimSpace(r.FormValue("amountPKR"))
	breakdown := r.FormValue("breakdown")

	var amountPKR int64
	if amountRaw != "" {
		parsed, err := strconv.ParseFloat(amountRaw, 64)
		// ParseFloat accepts "NaN" and "Inf", and float64 to int64 conversion
		// is implementation-defined out of range; reject all of those here.
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 || parsed >= math.MaxInt64 {
			s.respondError(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		amountPKR = int64(parsed)
	}

	_, err = s.fulfillment.Save(r.Context(), identity.UserID, submissionID, amountPKR, breakdown)
	if err != nil {
		var verr *types.ValidationError
		switch {
		case errors.Is(err, types.ErrSubmissionNotFound):
			s.respondError(w, http.StatusNotFound, "not found")
		case errors.As(err, &verr):
			s.respondError(w, http.StatusBadRequest, verr.Error())
		default:
			s.logger.WithError(err).Error("failed to save estimate")
			s.internalServerError(w)
		}
		return
	}

	// Back to the submission view with the sent banner flag.
	http.Redirect(w, r, fmt.Sprintf("/admin/submissions/%s?sent=1", submissionID), http.StatusSeeOther)
}
