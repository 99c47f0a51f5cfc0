package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"tameer/internal/portal"
	"tameer/pkg/types"
)

// maxParseMemory bounds how much of the multipart body is held in memory
// while parsing; larger attachments spill to temp files.
const maxParseMemory = 32 << 20

func (s *Service) handleVisitorSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxParseMemory); err != nil {
		s.logger.WithError(err).Debug("failed to parse submission form")
		s.respondError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	var req portal.SubmissionRequest
	if err := decoder.Decode(&req, url.Values(r.MultipartForm.Value)); err != nil {
		s.logger.WithError(err).Error("failed to decode submission form")
		s.respondError(w, http.StatusBadRequest, "invalid form payload")
		return
	}

	headers := r.MultipartForm.File["files"]
	// Single-file clients predating multi-file support post under "file".
	headers = append(headers, r.MultipartForm.File["file"]...)

	attachments := make([]portal.Attachment, 0, len(headers))
	for _, header := range headers {
		attachments = append(attachments, attachmentFromHeader(header))
	}

	sub, err := s.intake.Submit(r.Context(), req, attachments)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			s.respondError(w, http.StatusBadRequest, verr.Error())
			return
		}

		s.logger.WithError(err).Error("failed to process visitor submission")
		s.internalServerError(w)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"submissionId": sub.ID,
	})
}

func attachmentFromHeader(header *multipart.FileHeader) portal.Attachment {
	return portal.Attachment{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
