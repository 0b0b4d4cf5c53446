package handler

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/talentscan/talentscan-backend/internal/resume/domain"
	"github.com/talentscan/talentscan-backend/internal/resume/export"
	"github.com/talentscan/talentscan-backend/internal/resume/service"
	"github.com/talentscan/talentscan-backend/internal/resume/storage"
	"github.com/talentscan/talentscan-backend/pkg/errors"
	"github.com/talentscan/talentscan-backend/pkg/httputil"
	"github.com/talentscan/talentscan-backend/pkg/logger"
	"github.com/talentscan/talentscan-backend/pkg/messaging"
)

const multipartMemory = 8 << 20

// BatchIngester runs extraction and reconciliation over stored uploads
type BatchIngester interface {
	IngestBatch(ctx context.Context, uploads []service.Upload) *service.BatchReport
}

// CandidateLister returns every stored candidate, newest first
type CandidateLister interface {
	List(ctx context.Context) ([]*domain.CandidateRecord, error)
}

// Handler serves the resume upload and candidate endpoints
type Handler struct {
	ingest     BatchIngester
	candidates CandidateLister
	exporter   *export.Exporter
	uploads    *storage.UploadStore
	queue      messaging.EventPublisher
	maxSize    int64
	log        *logger.Logger
}

// Options configures a Handler
type Options struct {
	Ingest     BatchIngester
	Candidates CandidateLister
	Exporter   *export.Exporter
	Uploads    *storage.UploadStore
	// Queue receives ingest requests for mode=async uploads. Nil disables async mode.
	Queue   messaging.EventPublisher
	MaxSize int64
}

// NewHandler creates a new resume handler
func NewHandler(opts Options, log *logger.Logger) *Handler {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = 32 << 20
	}
	return &Handler{
		ingest:     opts.Ingest,
		candidates: opts.Candidates,
		exporter:   opts.Exporter,
		uploads:    opts.Uploads,
		queue:      opts.Queue,
		maxSize:    maxSize,
		log:        log.WithComponent("resume-handler"),
	}
}

// RegisterRoutes mounts the API under r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/resumes", h.Upload)
		r.Get("/candidates", h.List)
		r.Get("/candidates/export", h.Export)
	})
}

type uploadQuery struct {
	Mode string `validate:"omitempty,oneof=sync async"`
}

// UploadResponse is returned by POST /resumes
type UploadResponse struct {
	*service.BatchReport
	Queued []string `json:"queued,omitempty"`
}

// Upload handles POST /api/v1/resumes
// Accepts a multipart form with any number of "files" (or "files[]") parts.
// Files with a disallowed extension are skipped and listed in the report.
// With mode=async the stored files are queued for the ingest worker instead.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequestID(httputil.GetRequestID(r.Context()))

	q := uploadQuery{Mode: r.URL.Query().Get("mode")}
	if err := httputil.Validate(q); err != nil {
		httputil.Error(w, err)
		return
	}
	async := q.Mode == "async"
	if async && h.queue == nil {
		httputil.Error(w, errors.BadRequest("asynchronous ingest is not enabled"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.Error(w, errors.UnsupportedMedia("uploads must be sent as multipart/form-data"))
			return
		}
		httputil.Error(w, errors.BadRequest("file too large or invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["files[]"]...)
	if len(headers) == 0 {
		httputil.Error(w, errors.BadRequest("no files uploaded"))
		return
	}

	report := &service.BatchReport{Skipped: []string{}, Failed: []service.FileError{}}
	var uploads []service.Upload
	for _, fh := range headers {
		upload, err := h.store(fh)
		switch {
		case errors.Is(err, domain.ErrUnsupportedFile):
			report.Skipped = append(report.Skipped, fh.Filename)
		case err != nil:
			log.Error().Err(err).Str("file", fh.Filename).Msg("failed to store upload")
			report.Failed = append(report.Failed, service.FileError{Filename: fh.Filename, Reason: "could not store upload"})
		default:
			uploads = append(uploads, upload)
		}
	}

	// the batch runs to completion even if the client goes away
	ctx := context.WithoutCancel(r.Context())

	if async {
		resp := &UploadResponse{BatchReport: report, Queued: []string{}}
		for _, u := range uploads {
			err := h.queue.Publish(ctx, messaging.EventResumeIngestRequested, messaging.IngestRequestedEvent{
				Path:     u.Path,
				Filename: u.Filename,
			})
			if err != nil {
				log.Error().Err(err).Str("file", u.Filename).Msg("failed to queue upload")
				report.Failed = append(report.Failed, service.FileError{Filename: u.Filename, Reason: "could not queue upload"})
				continue
			}
			resp.Queued = append(resp.Queued, u.Filename)
		}
		httputil.JSON(w, http.StatusAccepted, resp)
		return
	}

	result := h.ingest.IngestBatch(ctx, uploads)
	result.Skipped = append(report.Skipped, result.Skipped...)
	result.Failed = append(report.Failed, result.Failed...)

	httputil.JSON(w, http.StatusOK, &UploadResponse{BatchReport: result})
}

func (h *Handler) store(fh *multipart.FileHeader) (service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	path, filename, err := h.uploads.Save(fh.Filename, f)
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{Path: path, Filename: filename}, nil
}

// List handles GET /api/v1/candidates
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.candidates.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list candidates")
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, candidates, &httputil.Meta{Total: int64(len(candidates))})
}

type exportQuery struct {
	Format string `validate:"required,oneof=json xlsx"`
}

// Export handles GET /api/v1/candidates/export?format=json|xlsx
// The whole store is returned as a file attachment. format defaults to json.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := exportQuery{Format: strings.ToLower(r.URL.Query().Get("format"))}
	if q.Format == "" {
		q.Format = string(export.FormatJSON)
	}
	if err := httputil.Validate(q); err != nil {
		httputil.Error(w, err)
		return
	}

	file, err := h.exporter.Export(r.Context(), export.Format(q.Format))
	if err != nil {
		h.log.Error().Err(err).Str("format", q.Format).Msg("export failed")
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
