package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/api/middleware"
	"github.com/freightline/freightline-backend/api/responses"
	"github.com/freightline/freightline-backend/api/validators"
	podsvc "github.com/freightline/freightline-backend/internal/pod"
	"github.com/freightline/freightline-backend/pkg/db/models"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/logger"
)

// PodLatest serves the proof-of-delivery document for a job. When no
// document exists yet, or when ?regenerate=true, a fresh version is
// generated first.
func PodLatest(svc podsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pod service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.ActorIDFromContext(r.Context())

		if validators.QueryBool(r, "regenerate") {
			if _, err := svc.Generate(r.Context(), jobID, actorID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.Latest(r.Context(), jobID, actorID)
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			if _, genErr := svc.Generate(r.Context(), jobID, actorID); genErr != nil {
				responses.WriteError(r.Context(), logg, w, genErr)
				return
			}
			result, err = svc.Latest(r.Context(), jobID, actorID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newPodResponse(result))
	}
}

type podResponse struct {
	Document    podDocumentResponse `json:"document"`
	DownloadURL string              `json:"download_url"`
}

type podDocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	Version     int       `json:"version"`
	PageCount   int       `json:"page_count"`
	GeneratedAt time.Time `json:"generated_at"`
	IsLatest    bool      `json:"is_latest"`
}

func newPodResponse(result *podsvc.LatestResult) podResponse {
	return podResponse{
		Document:    newPodDocumentResponse(result.Document),
		DownloadURL: result.DownloadURL,
	}
}

func newPodDocumentResponse(doc *models.PodDocument) podDocumentResponse {
	return podDocumentResponse{
		ID:          doc.ID,
		JobID:       doc.JobID,
		Version:     doc.Version,
		PageCount:   doc.PageCount,
		GeneratedAt: doc.GeneratedAt,
		IsLatest:    doc.IsLatest,
	}
}
