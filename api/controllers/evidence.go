package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/api/middleware"
	"github.com/freightline/freightline-backend/api/responses"
	"github.com/freightline/freightline-backend/api/validators"
	evidencesvc "github.com/freightline/freightline-backend/internal/evidence"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/logger"
	"github.com/freightline/freightline-backend/pkg/pagination"
)

// EvidenceSubmit attaches one evidence item to a job.
func EvidenceSubmit(svc evidencesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitEvidenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(jobID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Submit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newEvidenceItemResponse(item))
	}
}

// EvidenceList returns the active evidence of a job, optionally filtered by
// phase and kind.
func EvidenceList(svc evidencesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseEvidenceFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.Params{Limit: limit, Cursor: validators.QueryString(r, "cursor")}

		list, err := svc.List(r.Context(), jobID, filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newEvidenceListResponse(list))
	}
}

// EvidenceDelete soft-deletes one evidence item.
func EvidenceDelete(svc evidencesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "evidence service unavailable"))
			return
		}

		if _, err := validators.ParseUUIDParam(r, "jobId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDQuery(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), itemID, middleware.ActorIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type submitEvidenceRequest struct {
	FileRef              string  `json:"file_ref"`
	FileName             string  `json:"file_name" validate:"required"`
	FileSize             int64   `json:"file_size"`
	MediaType            string  `json:"media_type"`
	Kind                 string  `json:"kind" validate:"required,oneof=photo signature document note"`
	Phase                string  `json:"phase" validate:"required,oneof=pickup delivery in_transit"`
	Notes                *string `json:"notes"`
	ReceiverName         *string `json:"receiver_name"`
	ReceiverSignatureRef *string `json:"receiver_signature_ref"`
}

func (p submitEvidenceRequest) toInput(jobID, actorID uuid.UUID) (evidencesvc.SubmitInput, error) {
	kind, err := enums.ParseEvidenceKind(p.Kind)
	if err != nil {
		return evidencesvc.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind")
	}
	phase, err := enums.ParseEvidencePhase(p.Phase)
	if err != nil {
		return evidencesvc.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phase")
	}

	return evidencesvc.SubmitInput{
		JobID:                jobID,
		Kind:                 kind,
		Phase:                phase,
		FileName:             p.FileName,
		FileRef:              p.FileRef,
		FileSize:             p.FileSize,
		MediaType:            p.MediaType,
		ActorID:              actorID,
		ReceiverName:         p.ReceiverName,
		ReceiverSignatureRef: p.ReceiverSignatureRef,
		Note:                 p.Notes,
	}, nil
}

func parseEvidenceFilters(r *http.Request) (evidencesvc.Filters, error) {
	var filters evidencesvc.Filters
	if raw := validators.QueryString(r, "phase"); raw != "" {
		phase, err := enums.ParseEvidencePhase(raw)
		if err != nil {
			return evidencesvc.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phase")
		}
		filters.Phase = &phase
	}
	if raw := validators.QueryString(r, "kind"); raw != "" {
		kind, err := enums.ParseEvidenceKind(raw)
		if err != nil {
			return evidencesvc.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind")
		}
		filters.Kind = &kind
	}
	return filters, nil
}

type evidenceItemResponse struct {
	ID                   uuid.UUID  `json:"id"`
	JobID                uuid.UUID  `json:"job_id"`
	Kind                 string     `json:"kind"`
	Phase                string     `json:"phase"`
	FileName             string     `json:"file_name"`
	SizeBytes            int64      `json:"size_bytes"`
	MediaType            string     `json:"media_type"`
	UploaderID           *uuid.UUID `json:"uploader_id,omitempty"`
	ReceiverName         *string    `json:"receiver_name,omitempty"`
	ReceiverSignatureRef *string    `json:"receiver_signature_ref,omitempty"`
	Note                 *string    `json:"note,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type evidenceListResponse struct {
	Items      []evidenceItemResponse            `json:"items"`
	ByPhase    map[string][]evidenceItemResponse `json:"by_phase"`
	NextCursor string                            `json:"next_cursor,omitempty"`
}

func newEvidenceItemResponse(item *models.EvidenceItem) evidenceItemResponse {
	return evidenceItemResponse{
		ID:                   item.ID,
		JobID:                item.JobID,
		Kind:                 string(item.Kind),
		Phase:                string(item.Phase),
		FileName:             item.FileName,
		SizeBytes:            item.SizeBytes,
		MediaType:            item.MediaType,
		UploaderID:           item.UploaderID,
		ReceiverName:         item.ReceiverName,
		ReceiverSignatureRef: item.ReceiverSignatureKey,
		Note:                 item.Note,
		CreatedAt:            item.CreatedAt,
	}
}

func newEvidenceListResponse(list *evidencesvc.List) evidenceListResponse {
	out := evidenceListResponse{
		Items:      make([]evidenceItemResponse, len(list.Items)),
		ByPhase:    make(map[string][]evidenceItemResponse, len(list.ByPhase)),
		NextCursor: list.NextCursor,
	}
	for i := range list.Items {
		out.Items[i] = newEvidenceItemResponse(&list.Items[i])
	}
	for phase, items := range list.ByPhase {
		grouped := make([]evidenceItemResponse, len(items))
		for i := range items {
			grouped[i] = newEvidenceItemResponse(&items[i])
		}
		out.ByPhase[string(phase)] = grouped
	}
	return out
}
