package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/api/middleware"
	"github.com/freightline/freightline-backend/api/responses"
	"github.com/freightline/freightline-backend/api/validators"
	"github.com/freightline/freightline-backend/internal/lifecycle"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/logger"
	"github.com/freightline/freightline-backend/pkg/types"
)

// StatusTransition handles a requested lifecycle step for a job.
func StatusTransition(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(jobID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Advance(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newTransitionResponse(result))
	}
}

// StatusHistory returns the ordered transition history of a job.
func StatusHistory(svc lifecycle.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lifecycle service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.History(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newHistoryResponse(events))
	}
}

type transitionRequest struct {
	Status string   `json:"status" validate:"required"`
	Notes  *string  `json:"notes"`
	Lat    *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng    *float64 `json:"lng" validate:"omitempty,longitude"`
}

func (p transitionRequest) toInput(jobID, actorID uuid.UUID) (lifecycle.AdvanceInput, error) {
	target, err := enums.ParseJobStatus(p.Status)
	if err != nil {
		return lifecycle.AdvanceInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	if (p.Lat == nil) != (p.Lng == nil) {
		return lifecycle.AdvanceInput{}, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}

	input := lifecycle.AdvanceInput{
		JobID:   jobID,
		Target:  target,
		ActorID: actorID,
		Note:    p.Notes,
	}
	if p.Lat != nil {
		input.Coordinate = &types.GeoPoint{Lat: *p.Lat, Lng: *p.Lng}
	}
	return input, nil
}

type transitionResponse struct {
	Job     jobResponse           `json:"job"`
	History []statusEventResponse `json:"history"`
}

type jobResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ReferenceNumber     string     `json:"reference_number"`
	PostingCompanyID    uuid.UUID  `json:"posting_company_id"`
	AssignedOperatorID  *uuid.UUID `json:"assigned_operator_id,omitempty"`
	CurrentStatus       string     `json:"current_status"`
	HasPickupEvidence   bool       `json:"has_pickup_evidence"`
	HasDeliveryEvidence bool       `json:"has_delivery_evidence"`
	PickupAddress       string     `json:"pickup_address,omitempty"`
	DeliveryAddress     string     `json:"delivery_address,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type statusEventResponse struct {
	ID         uuid.UUID       `json:"id"`
	Status     string          `json:"status"`
	OccurredAt time.Time       `json:"occurred_at"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Note       *string         `json:"note,omitempty"`
	Coordinate *types.GeoPoint `json:"coordinate,omitempty"`
}

func newTransitionResponse(result *lifecycle.AdvanceResult) transitionResponse {
	return transitionResponse{
		Job:     newJobResponse(result.Job),
		History: newHistoryResponse(result.History),
	}
}

func newJobResponse(job *models.Job) jobResponse {
	return jobResponse{
		ID:                  job.ID,
		ReferenceNumber:     job.ReferenceNumber,
		PostingCompanyID:    job.PostingCompanyID,
		AssignedOperatorID:  job.AssignedOperatorID,
		CurrentStatus:       string(job.CurrentStatus),
		HasPickupEvidence:   job.HasPickupEvidence,
		HasDeliveryEvidence: job.HasDeliveryEvidence,
		PickupAddress:       job.PickupAddress,
		DeliveryAddress:     job.DeliveryAddress,
		UpdatedAt:           job.UpdatedAt,
	}
}

func newHistoryResponse(events []models.JobStatusEvent) []statusEventResponse {
	out := make([]statusEventResponse, len(events))
	for i, event := range events {
		out[i] = statusEventResponse{
			ID:         event.ID,
			Status:     string(event.Status),
			OccurredAt: event.OccurredAt,
			ActorID:    event.ActorID,
			Note:       event.Note,
			Coordinate: event.Coordinate,
		}
	}
	return out
}
