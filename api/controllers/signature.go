package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/api/middleware"
	"github.com/freightline/freightline-backend/api/responses"
	"github.com/freightline/freightline-backend/api/validators"
	signaturesvc "github.com/freightline/freightline-backend/internal/signature"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/logger"
)

// SignatureCapture rasterizes a drawn signature and stores it as evidence.
func SignatureCapture(svc signaturesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "signature service unavailable"))
			return
		}

		jobID, err := validators.ParseUUIDParam(r, "jobId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload captureSignatureRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(jobID, middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Capture(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newEvidenceItemResponse(item))
	}
}

type captureSignatureRequest struct {
	Strokes      []strokePayload `json:"strokes" validate:"required"`
	ReceiverName string          `json:"receiver_name" validate:"required"`
	Phase        string          `json:"phase" validate:"required,oneof=pickup delivery"`
	Notes        *string         `json:"notes"`
}

type strokePayload struct {
	Points []pointPayload `json:"points"`
}

type pointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p captureSignatureRequest) toInput(jobID, actorID uuid.UUID) (signaturesvc.CaptureInput, error) {
	phase, err := enums.ParseEvidencePhase(p.Phase)
	if err != nil {
		return signaturesvc.CaptureInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid phase")
	}

	strokes := make([]signaturesvc.Stroke, len(p.Strokes))
	for i, stroke := range p.Strokes {
		points := make([]signaturesvc.Point, len(stroke.Points))
		for j, point := range stroke.Points {
			points[j] = signaturesvc.Point{X: point.X, Y: point.Y}
		}
		strokes[i] = signaturesvc.Stroke{Points: points}
	}

	return signaturesvc.CaptureInput{
		JobID:        jobID,
		Phase:        phase,
		Strokes:      strokes,
		ReceiverName: p.ReceiverName,
		Note:         p.Notes,
		ActorID:      actorID,
	}, nil
}
