// Package signature turns captured pen strokes into a raster image and
// routes it through the evidence store. It has no persistence path of its
// own.
package signature

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/internal/evidence"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

// Service captures a signature for a job.
type Service interface {
	Capture(ctx context.Context, input CaptureInput) (*models.EvidenceItem, error)
}

// CaptureInput carries the strokes and context of one signature.
type CaptureInput struct {
	JobID        uuid.UUID
	Phase        enums.EvidencePhase
	Strokes      []Stroke
	ReceiverName string
	Note         *string
	ActorID      uuid.UUID
}

type service struct {
	evidence evidence.Service
}

// NewService builds a signature service on top of the evidence store.
func NewService(evidenceSvc evidence.Service) (Service, error) {
	if evidenceSvc == nil {
		return nil, fmt.Errorf("evidence service required")
	}
	return &service{evidence: evidenceSvc}, nil
}

func (s *service) Capture(ctx context.Context, input CaptureInput) (*models.EvidenceItem, error) {
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}
	if input.Phase != enums.EvidencePhasePickup && input.Phase != enums.EvidencePhaseDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("signatures are captured at pickup or delivery, not %q", input.Phase))
	}

	receiver := strings.TrimSpace(input.ReceiverName)
	if receiver == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingReceiverName, "receiver name is required")
	}

	data, err := rasterize(input.Strokes)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("signature-%s-%s.png", input.Phase, time.Now().UTC().Format("20060102T150405Z"))
	return s.evidence.Submit(ctx, evidence.SubmitInput{
		JobID:        input.JobID,
		Kind:         enums.EvidenceKindSignature,
		Phase:        input.Phase,
		FileName:     fileName,
		Data:         data,
		ActorID:      input.ActorID,
		ReceiverName: &receiver,
		Note:         input.Note,
	})
}
