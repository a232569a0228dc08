package signature

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/internal/evidence"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
	"github.com/freightline/freightline-backend/pkg/pagination"
)

type stubEvidenceService struct {
	lastInput *evidence.SubmitInput
	err       error
}

func (s *stubEvidenceService) Submit(_ context.Context, input evidence.SubmitInput) (*models.EvidenceItem, error) {
	s.lastInput = &input
	if s.err != nil {
		return nil, s.err
	}
	return &models.EvidenceItem{
		ID:           uuid.New(),
		JobID:        input.JobID,
		Kind:         input.Kind,
		Phase:        input.Phase,
		FileName:     input.FileName,
		SizeBytes:    int64(len(input.Data)),
		MediaType:    "image/png",
		ReceiverName: input.ReceiverName,
	}, nil
}

func (s *stubEvidenceService) List(context.Context, uuid.UUID, evidence.Filters, pagination.Params) (*evidence.List, error) {
	return &evidence.List{}, nil
}

func (s *stubEvidenceService) SoftDelete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func sampleStrokes() []Stroke {
	return []Stroke{
		{Points: []Point{{X: 0, Y: 0}, {X: 40, Y: 25}, {X: 90, Y: 10}}},
		{Points: []Point{{X: 20, Y: 30}, {X: 70, Y: 35}}},
	}
}

func TestCaptureRoutesThroughEvidenceStore(t *testing.T) {
	stub := &stubEvidenceService{}
	svc, err := NewService(stub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	jobID := uuid.New()
	actorID := uuid.New()
	item, err := svc.Capture(context.Background(), CaptureInput{
		JobID:        jobID,
		Phase:        enums.EvidencePhaseDelivery,
		Strokes:      sampleStrokes(),
		ReceiverName: "  R. Alvarez  ",
		ActorID:      actorID,
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if stub.lastInput == nil {
		t.Fatal("expected evidence submit call")
	}
	if stub.lastInput.Kind != enums.EvidenceKindSignature {
		t.Fatalf("expected signature kind, got %s", stub.lastInput.Kind)
	}
	if stub.lastInput.ReceiverName == nil || *stub.lastInput.ReceiverName != "R. Alvarez" {
		t.Fatalf("expected trimmed receiver name, got %v", stub.lastInput.ReceiverName)
	}
	if item.JobID != jobID {
		t.Fatalf("job id mismatch")
	}

	// The routed artifact must be a decodable PNG.
	img, err := png.Decode(bytes.NewReader(stub.lastInput.Data))
	if err != nil {
		t.Fatalf("decode rendered signature: %v", err)
	}
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		t.Fatal("expected non-empty image")
	}
}

func TestCaptureEmptySignature(t *testing.T) {
	svc, err := NewService(&stubEvidenceService{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Capture(context.Background(), CaptureInput{
		JobID:        uuid.New(),
		Phase:        enums.EvidencePhasePickup,
		Strokes:      []Stroke{{Points: nil}},
		ReceiverName: "R. Alvarez",
		ActorID:      uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeEmptySignature) {
		t.Fatalf("expected EMPTY_SIGNATURE, got %v", err)
	}
}

func TestCaptureMissingReceiverName(t *testing.T) {
	svc, err := NewService(&stubEvidenceService{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Capture(context.Background(), CaptureInput{
		JobID:        uuid.New(),
		Phase:        enums.EvidencePhaseDelivery,
		Strokes:      sampleStrokes(),
		ReceiverName: "   ",
		ActorID:      uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeMissingReceiverName) {
		t.Fatalf("expected MISSING_RECEIVER_NAME, got %v", err)
	}
}

func TestCaptureRejectsInTransitPhase(t *testing.T) {
	svc, err := NewService(&stubEvidenceService{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Capture(context.Background(), CaptureInput{
		JobID:        uuid.New(),
		Phase:        enums.EvidencePhaseInTransit,
		Strokes:      sampleStrokes(),
		ReceiverName: "R. Alvarez",
		ActorID:      uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestCapturePropagatesEvidenceErrors(t *testing.T) {
	stub := &stubEvidenceService{err: pkgerrors.New(pkgerrors.CodeInvalidPhase, "phase closed")}
	svc, err := NewService(stub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Capture(context.Background(), CaptureInput{
		JobID:        uuid.New(),
		Phase:        enums.EvidencePhaseDelivery,
		Strokes:      sampleStrokes(),
		ReceiverName: "R. Alvarez",
		ActorID:      uuid.New(),
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidPhase) {
		t.Fatalf("expected INVALID_PHASE, got %v", err)
	}
}
