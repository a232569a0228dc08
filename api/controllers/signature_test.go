package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	signaturesvc "github.com/freightline/freightline-backend/internal/signature"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

type testSignatureService struct {
	captureFn func(ctx context.Context, input signaturesvc.CaptureInput) (*models.EvidenceItem, error)
}

func (s *testSignatureService) Capture(ctx context.Context, input signaturesvc.CaptureInput) (*models.EvidenceItem, error) {
	if s.captureFn != nil {
		return s.captureFn(ctx, input)
	}
	return nil, nil
}

func TestSignatureCaptureSuccess(t *testing.T) {
	jobID := uuid.New()
	actorID := uuid.New()
	var got signaturesvc.CaptureInput
	svc := &testSignatureService{
		captureFn: func(_ context.Context, input signaturesvc.CaptureInput) (*models.EvidenceItem, error) {
			got = input
			return &models.EvidenceItem{
				ID:        uuid.New(),
				JobID:     input.JobID,
				Kind:      enums.EvidenceKindSignature,
				Phase:     input.Phase,
				FileName:  "signature.png",
				MediaType: "image/png",
			}, nil
		},
	}

	body := `{"strokes":[{"points":[{"x":1,"y":2},{"x":3,"y":4}]}],"receiver_name":"R. Alvarez","phase":"delivery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/signature", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, actorID)
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	SignatureCapture(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.JobID != jobID || got.ActorID != actorID {
		t.Fatalf("service received wrong identifiers: %+v", got)
	}
	if got.Phase != enums.EvidencePhaseDelivery || got.ReceiverName != "R. Alvarez" {
		t.Fatalf("capture input not forwarded: %+v", got)
	}
	if len(got.Strokes) != 1 || len(got.Strokes[0].Points) != 2 {
		t.Fatalf("strokes not forwarded: %+v", got.Strokes)
	}
	if got.Strokes[0].Points[1].X != 3 || got.Strokes[0].Points[1].Y != 4 {
		t.Fatalf("point coordinates lost: %+v", got.Strokes[0].Points)
	}
}

func TestSignatureCaptureRejectsTransitPhase(t *testing.T) {
	jobID := uuid.New()
	body := `{"strokes":[{"points":[{"x":1,"y":2}]}],"receiver_name":"R. Alvarez","phase":"in_transit"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/signature", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, uuid.New())
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	SignatureCapture(&testSignatureService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSignatureCaptureEmptySignatureStatusCode(t *testing.T) {
	jobID := uuid.New()
	svc := &testSignatureService{
		captureFn: func(context.Context, signaturesvc.CaptureInput) (*models.EvidenceItem, error) {
			return nil, pkgerrors.New(pkgerrors.CodeEmptySignature, "signature has no points")
		},
	}

	body := `{"strokes":[{"points":[]}],"receiver_name":"R. Alvarez","phase":"delivery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/signature", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, uuid.New())
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	SignatureCapture(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
