package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freightline/freightline-backend/internal/lifecycle"
	"github.com/freightline/freightline-backend/pkg/db/models"
	"github.com/freightline/freightline-backend/pkg/enums"
	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

type testLifecycleService struct {
	advanceFn func(ctx context.Context, input lifecycle.AdvanceInput) (*lifecycle.AdvanceResult, error)
	historyFn func(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error)
}

func (s *testLifecycleService) Advance(ctx context.Context, input lifecycle.AdvanceInput) (*lifecycle.AdvanceResult, error) {
	if s.advanceFn != nil {
		return s.advanceFn(ctx, input)
	}
	return nil, nil
}

func (s *testLifecycleService) History(ctx context.Context, jobID uuid.UUID) ([]models.JobStatusEvent, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, jobID)
	}
	return nil, nil
}

func TestStatusTransitionSuccess(t *testing.T) {
	jobID := uuid.New()
	actorID := uuid.New()
	var got lifecycle.AdvanceInput
	svc := &testLifecycleService{
		advanceFn: func(_ context.Context, input lifecycle.AdvanceInput) (*lifecycle.AdvanceResult, error) {
			got = input
			job := &models.Job{ID: jobID, ReferenceNumber: "FL-1001", PostingCompanyID: uuid.New(), CurrentStatus: input.Target, UpdatedAt: time.Now()}
			event := models.JobStatusEvent{ID: uuid.New(), JobID: jobID, Status: input.Target, OccurredAt: time.Now(), ActorID: input.ActorID}
			return &lifecycle.AdvanceResult{Job: job, History: []models.JobStatusEvent{event}}, nil
		},
	}

	body := `{"status":"on_way_to_pickup","notes":"rolling","lat":40.7128,"lng":-74.006}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, actorID)
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	StatusTransition(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if got.JobID != jobID || got.ActorID != actorID {
		t.Fatalf("service received wrong identifiers: %+v", got)
	}
	if got.Target != enums.JobStatusOnWayToPickup {
		t.Fatalf("unexpected target %s", got.Target)
	}
	if got.Note == nil || *got.Note != "rolling" {
		t.Fatal("note not forwarded")
	}
	if got.Coordinate == nil || got.Coordinate.Lat != 40.7128 {
		t.Fatalf("coordinate not forwarded: %+v", got.Coordinate)
	}

	var envelope struct {
		Data struct {
			Job struct {
				CurrentStatus string `json:"current_status"`
			} `json:"job"`
			History []struct {
				Status string `json:"status"`
			} `json:"history"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Job.CurrentStatus != "on_way_to_pickup" {
		t.Fatalf("unexpected job status in response: %s", envelope.Data.Job.CurrentStatus)
	}
	if len(envelope.Data.History) != 1 {
		t.Fatalf("expected 1 history event, got %d", len(envelope.Data.History))
	}
}

func TestStatusTransitionRejectsUnknownStatus(t *testing.T) {
	jobID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/status", strings.NewReader(`{"status":"warp_speed"}`))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, uuid.New())
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	StatusTransition(&testLifecycleService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStatusTransitionRejectsHalfCoordinate(t *testing.T) {
	jobID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/status", strings.NewReader(`{"status":"at_pickup","lat":40.0}`))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, uuid.New())
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	StatusTransition(&testLifecycleService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStatusTransitionInvalidTransitionStatusCode(t *testing.T) {
	jobID := uuid.New()
	svc := &testLifecycleService{
		advanceFn: func(context.Context, lifecycle.AdvanceInput) (*lifecycle.AdvanceResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "delivered does not follow allocated")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/status", strings.NewReader(`{"status":"delivered"}`))
	req.Header.Set("Content-Type", "application/json")
	req = asActor(req, uuid.New())
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	StatusTransition(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code      string `json:"code"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != "INVALID_TRANSITION" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
	if envelope.Error.Retryable {
		t.Fatal("invalid transition must not be retryable")
	}
}

func TestStatusHistory(t *testing.T) {
	jobID := uuid.New()
	svc := &testLifecycleService{
		historyFn: func(_ context.Context, id uuid.UUID) ([]models.JobStatusEvent, error) {
			if id != jobID {
				t.Fatalf("unexpected job %s", id)
			}
			return []models.JobStatusEvent{
				{ID: uuid.New(), JobID: jobID, Status: enums.JobStatusAllocated, OccurredAt: time.Now(), ActorID: uuid.New()},
				{ID: uuid.New(), JobID: jobID, Status: enums.JobStatusOnWayToPickup, OccurredAt: time.Now(), ActorID: uuid.New()},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/history", nil)
	req = addRouteParam(req, "jobId", jobID.String())

	resp := httptest.NewRecorder()
	StatusHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].Status != "allocated" {
		t.Fatalf("unexpected history payload: %s", resp.Body.String())
	}
}
