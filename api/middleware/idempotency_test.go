package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/freightline/freightline-backend/pkg/logger"
)

type stubIdempotencyStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{
		values: map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	s.ttls[key] = ttl
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func idempotencyTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newIdempotentRequest(method, path, body, key string, actorID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Idempotency-Key", key)
	return req.WithContext(WithActorID(req.Context(), actorID.String()))
}

func TestIdempotencyPassesThroughUnmatchedRoutes(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, idempotencyTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	jobID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID.String()+"/history", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if calls != 1 {
		t.Fatalf("expected handler to run, calls=%d", calls)
	}
	if len(store.values) != 0 {
		t.Fatal("no record should be stored for unmatched routes")
	}
}

func TestIdempotencyRequiresKeyHeader(t *testing.T) {
	store := newStubIdempotencyStore()
	handler := Idempotency(store, idempotencyTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without an idempotency key")
	}))

	jobID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID.String()+"/status", strings.NewReader(`{"status":"assigned"}`))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, idempotencyTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"abc"}}`))
	}))

	jobID := uuid.New()
	actorID := uuid.New()
	body := `{"status":"picked_up"}`
	path := "/api/v1/jobs/" + jobID.String() + "/status"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest(http.MethodPost, path, body, "key-1", actorID))
	if first.Code != http.StatusCreated {
		t.Fatalf("first call status %d", first.Code)
	}
	if len(store.values) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.values))
	}
	for key := range store.ttls {
		if store.ttls[key] != criticalIdempotencyTTL {
			t.Fatalf("status route must use the long TTL, got %s", store.ttls[key])
		}
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest(http.MethodPost, path, body, "key-1", actorID))

	if calls != 1 {
		t.Fatalf("replay must not re-run the handler, calls=%d", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status %d", second.Code)
	}
	if second.Body.String() != `{"data":{"id":"abc"}}` {
		t.Fatalf("replay body mismatch: %s", second.Body.String())
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("replay content type %q", ct)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newStubIdempotencyStore()
	handler := Idempotency(store, idempotencyTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))

	jobID := uuid.New()
	actorID := uuid.New()
	path := "/api/v1/jobs/" + jobID.String() + "/evidence"

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest(http.MethodPost, path, `{"file_name":"a.png"}`, "key-1", actorID))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest(http.MethodPost, path, `{"file_name":"b.png"}`, "key-1", actorID))

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", second.Code, second.Body.String())
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Error.Code != "IDEMPOTENCY_KEY_REUSED" {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestIdempotencyScopesRecordsPerActor(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, idempotencyTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))

	jobID := uuid.New()
	path := "/api/v1/jobs/" + jobID.String() + "/signature"
	body := `{"receiver_name":"Dana"}`

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotentRequest(http.MethodPost, path, body, "key-1", uuid.New()))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotentRequest(http.MethodPost, path, body, "key-1", uuid.New()))

	if calls != 2 {
		t.Fatalf("different actors must not share records, calls=%d", calls)
	}
}
