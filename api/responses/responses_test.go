package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"

	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "check_in"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestWriteErrorKeepsMessageForInventoryShortfall(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientInventory, "no rooms left on 2024-06-02").
		WithDetails(map[string]any{"dates": []string{"2024-06-02"}})
	WriteError(context.Background(), nil, w, err)

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", w.Code)
	}
	if body.Error.Message != "no rooms left on 2024-06-02" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}

func TestWriteSuccessStatusCreated(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": "b-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestWriteErrorLogsMongoDriverFields(t *testing.T) {
	t.Setenv("HOTEL_LOG_FORMAT", "json")
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})

	cause := mongo.CommandError{Code: 11600, Name: "InterruptedAtShutdown", Message: "interrupted at shutdown"}
	w := httptest.NewRecorder()
	WriteError(context.Background(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "store unavailable"))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log entry %q: %v", buf.String(), err)
	}
	if entry["mongo_code"] != float64(11600) {
		t.Fatalf("expected mongo_code 11600, got %v", entry["mongo_code"])
	}
	if entry["mongo_name"] != "InterruptedAtShutdown" {
		t.Fatalf("unexpected mongo_name %v", entry["mongo_name"])
	}
	if entry["mongo_message"] != "interrupted at shutdown" {
		t.Fatalf("unexpected mongo_message %v", entry["mongo_message"])
	}
	if _, ok := entry["pg_code"]; ok {
		t.Fatalf("pg fields should be absent for a mongo error: %v", entry)
	}
}

func TestErrorLogFieldsIncludesPostgresDetails(t *testing.T) {
	fields := errorLogFields(pkgerrors.ErrorDump{
		TopMessage:   "duplicate key",
		PGCode:       "23505",
		PGConstraint: "notifications_pkey",
	}, http.StatusConflict)

	if fields["pg_code"] != "23505" || fields["pg_constraint"] != "notifications_pkey" {
		t.Fatalf("unexpected pg fields %v", fields)
	}
	if _, ok := fields["mongo_code"]; ok {
		t.Fatalf("mongo fields should be absent: %v", fields)
	}
	if fields["status"] != http.StatusConflict {
		t.Fatalf("unexpected status %v", fields["status"])
	}
}
