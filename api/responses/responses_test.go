package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	payload := decodeBody(t, rec)
	data, ok := payload["data"].(map[string]any)
	if !ok || data["hello"] != "world" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestWriteErrorMapsStatusAndMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	errBody := payload["error"].(map[string]any)
	if errBody["code"] != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %v", errBody["code"])
	}
	if errBody["message"] != "order not found" {
		t.Fatalf("client-safe messages should pass through, got %v", errBody["message"])
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	cause := errors.New("pq: connection refused host=10.1.2.3")
	WriteError(context.Background(), nil, rec, pkgerrors.Wrap(pkgerrors.CodeInternal, cause, "load order"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	errBody := payload["error"].(map[string]any)
	if errBody["message"] != "internal server error" {
		t.Fatalf("internal causes must not leak, got %v", errBody["message"])
	}
	if _, hasDetails := errBody["details"]; hasDetails {
		t.Fatalf("internal errors must not carry details")
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]any{"field": "email"})
	WriteError(context.Background(), nil, rec, err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	errBody := payload["error"].(map[string]any)
	details, ok := errBody["details"].(map[string]any)
	if !ok || details["field"] != "email" {
		t.Fatalf("expected details to pass through, got %v", errBody)
	}
}

func TestWriteErrorWrapsUntypedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("nil error should still produce a 500, got %d", rec.Code)
	}
}
