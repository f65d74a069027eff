package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/swayaa-dev/storefront-backend/internal/contact"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
)

type stubContactService struct {
	got contact.SubmitRequest
	err error
}

func (s *stubContactService) Submit(_ context.Context, req contact.SubmitRequest) error {
	s.got = req
	return s.err
}

func contactRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestContactSubmitQueued(t *testing.T) {
	svc := &stubContactService{}
	handler := ContactSubmit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, contactRequest(`{"name":"Jamie","email":"jamie@example.com","subject":"Sizing","message":"Does the tee run small or large?"}`))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data contact.SubmitResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != "queued" {
		t.Fatalf("unexpected status %q", envelope.Data.Status)
	}
	if svc.got.Email != "jamie@example.com" {
		t.Fatalf("service did not receive the decoded body: %+v", svc.got)
	}
}

func TestContactSubmitRejectsInvalidBody(t *testing.T) {
	svc := &stubContactService{}
	handler := ContactSubmit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, contactRequest(`{"name":"","email":"nope","subject":"","message":"short"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.got.Email != "" {
		t.Fatal("service must not be called for invalid bodies")
	}
}

func TestContactSubmitSurfacesQueueFailure(t *testing.T) {
	svc := &stubContactService{err: pkgerrors.New(pkgerrors.CodeDependency, "queue contact message")}
	handler := ContactSubmit(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, contactRequest(`{"name":"Jamie","email":"jamie@example.com","subject":"Sizing","message":"Does the tee run small or large?"}`))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
