package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/repository"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	store := repository.NewMemoryIntervalRepository()
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		at := time.Date(2025, 3, int(i), 0, 0, 0, 0, time.UTC)
		if _, err := store.Insert(ctx, domain.NewInterval("Computer", i, 7, at)); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	resolver := stubResolver{names: map[string]string{
		"Computer:1": "pc-1",
		"Computer:2": "pc-2",
		"Computer:3": "pc-3",
		"User:7":     "jdoe",
	}}
	return NewHTTPHandler(NewService(store, resolver, stubAuthorizer{}), 20)
}

func TestHandlerSubjectHistory(t *testing.T) {
	handler := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/history/subjects/7?sort=assigned&order=asc&limit=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var page domain.SubjectHistoryPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if page.TotalCount != 3 || len(page.Rows) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Rows[0].ObjectName != "pc-1" {
		t.Fatalf("expected ascending order, got %+v", page.Rows)
	}
}

func TestHandlerSubjectCount(t *testing.T) {
	handler := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/history/subjects/7/count", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["count"] != 3 {
		t.Fatalf("expected count 3, got %d", payload["count"])
	}
}

func TestHandlerObjectHolder(t *testing.T) {
	handler := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/history/objects/Computer/1/holder", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["assigned"] != true {
		t.Fatalf("expected assigned holder, got %v", payload)
	}

	req = httptest.NewRequest(http.MethodGet, "/history/objects/Computer/99/holder", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["assigned"] != false {
		t.Fatalf("expected unassigned, got %v", payload)
	}
}

func TestHandlerRejectsBadInput(t *testing.T) {
	handler := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/history/subjects/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/history/subjects/7", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/history/unknown", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
