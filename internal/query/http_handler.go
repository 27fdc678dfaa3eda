package query

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/i-vertix/assethistory/internal/domain"
)

// Handler exposes the query and count engines as JSON endpoints:
//
//	GET /history/subjects/{id}
//	GET /history/subjects/{id}/count
//	GET /history/objects/{type}/{id}
//	GET /history/objects/{type}/{id}/count
//	GET /history/objects/{type}/{id}/holder
type Handler struct {
	service      *Service
	defaultLimit int
}

// NewHTTPHandler creates the history query handler.
func NewHTTPHandler(service *Service, defaultLimit int) http.Handler {
	return &Handler{service: service, defaultLimit: defaultLimit}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/history"))
	switch {
	case len(parts) >= 2 && parts[0] == "subjects":
		h.handleSubject(w, r, parts[1:])
	case len(parts) >= 3 && parts[0] == "objects":
		h.handleObject(w, r, parts[1:])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleSubject(w http.ResponseWriter, r *http.Request, parts []string) {
	subjectID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid subject id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1:
		page, err := h.service.QueryForSubject(r.Context(), subjectID, h.subjectOptions(r))
		if err != nil {
			http.Error(w, "failed to query history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, page)
	case len(parts) == 2 && parts[1] == "count":
		count, err := h.service.CountForSubject(r.Context(), subjectID)
		if err != nil {
			http.Error(w, "failed to count history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]int{"count": count})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleObject(w http.ResponseWriter, r *http.Request, parts []string) {
	objectType := parts[0]
	objectID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		http.Error(w, "invalid object id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2:
		page, err := h.service.QueryForObject(r.Context(), objectType, objectID, h.objectOptions(r))
		if err != nil {
			http.Error(w, "failed to query history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, page)
	case len(parts) == 3 && parts[2] == "count":
		count, err := h.service.CountForObject(r.Context(), objectType, objectID)
		if err != nil {
			http.Error(w, "failed to count history", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]int{"count": count})
	case len(parts) == 3 && parts[2] == "holder":
		interval, err := h.service.CurrentHolder(r.Context(), objectType, objectID)
		if err != nil {
			http.Error(w, "failed to get current holder", http.StatusInternalServerError)
			return
		}
		if interval == nil {
			writeJSON(w, map[string]any{"assigned": false})
			return
		}
		writeJSON(w, map[string]any{"assigned": true, "subject_id": interval.SubjectID, "assigned_at": interval.AssignedAt})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) subjectOptions(r *http.Request) SubjectOptions {
	q := r.URL.Query()
	return SubjectOptions{
		Sort:  domain.ParseHistorySortField(q.Get("sort")),
		Order: domain.ParseSortDirection(q.Get("order")),
		Filter: domain.SubjectHistoryFilter{
			ObjectTypes:  csvValues(q.Get("types")),
			NameContains: q.Get("name"),
		},
		Start: intValue(q.Get("start"), 0),
		Limit: intValue(q.Get("limit"), h.defaultLimit),
	}
}

func (h *Handler) objectOptions(r *http.Request) ObjectOptions {
	q := r.URL.Query()
	return ObjectOptions{
		Sort:  domain.ParseHistorySortField(q.Get("sort")),
		Order: domain.ParseSortDirection(q.Get("order")),
		Filter: domain.ObjectHistoryFilter{
			SubjectIDs: csvInt64s(q.Get("subjects")),
		},
		Start: intValue(q.Get("start"), 0),
		Limit: intValue(q.Get("limit"), h.defaultLimit),
	}
}

func splitPath(path string) []string {
	parts := []string{}
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func csvValues(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	values := []string{}
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func csvInt64s(raw string) []int64 {
	values := []int64{}
	for _, v := range csvValues(raw) {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			values = append(values, id)
		}
	}
	return values
}

func intValue(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
