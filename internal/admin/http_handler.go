package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/i-vertix/assethistory/internal/domain"
)

// Handler exposes the administrative operations:
//
//	POST   /monitoring/{type}
//	POST   /events/assignee-change
//	DELETE /objects/{type}/{id}
//	DELETE /subjects/{id}
type Handler struct {
	service *Service
}

// NewHTTPHandler creates the admin handler.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

type assigneeChangePayload struct {
	ObjectType   string     `json:"object_type"`
	ObjectID     int64      `json:"object_id"`
	OldSubjectID int64      `json:"old_subject_id"`
	NewSubjectID int64      `json:"new_subject_id"`
	OccurredAt   *time.Time `json:"occurred_at"`
	Created      bool       `json:"created"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	switch {
	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "monitoring":
		h.handleEnableMonitoring(w, r, parts[1])
	case r.Method == http.MethodPost && len(parts) == 2 && parts[0] == "events" && parts[1] == "assignee-change":
		h.handleAssigneeChange(w, r)
	case r.Method == http.MethodDelete && len(parts) == 3 && parts[0] == "objects":
		h.handleObjectPurged(w, r, parts[1], parts[2])
	case r.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "subjects":
		h.handleSubjectPurged(w, r, parts[1])
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handler) handleEnableMonitoring(w http.ResponseWriter, r *http.Request, objectType string) {
	imported, err := h.service.EnableMonitoring(r.Context(), objectType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"object_type": objectType, "backfilled": imported})
}

func (h *Handler) handleAssigneeChange(w http.ResponseWriter, r *http.Request) {
	var payload assigneeChangePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.ObjectType == "" || payload.ObjectID == 0 {
		http.Error(w, "object_type and object_id are required", http.StatusBadRequest)
		return
	}

	occurredAt := time.Now()
	if payload.OccurredAt != nil {
		occurredAt = *payload.OccurredAt
	}

	change := domain.AssigneeChange{
		ObjectType:   payload.ObjectType,
		ObjectID:     payload.ObjectID,
		OldSubjectID: payload.OldSubjectID,
		NewSubjectID: payload.NewSubjectID,
		OccurredAt:   occurredAt,
		Created:      payload.Created,
	}
	if err := h.service.HandleAssigneeChange(r.Context(), change); err != nil {
		// Capture is not best-effort: surface the failure so the host can
		// fail the triggering mutation.
		http.Error(w, "failed to capture change", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleObjectPurged(w http.ResponseWriter, r *http.Request, objectType, rawID string) {
	objectID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "invalid object id", http.StatusBadRequest)
		return
	}
	if err := h.service.ObjectPurged(r.Context(), objectType, objectID); err != nil {
		http.Error(w, "failed to purge history", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubjectPurged(w http.ResponseWriter, r *http.Request, rawID string) {
	subjectID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		http.Error(w, "invalid subject id", http.StatusBadRequest)
		return
	}
	if err := h.service.SubjectPurged(r.Context(), subjectID); err != nil {
		http.Error(w, "failed to anonymize history", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
