package export

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/i-vertix/assethistory/internal/domain"
	"github.com/i-vertix/assethistory/internal/query"
)

// Handler streams history exports:
//
//	GET /export/subjects/{id}
//	GET /export/objects/{type}/{id}
type Handler struct {
	service *Service
}

// NewHTTPHandler creates the export handler.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := []string{}
	for _, part := range strings.Split(strings.TrimPrefix(r.URL.Path, "/export"), "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}

	sort := domain.ParseHistorySortField(r.URL.Query().Get("sort"))
	order := domain.ParseSortDirection(r.URL.Query().Get("order"))

	var file *File
	var err error
	switch {
	case len(parts) == 2 && parts[0] == "subjects":
		var subjectID int64
		subjectID, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			http.Error(w, "invalid subject id", http.StatusBadRequest)
			return
		}
		file, err = h.service.ExportForSubject(r.Context(), subjectID, query.SubjectOptions{Sort: sort, Order: order})
	case len(parts) == 3 && parts[0] == "objects":
		var objectID int64
		objectID, err = strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			http.Error(w, "invalid object id", http.StatusBadRequest)
			return
		}
		file, err = h.service.ExportForObject(r.Context(), parts[1], objectID, query.ObjectOptions{Sort: sort, Order: order})
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	if _, err := file.Content.WriteTo(w); err != nil {
		// Headers already sent; nothing left to do but log via middleware.
		return
	}
}
