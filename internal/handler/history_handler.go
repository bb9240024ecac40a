package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/suar-net/suar-api/internal/model"
	"github.com/suar-net/suar-api/internal/service"
)

type HistoryHandler struct {
	service service.IHistoryService
	logger  *logrus.Logger
}

func NewHistoryHandler(s service.IHistoryService, l *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: s,
		logger:  l,
	}
}

type dataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type pageResponse struct {
	Success    bool                  `json:"success"`
	Data       []model.HistoryRecord `json:"data"`
	Pagination model.Pagination      `json:"pagination"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type exportResponse struct {
	Success    bool                  `json:"success"`
	Data       []model.HistoryRecord `json:"data"`
	ExportedAt time.Time             `json:"exportedAt"`
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, details := parsePageQuery(r)
	if details != nil {
		respondWithValidationError(w, details)
		return
	}
	result, err := h.service.List(r.Context(), page)
	h.respondWithPage(w, result, err)
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	record, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, dataResponse{Success: true, Data: record})
}

func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req model.DTOUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if details := validateUpdate(req); details != nil {
		respondWithValidationError(w, details)
		return
	}

	record, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, dataResponse{Success: true, Data: record})
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, messageResponse{Success: true, Message: "Request deleted successfully"})
}

func (h *HistoryHandler) Collections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.Collections(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, dataResponse{Success: true, Data: collections})
}

func (h *HistoryHandler) ByCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := pathParam(r, "collection")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid collection name")
		return
	}
	page, details := parsePageQuery(r)
	if details != nil {
		respondWithValidationError(w, details)
		return
	}
	result, err := h.service.ListByCollection(r.Context(), collection, page)
	h.respondWithPage(w, result, err)
}

func (h *HistoryHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	page, details := parsePageQuery(r)
	if details != nil {
		respondWithValidationError(w, details)
		return
	}
	result, err := h.service.ListFavorites(r.Context(), page)
	h.respondWithPage(w, result, err)
}

func (h *HistoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "Search query is required")
		return
	}
	page, details := parsePageQuery(r)
	if details != nil {
		respondWithValidationError(w, details)
		return
	}
	result, err := h.service.Search(r.Context(), q, page)
	h.respondWithPage(w, result, err)
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, dataResponse{Success: true, Data: stats})
}

// Export dumps matching records as JSON (default) or as a CSV attachment.
func (h *HistoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format := query.Get("format")
	if format == "" {
		format = "json"
	}
	if details := validateVar("format", format, "oneof=json csv"); details != nil {
		respondWithValidationError(w, details)
		return
	}

	var filter model.HistoryFilter
	if c := query.Get("collection"); c != "" {
		filter.Collection = &c
	}
	filter.FavoritesOnly = query.Get("favorite") == "true"

	records, err := h.service.Export(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="requests.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := service.WriteCSV(w, records); err != nil {
			h.logger.WithError(err).Error("Failed to write CSV export")
		}
		return
	}

	respondWithJson(w, http.StatusOK, exportResponse{
		Success:    true,
		Data:       records,
		ExportedAt: time.Now().UTC(),
	})
}

func (h *HistoryHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req model.DTOBulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "IDs array is required")
		return
	}
	n, err := h.service.BulkDelete(r.Context(), req.IDs)
	if errors.Is(err, service.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "No requests found with provided IDs")
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("%d requests deleted successfully", n),
	})
}

func (h *HistoryHandler) BulkFavorite(w http.ResponseWriter, r *http.Request) {
	var req model.DTOBulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		respondWithError(w, http.StatusBadRequest, "IDs array is required")
		return
	}
	n, err := h.service.BulkFavorite(r.Context(), req.IDs, req.Favorite)
	if errors.Is(err, service.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "No requests found with provided IDs")
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respondWithJson(w, http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("%d requests updated successfully", n),
	})
}

func (h *HistoryHandler) respondWithPage(w http.ResponseWriter, page *model.HistoryPage, err error) {
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	data := page.Data
	if data == nil {
		data = []model.HistoryRecord{}
	}
	respondWithJson(w, http.StatusOK, pageResponse{
		Success:    true,
		Data:       data,
		Pagination: page.Pagination,
	})
}

func (h *HistoryHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Request not found")
	default:
		h.logger.WithError(err).Error("History operation failed")
		respondWithError(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// pathParam returns a decoded URL parameter. chi matches on RawPath when the
// request has one, so only that form still needs unescaping.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid request ID")
		return 0, false
	}
	return uint(id), true
}

// parsePageQuery reads page, limit, sortBy and sortOrder, filling defaults
// for the ones that are missing.
func parsePageQuery(r *http.Request) (model.PageQuery, []FieldError) {
	query := r.URL.Query()
	page := model.DefaultPageQuery()

	var details []FieldError
	if v := query.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, FieldError{Field: "page", Message: "Field 'page' must be an integer"})
		}
		page.Page = n
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, FieldError{Field: "limit", Message: "Field 'limit' must be an integer"})
		}
		page.Limit = n
	}
	if v := query.Get("sortBy"); v != "" {
		page.SortBy = v
	}
	if v := query.Get("sortOrder"); v != "" {
		page.SortOrder = v
	}
	if details != nil {
		return page, details
	}

	if err := validate.Struct(&page); err != nil {
		return page, ValidationError(err)
	}
	return page, nil
}

func validateUpdate(req model.DTOUpdateRequest) []FieldError {
	var details []FieldError
	if v, ok := req.Name.Get(); ok {
		details = append(details, validateVar("name", v, "max=255")...)
	}
	if v, ok := req.Description.Get(); ok {
		details = append(details, validateVar("description", v, "max=1000")...)
	}
	if v, ok := req.Collection.Get(); ok {
		details = append(details, validateVar("collection", v, "max=100")...)
	}
	return details
}
