package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"manara/internal/model"
	"manara/internal/service"
	"manara/internal/transport/rest/middleware"
)

// ContentHandler handles lecture, news, and resource endpoints
type ContentHandler struct {
	contentSvc *service.ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentSvc *service.ContentService) *ContentHandler {
	return &ContentHandler{contentSvc: contentSvc}
}

// ListLectures handles GET /v1/lectures
func (h *ContentHandler) ListLectures(w http.ResponseWriter, r *http.Request) {
	lectures, err := h.contentSvc.ListLectures(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, lectures)
}

// CreateLecture handles POST /v1/admin/lectures
func (h *ContentHandler) CreateLecture(w http.ResponseWriter, r *http.Request) {
	var lecture model.Lecture
	if err := json.NewDecoder(r.Body).Decode(&lecture); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.contentSvc.CreateLecture(r.Context(), middleware.GetRole(r.Context()), middleware.GetUserID(r.Context()), &lecture)
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteLecture handles DELETE /v1/admin/lectures/{id}
func (h *ContentHandler) DeleteLecture(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.contentSvc.DeleteLecture(r.Context(), middleware.GetRole(r.Context()), id); err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListNews handles GET /v1/news
func (h *ContentHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.contentSvc.ListNews(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateNews handles POST /v1/admin/news
func (h *ContentHandler) CreateNews(w http.ResponseWriter, r *http.Request) {
	var item model.NewsItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.contentSvc.CreateNews(r.Context(), middleware.GetRole(r.Context()), middleware.GetUserID(r.Context()), &item)
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteNews handles DELETE /v1/admin/news/{id}
func (h *ContentHandler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.contentSvc.DeleteNews(r.Context(), middleware.GetRole(r.Context()), id); err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListResources handles GET /v1/resources?category=
func (h *ContentHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.contentSvc.ListResources(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

// CreateResource handles POST /v1/admin/resources
func (h *ContentHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var res model.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.contentSvc.CreateResource(r.Context(), middleware.GetRole(r.Context()), middleware.GetUserID(r.Context()), &res)
	if err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteResource handles DELETE /v1/admin/resources/{id}
func (h *ContentHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.contentSvc.DeleteResource(r.Context(), middleware.GetRole(r.Context()), id); err != nil {
		writeContentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeContentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrMissingTitle):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
