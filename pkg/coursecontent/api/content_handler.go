package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/course-content/pkg/coursecontent"
)

// ContentsPattern is the route of a task's content collection.
const ContentsPattern = "/courses/{courseID}/units/{unitID}/tasks/{taskID}/contents"

// ContentHandler handles HTTP requests for course content documents
type ContentHandler struct {
	service coursecontent.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(service coursecontent.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// Routes returns the routes for content documents, rooted at ContentsPattern
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route(ContentsPattern, func(r chi.Router) {
		r.Get("/", h.ListContent)
		r.Post("/", h.AddItem)
		r.Get("/{contentID}", h.GetContent)
		r.Delete("/{contentID}", h.DeleteContent)
		r.Put("/{contentID}/items/{position}", h.EditItem)
		r.Get("/{contentID}/positions/suggest", h.SuggestPosition)
		r.Get("/{contentID}/positions/check", h.CheckEditPosition)
		r.Get("/{contentID}/type", h.CheckContentType)
	})

	return r
}

// ItemRequest is the request body for adding or editing an item
type ItemRequest struct {
	ContentID          string          `json:"contentID,omitempty"`
	ContentType        string          `json:"contentType"`
	ContentNo          int             `json:"contentNo"`
	ContentName        string          `json:"contentName"`
	ContentDescription string          `json:"contentDescription"`
	Item               json.RawMessage `json:"item"`
}

func (req ItemRequest) metadata() coursecontent.Metadata {
	return coursecontent.Metadata{
		ContentType:        req.ContentType,
		ContentNo:          req.ContentNo,
		ContentName:        req.ContentName,
		ContentDescription: req.ContentDescription,
	}
}

func (req ItemRequest) item() (coursecontent.ContentItem, error) {
	t, err := coursecontent.ParseContentType(req.ContentType)
	if err != nil {
		return nil, err
	}
	raw := bytes.TrimSpace(req.Item)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, coursecontent.ErrItemRequired
	}
	return coursecontent.DecodeItem(t, raw)
}

// PositionResponse is the response body for position checks
type PositionResponse struct {
	Position coursecontent.Position `json:"position"`
}

// TypeCheckResponse is the response body for a content type check
type TypeCheckResponse struct {
	Match bool `json:"match"`
}

// ErrorResponse is the response body for a failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func contentPath(r *http.Request) (coursecontent.ContentPath, error) {
	task, err := coursecontent.NewTaskPath(
		chi.URLParam(r, "courseID"),
		chi.URLParam(r, "unitID"),
		chi.URLParam(r, "taskID"),
	)
	if err != nil {
		return coursecontent.ContentPath{}, err
	}
	return task.Contents(), nil
}

// ListContent returns every content document of the task
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	views, err := h.service.ListContent(r.Context(), path)
	if err != nil {
		writeError(w, r, "", err)
		return
	}

	render.JSON(w, r, views)
}

// GetContent returns one content document
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	view, err := h.service.GetContent(r.Context(), path, contentID)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	render.JSON(w, r, view)
}

// AddItem adds an item to the document named in the body, creating the
// document when no contentID is given
func (h *ContentHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, req.ContentID, err)
		return
	}

	item, err := req.item()
	if err != nil {
		slog.Warn("Invalid content item", "content_id", req.ContentID, "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.AddItem(r.Context(), coursecontent.AddItemRequest{
		Path:      path,
		ContentID: req.ContentID,
		Item:      item,
		Metadata:  req.metadata(),
	})
	if err != nil {
		writeError(w, r, req.ContentID, err)
		return
	}

	slog.Info("Content item added", "content_id", result.ContentID, "position", result.Position.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// EditItem replaces the item at the position in the URL. The item's own
// position in the body is the target position.
func (h *ContentHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	previous := coursecontent.ParsePosition(chi.URLParam(r, "position"))
	if !previous.IsSet() {
		http.Error(w, "Invalid position", http.StatusBadRequest)
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	item, err := req.item()
	if err != nil {
		slog.Warn("Invalid content item", "content_id", contentID, "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
		return
	}

	pos, err := h.service.EditItem(r.Context(), coursecontent.EditItemRequest{
		Path:             path,
		ContentID:        contentID,
		Metadata:         req.metadata(),
		PreviousPosition: previous,
		Item:             item,
	})
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	slog.Info("Content item edited", "content_id", contentID, "from", previous.String(), "to", pos.String())
	render.JSON(w, r, coursecontent.AddItemResult{ContentID: contentID, Position: pos})
}

// DeleteContent removes the item at ?position=, and/or the whole document
// depending on the service's delete mode
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	var position coursecontent.Position
	if raw := r.URL.Query().Get("position"); raw != "" {
		position = coursecontent.ParsePosition(raw)
		if !position.IsSet() {
			http.Error(w, "Invalid position", http.StatusBadRequest)
			return
		}
	}

	err = h.service.RemoveItem(r.Context(), coursecontent.RemoveRequest{
		Path:      path,
		ContentID: contentID,
		Position:  position,
	})
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	slog.Info("Content deleted", "content_id", contentID, "position", position.String())
	w.WriteHeader(http.StatusNoContent)
}

// SuggestPosition validates ?position= against the document, or suggests
// the next free position when it is absent
func (h *ContentHandler) SuggestPosition(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	requested := coursecontent.ParsePosition(r.URL.Query().Get("position"))
	pos, err := h.service.SuggestPosition(r.Context(), path, contentID, requested)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	render.JSON(w, r, PositionResponse{Position: pos})
}

// CheckEditPosition validates moving the item at ?previous= to ?position=
func (h *ContentHandler) CheckEditPosition(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	q := r.URL.Query()
	previous := coursecontent.ParsePosition(q.Get("previous"))
	next := coursecontent.ParsePosition(q.Get("position"))
	pos, err := h.service.CheckEditPosition(r.Context(), path, contentID, previous, next)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	render.JSON(w, r, PositionResponse{Position: pos})
}

// CheckContentType reports whether the document has ?contentType= and
// ?contentNo=
func (h *ContentHandler) CheckContentType(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentID")
	path, err := contentPath(r)
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	q := r.URL.Query()
	contentNo, err := strconv.Atoi(q.Get("contentNo"))
	if err != nil {
		http.Error(w, "Invalid contentNo", http.StatusBadRequest)
		return
	}

	match, err := h.service.CheckContentType(r.Context(), path, contentID, contentNo, q.Get("contentType"))
	if err != nil {
		writeError(w, r, contentID, err)
		return
	}

	render.JSON(w, r, TypeCheckResponse{Match: match})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, coursecontent.ErrContentNotFound), errors.Is(err, coursecontent.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, coursecontent.ErrInvalidPath),
		errors.Is(err, coursecontent.ErrInvalidContentType),
		errors.Is(err, coursecontent.ErrItemRequired):
		return http.StatusBadRequest
	case errors.Is(err, coursecontent.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, coursecontent.ErrInvalidPosition), errors.Is(err, coursecontent.ErrTypeMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, contentID string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Content request failed", "method", r.Method, "path", r.URL.Path, "content_id", contentID, "error", err)
		msg = http.StatusText(status)
	} else {
		slog.Warn("Content request rejected", "method", r.Method, "path", r.URL.Path, "content_id", contentID, "status", status, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
