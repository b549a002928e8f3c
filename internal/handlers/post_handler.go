package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hungpv1995/postboard/internal/board"
	"github.com/hungpv1995/postboard/internal/models"
	"github.com/hungpv1995/postboard/internal/navigation"
	"go.uber.org/zap"
)

// Searcher runs full-text queries against the search mirror.
type Searcher interface {
	SearchPosts(ctx context.Context, query string) ([]models.SearchHit, error)
}

type PostHandler struct {
	board  *board.Board
	search Searcher
	logger *zap.Logger
}

// NewPostHandler wires the HTTP API to b. search may be nil when the mirror
// is disabled.
func NewPostHandler(b *board.Board, search Searcher, logger *zap.Logger) *PostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostHandler{
		board:  b,
		search: search,
		logger: logger,
	}
}

// Router builds the gorilla/mux router for the API.
func (h *PostHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(h.logger))

	r.HandleFunc("/posts", h.ListPosts).Methods("GET")
	r.HandleFunc("/posts", h.SavePost).Methods("POST")
	r.HandleFunc("/posts/search", h.SearchPosts).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}", h.GetPost).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}", h.DeletePost).Methods("DELETE")
	r.HandleFunc("/posts/{id:[0-9]+}/edit", h.BeginEdit).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/comments", h.Comments).Methods("GET")
	r.HandleFunc("/edit", h.GetEditSession).Methods("GET")
	r.HandleFunc("/edit", h.CancelEdit).Methods("DELETE")
	r.HandleFunc("/view/search", h.SetSearchQuery).Methods("PUT")
	r.HandleFunc("/view/page", h.SetPage).Methods("PUT")
	r.HandleFunc("/healthz", h.Status).Methods("GET")
	r.HandleFunc("/retry", h.Retry).Methods("POST")

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps board errors onto status codes.
func (h *PostHandler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, board.ErrNotReady):
		http.Error(w, "Board is not ready", http.StatusServiceUnavailable)
	case errors.Is(err, board.ErrNotFound):
		http.Error(w, "Post not found", http.StatusNotFound)
	case errors.Is(err, board.ErrDuplicateID):
		http.Error(w, "Post id already exists", http.StatusConflict)
	case errors.Is(err, board.ErrAlreadyInitialized):
		http.Error(w, "Board already initialized", http.StatusConflict)
	default:
		h.logger.Error(msg, zap.Error(err))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func postID(r *http.Request) (int, error) {
	return strconv.Atoi(mux.Vars(r)["id"])
}

// ListPosts handles GET /posts
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.View())
}

// SavePost handles POST /posts. It creates a post, or saves the post being
// edited when an edit session is active.
func (h *PostHandler) SavePost(w http.ResponseWriter, r *http.Request) {
	var post models.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate input
	if post.Title == "" || post.Body == "" {
		http.Error(w, "Title and body are required", http.StatusBadRequest)
		return
	}

	session := h.board.EditSession()
	if session.Active && post.UserID == 0 {
		post.UserID = session.Target.UserID
	}
	if post.ID == 0 {
		if session.Active {
			post.ID = session.Target.ID
		} else {
			post.ID = h.board.NextID()
		}
	}
	if post.ID < 0 {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := h.board.Create(r.Context(), post); err != nil {
		h.writeError(w, err, "Failed to save post")
		return
	}

	status := http.StatusCreated
	if session.Active {
		status = http.StatusOK
	}
	writeJSON(w, status, post)
}

// GetPost handles GET /posts/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := h.board.Post(id)
	if err != nil {
		h.writeError(w, err, "Failed to get post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /posts/{id}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := h.board.Delete(r.Context(), id); err != nil {
		h.writeError(w, err, "Failed to delete post")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BeginEdit handles POST /posts/{id}/edit
func (h *PostHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := h.board.Post(id)
	if err != nil {
		h.writeError(w, err, "Failed to edit post")
		return
	}

	h.board.BeginEdit(post)
	writeJSON(w, http.StatusOK, h.board.EditSession())
}

// GetEditSession handles GET /edit
func (h *PostHandler) GetEditSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.board.EditSession())
}

// CancelEdit handles DELETE /edit
func (h *PostHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.board.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}

// Comments handles GET /posts/{id}/comments by redirecting to the post's
// comments view.
func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	post, err := h.board.Post(id)
	if err != nil {
		h.writeError(w, err, "Failed to open comments")
		return
	}

	ctx := navigation.WithResponse(r.Context(), w, r)
	if err := h.board.NavigateToComments(ctx, post); err != nil {
		h.writeError(w, err, "Failed to open comments")
	}
}

// SetSearchQuery handles PUT /view/search
func (h *PostHandler) SetSearchQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.board.SetSearchQuery(req.Query)
	writeJSON(w, http.StatusOK, h.board.View())
}

// SetPage handles PUT /view/page
func (h *PostHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.board.SetPage(req.Page)
	writeJSON(w, http.StatusOK, h.board.View())
}

// SearchPosts handles GET /posts/search?q=<query>
func (h *PostHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		http.Error(w, "Full-text search is disabled", http.StatusNotImplemented)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Query parameter is required", http.StatusBadRequest)
		return
	}

	hits, err := h.search.SearchPosts(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to search posts", zap.String("query", query), zap.Error(err))
		http.Error(w, "Failed to search posts", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{
		Posts: hits,
		Total: len(hits),
	})
}

func (h *PostHandler) statusResponse() models.StatusResponse {
	state, err := h.board.Status()
	resp := models.StatusResponse{
		State: state.String(),
		Posts: len(h.board.Posts()),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Status handles GET /healthz
func (h *PostHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := h.statusResponse()
	status := http.StatusOK
	if resp.State != board.StateReady.String() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Retry handles POST /retry
func (h *PostHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Retry(r.Context()); err != nil {
		if errors.Is(err, board.ErrNotReady) || errors.Is(err, board.ErrAlreadyInitialized) {
			h.writeError(w, err, "Failed to retry")
			return
		}
		writeJSON(w, http.StatusBadGateway, h.statusResponse())
		return
	}
	writeJSON(w, http.StatusOK, h.statusResponse())
}
