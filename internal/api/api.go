// Package api implements the tracker server's REST surface. Failures
// are reported through an "error" field in the JSON body in addition to
// the HTTP status, which is the contract the client checks.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joescharf/bugfix/internal/models"
	"github.com/joescharf/bugfix/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store store.Store
}

// NewServer creates a new API server over the given store.
func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/bugs", s.listBugs)
	mux.HandleFunc("POST /api/v1/bugs", s.createBug)
	mux.HandleFunc("PUT /api/v1/bugs/{id}", s.updateBug)
	mux.HandleFunc("DELETE /api/v1/bugs/{id}", s.removeBug)
	mux.HandleFunc("POST /api/v1/bugs/{id}/assign", s.assignBug)
	mux.HandleFunc("POST /api/v1/bugs/search", s.searchBugs)

	mux.HandleFunc("GET /api/v1/coders", s.listCoders)
	mux.HandleFunc("POST /api/v1/coders", s.createCoder)

	mux.HandleFunc("POST /api/v1/notifications/user", s.notifyUser)
	mux.HandleFunc("POST /api/v1/notifications/broadcast", s.notifyAll)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// bugPayload is the wire shape for create and update requests. Dates
// decode from either ISO or DD/MM/YYYY; storage normalizes to ISO.
type bugPayload struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Status             models.Status   `json:"status"`
	Category           models.Category `json:"category"`
	AssignedID         *int64          `json:"assignedId"`
	AssignedName       string          `json:"assignedUsername"`
	Priority           int             `json:"priority"`
	Importance         int             `json:"importance"`
	CreationDate       models.Date     `json:"creationDate"`
	OpenDate           models.Date     `json:"openDate"`
	DescriptionChanged bool            `json:"isDescriptionChanged"`
}

func (p *bugPayload) assignedID() int64 {
	if p.AssignedID == nil {
		return 0
	}
	return *p.AssignedID
}

// --- Bugs ---

func (s *Server) listBugs(w http.ResponseWriter, r *http.Request) {
	bugs, err := s.store.ListBugs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bugs == nil {
		bugs = []*models.Bug{}
	}
	writeJSON(w, http.StatusOK, bugs)
}

func (s *Server) createBug(w http.ResponseWriter, r *http.Request) {
	var payload bugPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if payload.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if payload.Status == "" {
		payload.Status = models.StatusNew
	}
	if payload.Category == "" {
		payload.Category = models.CategoryFunctionality
	}
	if !payload.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status: "+string(payload.Status))
		return
	}
	if !payload.Category.Valid() {
		writeError(w, http.StatusBadRequest, "unknown category: "+string(payload.Category))
		return
	}
	if !payload.OpenDate.IsZero() && payload.OpenDate.Before(payload.CreationDate) {
		writeError(w, http.StatusBadRequest, "open date precedes creation date")
		return
	}

	bug := &models.Bug{
		Title:        payload.Title,
		Description:  payload.Description,
		Status:       payload.Status,
		Category:     payload.Category,
		Priority:     payload.Priority,
		Importance:   payload.Importance,
		CreationDate: payload.CreationDate,
		OpenDate:     payload.OpenDate,
	}

	// Resolve the assignee's display name from the roster so the
	// denormalized column starts out consistent.
	if id := payload.assignedID(); id != 0 {
		coder, err := s.store.GetCoder(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		bug.SetAssignee(coder.ID, coder.Name)
	}

	if err := s.store.CreateBug(r.Context(), bug); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, bug)
}

func (s *Server) updateBug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bug id")
		return
	}

	existing, err := s.store.GetBug(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var payload bugPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if !payload.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status: "+string(payload.Status))
		return
	}
	if !payload.Category.Valid() {
		writeError(w, http.StatusBadRequest, "unknown category: "+string(payload.Category))
		return
	}

	existing.Title = payload.Title
	existing.Description = payload.Description
	existing.Status = payload.Status
	existing.Category = payload.Category
	existing.Priority = payload.Priority
	existing.Importance = payload.Importance
	if !payload.CreationDate.IsZero() {
		existing.CreationDate = payload.CreationDate
	}
	if !payload.OpenDate.IsZero() {
		existing.OpenDate = payload.OpenDate
	}
	existing.SetAssignee(payload.assignedID(), payload.AssignedName)

	if payload.DescriptionChanged {
		slog.Debug("bug description changed", "bugId", id)
	}

	if err := s.store.UpdateBug(r.Context(), existing); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) removeBug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bug id")
		return
	}

	existing, err := s.store.GetBug(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Callers confirm Done status before calling; the server enforces
	// it as well so a stale client cannot delete open work.
	if existing.Status != models.StatusDone {
		writeError(w, http.StatusConflict, "only Done bugs can be removed")
		return
	}

	if err := s.store.DeleteBug(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "bug removed"})
}

func (s *Server) assignBug(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bug id")
		return
	}

	var req struct {
		SelectedUserID *int64 `json:"selectedUserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var userID int64
	if req.SelectedUserID != nil {
		userID = *req.SelectedUserID
	}

	if err := s.store.AssignBug(r.Context(), id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "assignment updated"})
}

func (s *Server) searchBugs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchResult string `json:"searchResult"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	bugs, err := s.store.SearchBugs(r.Context(), req.SearchResult)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if bugs == nil {
		bugs = []*models.Bug{}
	}
	writeJSON(w, http.StatusOK, bugs)
}

// --- Coders ---

func (s *Server) listCoders(w http.ResponseWriter, r *http.Request) {
	coders, err := s.store.ListCoders(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "failed to list coders",
			"message": err.Error(),
		})
		return
	}
	if coders == nil {
		coders = []*models.Coder{}
	}
	writeJSON(w, http.StatusOK, coders)
}

func (s *Server) createCoder(w http.ResponseWriter, r *http.Request) {
	var coder models.Coder
	if err := json.NewDecoder(r.Body).Decode(&coder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if coder.Name == "" {
		writeError(w, http.StatusBadRequest, "userName is required")
		return
	}

	if err := s.store.CreateCoder(r.Context(), &coder); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, coder)
}

// --- Notifications ---

func (s *Server) notifyUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  int64  `json:"userId"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	n := &models.Notification{UserID: req.UserID, Message: req.Message}
	if err := s.store.CreateNotification(r.Context(), n); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification stored"})
}

func (s *Server) notifyAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	n := &models.Notification{Message: req.Message}
	if err := s.store.CreateNotification(r.Context(), n); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification broadcast stored"})
}
