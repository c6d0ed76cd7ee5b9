package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info := userInfoFromContext(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"login":        info.Login,
		"display_name": info.DisplayName,
		"is_admin":     s.isAdmin != nil && s.isAdmin(info.Login),
	})
}

// startSessionRequest is the body for POST /sessions: the chosen workout
// plus its exercise definitions (name snapshots and planned sets).
type startSessionRequest struct {
	WorkoutID uuid.UUID              `json:"workoutId"`
	Exercises []models.ExerciseEntry `json:"exercises"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.WorkoutID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workoutId is required"})
		return
	}

	sess, err := s.engine.Start(r.Context(), userIDFromContext(r), req.WorkoutID, req.Exercises)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Active(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// completeSetRequest addresses one set of the active session. Actuals are
// optional; targets apply when omitted.
type completeSetRequest struct {
	ExerciseIndex int      `json:"exerciseIndex"`
	SetIndex      int      `json:"setIndex"`
	ActualWeight  *float64 `json:"actualWeight,omitempty"`
	ActualReps    *int     `json:"actualReps,omitempty"`
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	var req completeSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	uid := userIDFromContext(r)
	sess, err := s.engine.Active(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}

	sess, err = s.engine.CompleteSet(r.Context(), sess, req.ExerciseIndex, req.SetIndex, req.ActualWeight, req.ActualReps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// saveSessionRequest is the autosave body: the full exercise state to upsert
// onto the active session.
type saveSessionRequest struct {
	WorkoutID uuid.UUID              `json:"workoutId"`
	Exercises []models.ExerciseEntry `json:"exercises"`
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess := &models.Session{
		UserID:    userIDFromContext(r),
		WorkoutID: req.WorkoutID,
		IsActive:  true,
		Exercises: req.Exercises,
	}
	if err := s.engine.Save(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	sess, err := s.engine.Active(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}

	log, err := s.engine.End(r.Context(), sess, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Abandon(r.Context(), userIDFromContext(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.Log{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid log ID"})
		return
	}
	log, err := s.db.GetLog(r.Context(), id, userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid log ID"})
		return
	}
	if err := s.db.DeleteLog(r.Context(), id, userIDFromContext(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError translates a core error kind to a transport status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
