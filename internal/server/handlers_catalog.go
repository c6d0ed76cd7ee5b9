package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/ironlog/internal/apperr"
	"github.com/claude/ironlog/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.db.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

type exerciseRequest struct {
	Name        string `json:"name"`
	MuscleGroup string `json:"muscleGroup"`
	IsSystem    bool   `json:"isSystem"`
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("exercise name is required"))
		return
	}

	uid := userIDFromContext(r)
	ex := &models.Exercise{
		ID:          uuid.New(),
		Name:        req.Name,
		MuscleGroup: req.MuscleGroup,
		IsSystem:    req.IsSystem,
	}
	if req.IsSystem {
		if !s.callerIsAdmin(r) {
			s.writeError(w, apperr.Forbidden("only admins may create system exercises"))
			return
		}
	} else {
		ex.OwnerID = &uid
	}

	if err := s.db.CreateExercise(r.Context(), ex); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}
	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		s.writeError(w, apperr.Validation("exercise name is required"))
		return
	}

	uid := userIDFromContext(r)
	existing, err := s.db.GetExercise(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	admin := s.callerIsAdmin(r)
	if existing.IsSystem && !admin {
		s.writeError(w, apperr.Forbidden("only admins may modify system exercises"))
		return
	}

	existing.Name = req.Name
	existing.MuscleGroup = req.MuscleGroup
	if err := s.db.UpdateExercise(r.Context(), existing, uid, admin); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid exercise ID"})
		return
	}

	uid := userIDFromContext(r)
	existing, err := s.db.GetExercise(r.Context(), id, uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	admin := s.callerIsAdmin(r)
	if existing.IsSystem && !admin {
		s.writeError(w, apperr.Forbidden("only admins may delete system exercises"))
		return
	}

	if err := s.db.DeleteExercise(r.Context(), id, uid, admin); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type workoutRequest struct {
	Name      string                    `json:"name"`
	Exercises []models.TemplateExercise `json:"exercises"`
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.db.ListWorkouts(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if workouts == nil {
		workouts = []models.WorkoutTemplate{}
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := validateWorkoutRequest(&req); err != nil {
		s.writeError(w, err)
		return
	}

	wt := &models.WorkoutTemplate{
		ID:        uuid.New(),
		UserID:    userIDFromContext(r),
		Name:      req.Name,
		Exercises: req.Exercises,
	}
	if err := s.db.CreateWorkout(r.Context(), wt); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wt)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}
	wt, err := s.db.GetWorkout(r.Context(), id, userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wt)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}
	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := validateWorkoutRequest(&req); err != nil {
		s.writeError(w, err)
		return
	}

	wt := &models.WorkoutTemplate{
		ID:        id,
		UserID:    userIDFromContext(r),
		Name:      req.Name,
		Exercises: req.Exercises,
	}
	if err := s.db.UpdateWorkout(r.Context(), wt); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wt)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}
	if err := s.db.DeleteWorkout(r.Context(), id, userIDFromContext(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.GetWeekPlan(r.Context(), userIDFromContext(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleSetPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days map[int]uuid.UUID `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	plan := &models.WeekPlan{UserID: userIDFromContext(r), Days: req.Days}
	if err := s.db.SetWeekPlan(r.Context(), plan); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) callerIsAdmin(r *http.Request) bool {
	return s.isAdmin != nil && s.isAdmin(userInfoFromContext(r).Login)
}

func validateWorkoutRequest(req *workoutRequest) error {
	if req.Name == "" {
		return apperr.Validation("workout name is required")
	}
	for i := range req.Exercises {
		if req.Exercises[i].ExerciseID == uuid.Nil {
			return apperr.Validation("exercise %d is missing exerciseId", i)
		}
		for j := range req.Exercises[i].Sets {
			if err := req.Exercises[i].Sets[j].Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
