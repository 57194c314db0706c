package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"nutriplan/internal/auth"
	"nutriplan/internal/metrics"
	"nutriplan/internal/planner"
	"nutriplan/internal/shared"
	"nutriplan/internal/store"

	"github.com/julienschmidt/httprouter"
)

const (
	planFailureMessage = "An error occurred while generating your plan. Please try again."
	planEmptyMessage   = "Sorry, I couldn't generate a meal plan. Please try again."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Warning: failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := s.identity.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		if auth.IsCredentialError(err) {
			writeError(w, http.StatusBadRequest, auth.UserMessage(err))
			return
		}
		log.Printf("Error: sign-up failed: %v", err)
		writeError(w, http.StatusInternalServerError, auth.UserMessage(err))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.gateway.CreateProfile(r.Context(), userID, email); err != nil {
		log.Printf("Error: failed to create profile for new user: %v", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	token, err := auth.SignToken(s.jwtSecret, userID, email)
	if err != nil {
		log.Printf("Error: failed to sign token: %v", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, Email: email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, err := s.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if auth.IsCredentialError(err) {
			writeError(w, http.StatusUnauthorized, auth.UserMessage(err))
			return
		}
		log.Printf("Error: sign-in failed: %v", err)
		writeError(w, http.StatusInternalServerError, auth.UserMessage(err))
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Accounts that predate the profile table get one on first login.
	if err := s.gateway.CreateProfile(r.Context(), userID, email); err != nil {
		log.Printf("Warning: failed to ensure profile on login: %v", err)
	}

	token, err := auth.SignToken(s.jwtSecret, userID, email)
	if err != nil {
		log.Printf("Error: failed to sign token: %v", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, Email: email})
}

type planResponse struct {
	Plan    *planner.MealPlan `json:"plan,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := userIDFrom(r.Context())

	var prefs planner.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.beginPlan(userID) {
		writeError(w, http.StatusConflict, "A plan is already being generated. Please wait for it to finish.")
		return
	}
	defer s.endPlan(userID)

	outcome, err := s.planner.Plan(r.Context(), prefs)
	s.recordMetas(outcome.Metas)

	if err != nil {
		if errors.Is(err, planner.ErrNoIngredients) {
			writeError(w, http.StatusBadRequest, "Please list the ingredients you have available.")
			return
		}
		if len(outcome.Metas) == 0 {
			// Failed before any upstream call: bad diet or goal label.
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error: plan generation failed for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, planFailureMessage)
		return
	}

	if outcome.Rejected {
		writeError(w, http.StatusUnprocessableEntity, outcome.Reason)
		return
	}

	if outcome.Plan == nil {
		writeJSON(w, http.StatusOK, planResponse{Message: planEmptyMessage})
		return
	}

	writeJSON(w, http.StatusOK, planResponse{Plan: outcome.Plan})
}

// recordMetas persists token usage for every upstream call that was made.
// Metric failures are logged, never surfaced to the user.
func (s *Server) recordMetas(metas []shared.AgentMeta) {
	if s.metricsStore == nil {
		return
	}
	for _, meta := range metas {
		if err := s.metricsStore.RecordMeta(meta); err != nil {
			log.Printf("Warning: failed to record execution metric: %v", err)
		}
	}
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := userIDFrom(r.Context())

	var plan planner.MealPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := s.gateway.SavePlan(r.Context(), userID, plan)
	if err != nil {
		log.Printf("Error: failed to save plan for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save meal plan")
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := userIDFrom(r.Context())

	plans, err := s.gateway.ListSavedPlans(r.Context(), userID)
	if err != nil {
		log.Printf("Error: failed to list plans for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load saved plans")
		return
	}

	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := userIDFrom(r.Context())

	profile, err := s.gateway.GetProfile(r.Context(), userID)
	if err != nil {
		log.Printf("Error: failed to get profile for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := userIDFrom(r.Context())

	var updates store.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.gateway.UpdateProfile(r.Context(), userID, updates); err != nil {
		log.Printf("Error: failed to update profile for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	profile, err := s.gateway.GetProfile(r.Context(), userID)
	if err != nil {
		log.Printf("Error: failed to reload profile for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

type importRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleImportIngredients(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "A url is required")
		return
	}

	ingredients, err := s.clipper.ImportIngredients(r.Context(), req.URL)
	if err != nil {
		log.Printf("Error: ingredient import failed for %s: %v", req.URL, err)
		writeError(w, http.StatusBadGateway, "Could not extract ingredients from that page.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ingredients": ingredients})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	health := metrics.GetSysHealth(s.dataPath)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"goroutines": health.Goroutines,
		"allocMB":    health.AllocMB,
		"dataSize":   health.DataDiskSize,
	})
}
