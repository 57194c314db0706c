package httpapi

import (
	"net/http"
	"sync"

	"nutriplan/internal/auth"
	"nutriplan/internal/clipper"
	"nutriplan/internal/metrics"
	"nutriplan/internal/planner"
	"nutriplan/internal/store"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Server is the HTTP application shell: it collects preferences, drives the
// plan flow, and exposes profile and saved-plan access for the web client.
type Server struct {
	planner      *planner.Planner
	gateway      *store.Gateway
	identity     *auth.Provider
	clipper      *clipper.Clipper
	metricsStore *metrics.Store
	jwtSecret    []byte
	dataPath     string

	// One in-flight plan generation per user; overlapping submissions are
	// refused rather than queued.
	mu       sync.Mutex
	inFlight map[string]bool
}

// NewServer wires the application shell.
func NewServer(
	mealPlanner *planner.Planner,
	gateway *store.Gateway,
	identity *auth.Provider,
	ingredientClipper *clipper.Clipper,
	metricsStore *metrics.Store,
	jwtSecret []byte,
	dataPath string,
) *Server {
	return &Server{
		planner:      mealPlanner,
		gateway:      gateway,
		identity:     identity,
		clipper:      ingredientClipper,
		metricsStore: metricsStore,
		jwtSecret:    jwtSecret,
		dataPath:     dataPath,
		inFlight:     make(map[string]bool),
	}
}

// Handler builds the routed handler with CORS applied.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	router := httprouter.New()

	router.POST("/api/auth/signup", s.handleSignUp)
	router.POST("/api/auth/login", s.handleLogin)

	router.POST("/api/plan", s.authenticate(s.handleGeneratePlan))
	router.POST("/api/plans", s.authenticate(s.handleSavePlan))
	router.GET("/api/plans", s.authenticate(s.handleListPlans))
	router.GET("/api/profile", s.authenticate(s.handleGetProfile))
	router.PATCH("/api/profile", s.authenticate(s.handleUpdateProfile))
	router.POST("/api/ingredients/import", s.authenticate(s.handleImportIngredients))
	router.GET("/api/ws", s.authenticate(s.handleLive))

	router.GET("/health", s.handleHealth)

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)
}

// beginPlan marks a plan generation as in flight for the user. It reports
// false when one is already running.
func (s *Server) beginPlan(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return false
	}
	s.inFlight[userID] = true
	return true
}

func (s *Server) endPlan(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}
