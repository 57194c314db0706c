package httpapi

import (
	"log"
	"net/http"
	"sync"

	"nutriplan/internal/planner"
	"nutriplan/internal/store"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer for the REST routes; the websocket
	// carries its own token check via the authenticate middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveEvent is one push on the live feed. Profile events carry the current
// profile (null when none exists yet); plans events carry the full
// newest-first list.
type liveEvent struct {
	Type    string             `json:"type"`
	Profile *store.Profile     `json:"profile,omitempty"`
	Plans   []planner.MealPlan `json:"plans,omitempty"`
}

// handleLive upgrades the connection and streams profile and saved-plan
// changes until the client disconnects. Each subscription delivers its
// current value immediately on connect.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := userIDFrom(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscriptions fire from writer goroutines; a single mutex serializes
	// writes to the connection.
	var writeMu sync.Mutex
	send := func(event liveEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Warning: websocket write failed: %v", err)
		}
	}

	releaseProfile, err := s.gateway.SubscribeProfile(r.Context(), userID, func(p *store.Profile) {
		send(liveEvent{Type: "profile", Profile: p})
	})
	if err != nil {
		log.Printf("Error: profile subscription failed for user %s: %v", userID, err)
		return
	}
	defer releaseProfile()

	releasePlans, err := s.gateway.SubscribeSavedPlans(r.Context(), userID, func(plans []planner.MealPlan) {
		send(liveEvent{Type: "plans", Plans: plans})
	})
	if err != nil {
		log.Printf("Error: plans subscription failed for user %s: %v", userID, err)
		return
	}
	defer releasePlans()

	// Block until the client goes away; reads are only used to detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
