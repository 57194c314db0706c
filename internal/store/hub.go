package store

import (
	"sync"

	"nutriplan/internal/planner"
)

// hub keeps the live subscription registry for the gateway. Listeners are
// registered per user and invoked synchronously after a write commits; the
// release func returned on registration removes the listener and is safe to
// call once.
type hub struct {
	mu     sync.Mutex
	nextID int

	profiles map[string]map[int]func(*Profile)
	plans    map[string]map[int]func([]planner.MealPlan)
}

func newHub() *hub {
	return &hub{
		profiles: make(map[string]map[int]func(*Profile)),
		plans:    make(map[string]map[int]func([]planner.MealPlan)),
	}
}

func (h *hub) addProfileListener(userID string, fn func(*Profile)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.profiles[userID] == nil {
		h.profiles[userID] = make(map[int]func(*Profile))
	}
	h.profiles[userID][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.profiles[userID], id)
	}
}

func (h *hub) addPlansListener(userID string, fn func([]planner.MealPlan)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.plans[userID] == nil {
		h.plans[userID] = make(map[int]func([]planner.MealPlan))
	}
	h.plans[userID][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.plans[userID], id)
	}
}

// profileListeners snapshots the registered callbacks so they can be invoked
// without holding the lock.
func (h *hub) profileListeners(userID string) []func(*Profile) {
	h.mu.Lock()
	defer h.mu.Unlock()

	listeners := make([]func(*Profile), 0, len(h.profiles[userID]))
	for _, fn := range h.profiles[userID] {
		listeners = append(listeners, fn)
	}
	return listeners
}

func (h *hub) plansListeners(userID string) []func([]planner.MealPlan) {
	h.mu.Lock()
	defer h.mu.Unlock()

	listeners := make([]func([]planner.MealPlan), 0, len(h.plans[userID]))
	for _, fn := range h.plans[userID] {
		listeners = append(listeners, fn)
	}
	return listeners
}
