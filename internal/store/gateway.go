package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"nutriplan/internal/planner"

	"github.com/google/uuid"
)

// Profile is a user's editable account record.
type Profile struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// ProfileUpdate carries a partial profile change; nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName"`
	Email       *string `json:"email"`
}

// Gateway is the persistence layer for profiles and saved meal plans. Every
// operation takes an explicit user identifier; the gateway holds no notion of
// a current user. Writes notify live subscribers after they commit.
type Gateway struct {
	db  *sql.DB
	hub *hub
}

// NewGateway creates a Gateway over an initialized database.
func NewGateway(db *DB) *Gateway {
	return &Gateway{db: db.SQL, hub: newHub()}
}

// defaultDisplayName derives the initial display name from the email local
// part, falling back to "User".
func defaultDisplayName(email string) string {
	name := email
	if at := strings.Index(email, "@"); at >= 0 {
		name = email[:at]
	}
	if name == "" {
		name = "User"
	}
	return name
}

// CreateProfile creates the profile record for a new account. It is
// idempotent: if a profile already exists for userID, no write occurs.
func (g *Gateway) CreateProfile(ctx context.Context, userID, email string) error {
	res, err := g.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, email, display_name) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, email, defaultDisplayName(email),
	)
	if err != nil {
		return fmt.Errorf("failed to create profile for user %s: %w", userID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		g.notifyProfile(ctx, userID)
	}
	return nil
}

// GetProfile returns the profile for userID, or nil if none exists yet.
func (g *Gateway) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := g.db.QueryRowContext(ctx,
		`SELECT display_name, email FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.DisplayName, &p.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}
	return &p, nil
}

// UpdateProfile merges the provided fields into the existing profile. Fields
// left nil are not touched; the record is never replaced wholesale.
func (g *Gateway) UpdateProfile(ctx context.Context, userID string, updates ProfileUpdate) error {
	var sets []string
	var args []any
	if updates.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *updates.DisplayName)
	}
	if updates.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *updates.Email)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	_, err := g.db.ExecContext(ctx,
		"UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE user_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %s: %w", userID, err)
	}

	g.notifyProfile(ctx, userID)
	return nil
}

// SavePlan assigns a new identifier and a server-side save timestamp, then
// appends the plan to the user's collection. Plans are never overwritten or
// deduplicated; from this point the record is immutable history.
func (g *Gateway) SavePlan(ctx context.Context, userID string, plan planner.MealPlan) (planner.MealPlan, error) {
	plan.ID = uuid.NewString()
	savedAt := time.Now().UTC()
	plan.SavedAt = &savedAt

	// id and savedAt live in their own columns; the JSON payload carries only
	// the plan content.
	stored := plan
	stored.ID = ""
	stored.SavedAt = nil
	data, err := json.Marshal(stored)
	if err != nil {
		return planner.MealPlan{}, fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	_, err = g.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, user_id, plan_data, saved_at) VALUES (?, ?, ?, ?)`,
		plan.ID, userID, string(data), savedAt,
	)
	if err != nil {
		return planner.MealPlan{}, fmt.Errorf("failed to save meal plan for user %s: %w", userID, err)
	}

	g.notifyPlans(ctx, userID)
	return plan, nil
}

// ListSavedPlans returns the user's saved plans, newest first. Ties on save
// time fall back to insertion order so re-reads yield a stable order.
func (g *Gateway) ListSavedPlans(ctx context.Context, userID string) ([]planner.MealPlan, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, plan_data, saved_at FROM meal_plans
		 WHERE user_id = ?
		 ORDER BY saved_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	plans := []planner.MealPlan{}
	for rows.Next() {
		var id, data string
		var savedAt time.Time
		if err := rows.Scan(&id, &data, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan row: %w", err)
		}

		var plan planner.MealPlan
		if err := json.Unmarshal([]byte(data), &plan); err != nil {
			log.Printf("Warning: failed to unmarshal meal plan %s: %v", id, err)
			continue
		}
		plan.ID = id
		plan.SavedAt = &savedAt
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal plan rows: %w", err)
	}
	return plans, nil
}

// SubscribeProfile delivers the current profile immediately (nil when none
// exists yet) and again on every subsequent change, until the returned
// release func is called. Release it exactly once.
func (g *Gateway) SubscribeProfile(ctx context.Context, userID string, fn func(*Profile)) (func(), error) {
	profile, err := g.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	release := g.hub.addProfileListener(userID, fn)
	fn(profile)
	return release, nil
}

// SubscribeSavedPlans delivers the full newest-first plan list immediately
// and again on every change, until the returned release func is called.
func (g *Gateway) SubscribeSavedPlans(ctx context.Context, userID string, fn func([]planner.MealPlan)) (func(), error) {
	plans, err := g.ListSavedPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	release := g.hub.addPlansListener(userID, fn)
	fn(plans)
	return release, nil
}

func (g *Gateway) notifyProfile(ctx context.Context, userID string) {
	listeners := g.hub.profileListeners(userID)
	if len(listeners) == 0 {
		return
	}

	profile, err := g.GetProfile(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to read profile for notification: %v", err)
		return
	}
	for _, fn := range listeners {
		fn(profile)
	}
}

func (g *Gateway) notifyPlans(ctx context.Context, userID string) {
	listeners := g.hub.plansListeners(userID)
	if len(listeners) == 0 {
		return
	}

	plans, err := g.ListSavedPlans(ctx, userID)
	if err != nil {
		log.Printf("Warning: failed to read meal plans for notification: %v", err)
		return
	}
	for _, fn := range listeners {
		fn(plans)
	}
}
