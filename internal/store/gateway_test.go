package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nutriplan/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewGateway(db)
}

func samplePlan(summary string) planner.MealPlan {
	return planner.MealPlan{
		Meals: []planner.Meal{
			{MealType: "Breakfast", Name: "Oatmeal", Description: "Oats with almonds.", Calories: 350},
		},
		TotalCalories: 350,
		Summary:       summary,
	}
}

func TestCreateProfileIdempotent(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.CreateProfile(ctx, "user-1", "jane.doe@example.com"))

	profile, err := g.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "jane.doe", profile.DisplayName)
	assert.Equal(t, "jane.doe@example.com", profile.Email)

	// A repeat create must not clobber an edited profile.
	newName := "Jane"
	require.NoError(t, g.UpdateProfile(ctx, "user-1", ProfileUpdate{DisplayName: &newName}))
	require.NoError(t, g.CreateProfile(ctx, "user-1", "jane.doe@example.com"))

	profile, err = g.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.DisplayName)
}

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "jane", defaultDisplayName("jane@example.com"))
	assert.Equal(t, "User", defaultDisplayName("@example.com"))
	assert.Equal(t, "no-at-sign", defaultDisplayName("no-at-sign"))
}

func TestGetProfileMissing(t *testing.T) {
	g := newTestGateway(t)

	profile, err := g.GetProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestUpdateProfilePartial(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.CreateProfile(ctx, "user-1", "jane@example.com"))

	newName := "Jane D."
	require.NoError(t, g.UpdateProfile(ctx, "user-1", ProfileUpdate{DisplayName: &newName}))

	profile, err := g.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", profile.DisplayName)
	assert.Equal(t, "jane@example.com", profile.Email, "untouched field must survive")

	// Empty update is a no-op.
	require.NoError(t, g.UpdateProfile(ctx, "user-1", ProfileUpdate{}))
	profile, err = g.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", profile.DisplayName)
}

func TestSavePlanAssignsIdentityAndTimestamp(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	saved, err := g.SavePlan(ctx, "user-1", samplePlan("first"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	require.NotNil(t, saved.SavedAt)
	assert.WithinDuration(t, time.Now().UTC(), *saved.SavedAt, 5*time.Second)

	// Saving the same content twice appends; no dedup.
	again, err := g.SavePlan(ctx, "user-1", samplePlan("first"))
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, again.ID)

	plans, err := g.ListSavedPlans(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestListSavedPlansNewestFirst(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	for _, summary := range []string{"first", "second", "third"} {
		_, err := g.SavePlan(ctx, "user-1", samplePlan(summary))
		require.NoError(t, err)
	}

	plans, err := g.ListSavedPlans(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "third", plans[0].Summary)
	assert.Equal(t, "second", plans[1].Summary)
	assert.Equal(t, "first", plans[2].Summary)

	// Other users see nothing.
	other, err := g.ListSavedPlans(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSubscribeProfile(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	var got []*Profile
	release, err := g.SubscribeProfile(ctx, "user-1", func(p *Profile) {
		got = append(got, p)
	})
	require.NoError(t, err)

	// Immediate delivery of the current (absent) profile.
	require.Len(t, got, 1)
	assert.Nil(t, got[0])

	require.NoError(t, g.CreateProfile(ctx, "user-1", "jane@example.com"))
	require.Len(t, got, 2)
	require.NotNil(t, got[1])
	assert.Equal(t, "jane", got[1].DisplayName)

	release()
	newName := "Jane"
	require.NoError(t, g.UpdateProfile(ctx, "user-1", ProfileUpdate{DisplayName: &newName}))
	assert.Len(t, got, 2, "no delivery after release")
}

func TestSubscribeSavedPlans(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()

	_, err := g.SavePlan(ctx, "user-1", samplePlan("existing"))
	require.NoError(t, err)

	var snapshots [][]planner.MealPlan
	release, err := g.SubscribeSavedPlans(ctx, "user-1", func(plans []planner.MealPlan) {
		snapshots = append(snapshots, plans)
	})
	require.NoError(t, err)
	defer release()

	require.Len(t, snapshots, 1)
	require.Len(t, snapshots[0], 1)
	assert.Equal(t, "existing", snapshots[0][0].Summary)

	_, err = g.SavePlan(ctx, "user-1", samplePlan("new"))
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.Len(t, snapshots[1], 2)
	assert.Equal(t, "new", snapshots[1][0].Summary, "newest plan leads the list")

	// A different user's save must not reach this subscriber.
	_, err = g.SavePlan(ctx, "user-2", samplePlan("other"))
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
}
