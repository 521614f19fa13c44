package store

import (
	"context"
	"testing"
	"time"

	"ascend/physique-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *MemoryKeyValue) {
	t.Helper()
	kv := NewMemoryKeyValue()
	return NewStore(kv, nil), kv
}

func TestLoadAbsentReturnsNilNil(t *testing.T) {
	st, _ := newTestStore(t)
	data, err := st.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLoadCorruptRecordDegradesToAbsent(t *testing.T) {
	st, kv := newTestStore(t)
	require.NoError(t, kv.Set(context.Background(), StorageKey("u1"), "{not json"))

	data, err := st.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCommitCreatesFreshRecord(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	data, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, domain.ProfileUpdatePayload{},
		func(d *domain.UserData) {
			d.Profile.Name = "Alex"
		})
	require.NoError(t, err)

	assert.Equal(t, "u1", data.ID)
	assert.Equal(t, "Alex", data.Profile.Name)
	assert.Equal(t, domain.InitialCredits, data.Profile.Credits)
	assert.Equal(t, 1, data.Progress.CurrentWeek)
	require.Len(t, data.History, 1)
	assert.Equal(t, domain.ActionUpdateProfile, data.History[0].Type)
	assert.NotEmpty(t, data.History[0].ID)
	assert.NotEmpty(t, data.LastSynced)
}

func TestCommitBumpsVersionAndAppendsHistory(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	first, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		prev, err := st.Load(ctx, "u1")
		require.NoError(t, err)

		next, err := st.Commit(ctx, "u1", domain.ActionUpdateBody,
			domain.BodyUpdatePayload{Target: true}, nil)
		require.NoError(t, err)

		assert.Equal(t, prev.Version+1, next.Version)
		assert.Len(t, next.History, len(prev.History)+1)
	}

	final, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.Version+5, final.Version)
}

func TestCommitRoundTripsWholeRecord(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	plan := &domain.GeneratedPlan{TimelineWeeks: 12}
	_, err := st.Commit(ctx, "u1", domain.ActionGeneratePlan,
		domain.PlanGeneratedPayload{TimelineWeeks: 12},
		func(d *domain.UserData) {
			d.Plan = plan
			d.Profile.Credits = 42
			d.CurrentBody.Regions["chest"] = 1.3
			d.Progress.CompletedExercises["w1-d1-e0"] = true
		})
	require.NoError(t, err)

	loaded, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.Plan)
	assert.Equal(t, 12, loaded.Plan.TimelineWeeks)
	assert.Equal(t, 42, loaded.Profile.Credits)
	assert.Equal(t, 1.3, loaded.CurrentBody.Regions["chest"])
	assert.True(t, loaded.Progress.CompletedExercises["w1-d1-e0"])
}

func TestCommitTimestampsAreUnixMillis(t *testing.T) {
	st, _ := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	st.now = func() time.Time { return fixed }

	data, err := st.Commit(context.Background(), "u1", domain.ActionUpdateProfile, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), data.History[0].Timestamp)
	assert.Equal(t, fixed.Format(time.RFC3339), data.LastSynced)
}

func TestClearIsIrreversible(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	_, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, nil)
	require.NoError(t, err)

	require.NoError(t, st.Clear(ctx, "u1"))

	data, err := st.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestUserIDsExcludesPromoCatalog(t *testing.T) {
	st, kv := newTestStore(t)
	ctx := context.Background()

	_, err := st.Commit(ctx, "u1", domain.ActionUpdateProfile, nil, nil)
	require.NoError(t, err)
	_, err = st.Commit(ctx, "u2", domain.ActionUpdateProfile, nil, nil)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, globalPromoKey, "[]"))

	ids, err := st.UserIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)
}
