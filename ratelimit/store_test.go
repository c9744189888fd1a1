package ratelimit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidanceapp/incident-report/database"
	"github.com/guidanceapp/incident-report/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "state.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestStoreLoadMissing(t *testing.T) {
	store := testStore(t)

	state := store.Load(context.Background(), "device-1")
	assert.Equal(t, model.SubmissionState{}, state)
}

func TestStoreSaveLoad(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	saved := model.SubmissionState{Date: DayKey(noon), Count: 2, LastSubmit: noon.UnixMilli()}
	require.NoError(t, store.Save(ctx, "device-1", saved))

	assert.Equal(t, saved, store.Load(ctx, "device-1"))

	// repeated loads do not change the stored state
	assert.Equal(t, saved, store.Load(ctx, "device-1"))

	// other devices are unaffected
	assert.Equal(t, model.SubmissionState{}, store.Load(ctx, "device-2"))
}

func TestStoreSaveReplacesWholeBlob(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "device-1", model.SubmissionState{Date: DayKey(noon), Count: 1}))
	next := model.SubmissionState{Date: DayKey(noon.Add(24 * time.Hour)), Count: 1, LastSubmit: noon.UnixMilli()}
	require.NoError(t, store.Save(ctx, "device-1", next))

	assert.Equal(t, next, store.Load(ctx, "device-1"))
}

func TestStoreLoadCorruptBlob(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx,
		"INSERT INTO submission_state (device_id, data) VALUES (?, ?)",
		"device-1", "{not json")
	require.NoError(t, err)

	assert.Equal(t, model.SubmissionState{}, store.Load(ctx, "device-1"))
}

func TestRecordSuccess(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.RecordSuccess(ctx, "device-1", store.Load(ctx, "device-1"), noon)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, noon.UnixMilli(), first.LastSubmit)

	later := noon.Add(2 * time.Minute)
	second, err := store.RecordSuccess(ctx, "device-1", store.Load(ctx, "device-1"), later)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Count)

	// persisted, not just returned
	assert.Equal(t, second, store.Load(ctx, "device-1"))
}
