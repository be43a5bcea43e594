package gormstorage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/earthview/globe/internal/database"
	"github.com/earthview/globe/internal/model"
	"github.com/earthview/globe/internal/storage"
	"github.com/earthview/globe/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T, flush time.Duration) *Backend {
	t.Helper()
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db, FlushInterval: flush})
	require.NoError(t, b.Init())
	t.Cleanup(func() {
		_ = b.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return b
}

func TestInit_RequiresDB(t *testing.T) {
	b := New(Dependencies{})
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestSaveAndGetViewpoint(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	ctx := context.Background()

	v := core.Viewpoint{
		Name:       "paris",
		Descriptor: "x1y2z3def0-zoom45",
		Camera:     core.CameraState{Position: core.Vec3{X: 1, Y: 2, Z: 3}, FovDeg: 45},
	}
	require.NoError(t, b.SaveViewpoint(ctx, &v))
	assert.NotZero(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := b.GetViewpoint(ctx, "paris")
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, v.Camera, got.Camera)
	assert.Equal(t, "x1y2z3def0-zoom45", got.Descriptor)
}

func TestSaveViewpoint_ReplacesByName(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	ctx := context.Background()

	first := core.Viewpoint{Name: "home", Descriptor: "x0y0z4def0-zoom45"}
	require.NoError(t, b.SaveViewpoint(ctx, &first))
	second := core.Viewpoint{Name: "home", Descriptor: "x0y0z9def0-zoom45"}
	require.NoError(t, b.SaveViewpoint(ctx, &second))

	assert.Equal(t, first.ID, second.ID)

	list, err := b.ListViewpoints(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "x0y0z9def0-zoom45", list[0].Descriptor)
}

func TestGetViewpoint_NotFound(t *testing.T) {
	b := newTestBackend(t, time.Hour)

	_, err := b.GetViewpoint(context.Background(), "nowhere")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListViewpoints_Ordered(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, b.SaveViewpoint(ctx, &core.Viewpoint{Name: name, Descriptor: "x0y0z4def0-zoom45"}))
	}
	list, err := b.ListViewpoints(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestRecordLocation_QueuesUntilFlush(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, b.RecordLocation(ctx, core.LocationRecord{
		SessionID: "1",
		Time:      time.Now().UTC(),
		Location:  core.Location{Lat: 10, Lon: 20, Source: core.SourceIP},
	}))
	require.NoError(t, b.RecordLocation(ctx, core.LocationRecord{SessionID: "2", Location: core.Unresolved}))
	assert.Equal(t, 2, b.Pending())

	var count int64
	require.NoError(t, b.DB().Model(&model.LocationLookup{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, b.Flush())
	assert.Equal(t, 0, b.Pending())

	lookups, err := b.Lookups(ctx, 10)
	require.NoError(t, err)
	require.Len(t, lookups, 2)
	assert.Equal(t, core.SourceUnresolved, lookups[0].Location.Source)
	assert.Equal(t, core.SourceIP, lookups[1].Location.Source)
	assert.Equal(t, 20.0, lookups[1].Location.Lon)
}

func TestWriteLoop_FlushesPeriodically(t *testing.T) {
	b := newTestBackend(t, 10*time.Millisecond)

	require.NoError(t, b.RecordLocation(context.Background(), core.LocationRecord{SessionID: "1", Location: core.Unresolved}))

	require.Eventually(t, func() bool {
		var count int64
		return b.DB().Model(&model.LocationLookup{}).Count(&count).Error == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClose_FlushesQueue(t *testing.T) {
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "close.db"))
	require.NoError(t, err)
	b := New(Dependencies{DB: db, FlushInterval: time.Hour})
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordLocation(context.Background(), core.LocationRecord{SessionID: "1", Location: core.Unresolved}))
	require.NoError(t, b.Close())

	var count int64
	require.NoError(t, db.Model(&model.LocationLookup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFlush_RequeuesOnFailure(t *testing.T) {
	b := newTestBackend(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, b.DB().Migrator().DropTable(&model.LocationLookup{}))

	require.NoError(t, b.RecordLocation(ctx, core.LocationRecord{SessionID: "1", Location: core.Unresolved}))
	assert.Error(t, b.Flush())
	assert.Equal(t, 1, b.Pending())
	assert.Zero(t, b.Dropped())

	require.NoError(t, database.Migrate(b.DB()))
	require.NoError(t, b.Flush())
	assert.Equal(t, 0, b.Pending())
}
