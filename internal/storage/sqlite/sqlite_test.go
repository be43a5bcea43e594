package sqlitestorage

import (
	"context"
	"os"
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

var _ storage.Backend = (*Backend)(nil)

func TestBackend_FileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "globe.db")

	b, err := New(Config{Path: path, FlushInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	ctx := context.Background()
	require.NoError(t, b.SaveViewpoint(ctx, &core.Viewpoint{Name: "home", Descriptor: "x0y0z4def0-zoom45"}))
	require.NoError(t, b.Close())

	reopened, err := New(Config{Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, reopened.Init())
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetViewpoint(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "x0y0z4def0-zoom45", got.Descriptor)
}

func TestBackend_DumpOnClose(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.db")

	b, err := New(Config{Path: filepath.Join(dir, "live.db"), DumpPath: dump, DumpInterval: time.Hour}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordLocation(context.Background(), core.LocationRecord{SessionID: "1", Location: core.Unresolved}))
	require.NoError(t, b.Close())

	_, err = os.Stat(dump)
	require.NoError(t, err)

	db, err := database.OpenSqlite(dump)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&model.LocationLookup{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBackend_PeriodicDump(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "periodic.db")

	b, err := New(Config{Path: filepath.Join(dir, "live.db"), DumpPath: dump, DumpInterval: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	require.Eventually(t, func() bool {
		_, err := os.Stat(dump)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}
