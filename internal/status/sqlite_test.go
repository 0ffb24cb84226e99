package status

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteTracker_BeginComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.db")
	tracker, err := NewSQLiteTracker(path)
	require.NoError(t, err)
	defer tracker.Close()

	id := tracker.Begin("historical-download")
	require.NotEmpty(t, id)
	tracker.Complete(id)

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	var task string
	var finished sql.NullTime
	err = db.QueryRow("SELECT task, finished_at FROM task_events WHERE id = ?", id).Scan(&task, &finished)
	require.NoError(t, err)
	assert.Equal(t, "historical-download", task)
	assert.True(t, finished.Valid, "Complete 应当补上结束时间")
}

func TestSQLiteTracker_CompleteWithEmptyID(t *testing.T) {
	tracker, err := NewSQLiteTracker(filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	defer tracker.Close()

	assert.NotPanics(t, func() { tracker.Complete("") })
}

func TestNewSQLiteTracker_RequiresPath(t *testing.T) {
	_, err := NewSQLiteTracker("")
	assert.Error(t, err)
}
