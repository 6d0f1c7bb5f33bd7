package library

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, "sqlite3"), mock
}

func movieColumns() []string {
	return []string{"id", "title", "year", "summary", "duration", "watched", "added_at"}
}

func seriesColumns() []string {
	return []string{"id", "title", "year", "summary", "seasons", "episodes", "watched", "added_at"}
}

func TestListMovies(t *testing.T) {
	store, mock := newTestStore(t)

	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM movies ORDER BY added_at DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows(movieColumns()).
			AddRow(2, "Beta", 2021, nil, int64(5400), false, added).
			AddRow(1, "Alpha", 2020, "a movie", int64(7200), true, added))

	movies, err := store.ListMovies(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, "Beta", movies[0].Title)
	assert.Nil(t, movies[0].Summary)
	assert.True(t, movies[1].Watched)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMoviesFiltered(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM movies WHERE year = ? AND watched = ? ORDER BY added_at DESC, id DESC LIMIT 10 OFFSET 20`)).
		WithArgs(2020, true).
		WillReturnRows(sqlmock.NewRows(movieColumns()))

	year := 2020
	watched := true
	_, err := store.ListMovies(context.Background(), ListOptions{
		Year:    &year,
		Watched: &watched,
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSeries(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM series ORDER BY added_at DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows(seriesColumns()).
			AddRow(1, "Show", 2019, nil, 3, 30, false, nil))

	series, err := store.ListSeries(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 3, series[0].Seasons)
	assert.Equal(t, 30, series[0].Episodes)
	assert.Nil(t, series[0].AddedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type recordingNotifier struct {
	failures []error
}

func (n *recordingNotifier) NotifyExportFailure(_ context.Context, err error) {
	n.failures = append(n.failures, err)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExportAll(t *testing.T) {
	store, mock := newTestStore(t)
	dir := t.TempDir()

	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM movies`)).
		WillReturnRows(sqlmock.NewRows(movieColumns()).
			AddRow(1, "Alpha", 2020, "a movie", int64(7200), true, added))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM series`)).
		WillReturnRows(sqlmock.NewRows(seriesColumns()))

	exporter := NewExporter(store, dir, discardLogger(), nil)
	require.NoError(t, exporter.ExportAll(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "movies.json"))
	require.NoError(t, err)
	var snap struct {
		Count int     `json:"count"`
		Items []Movie `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 1, snap.Count)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Alpha", snap.Items[0].Title)

	_, err = os.Stat(filepath.Join(dir, "series.json"))
	assert.NoError(t, err)

	// No temp files may survive a successful export.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp-"), "leftover temp file %s", entry.Name())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportAllNotifiesOnFailure(t *testing.T) {
	store, mock := newTestStore(t)
	dir := t.TempDir()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM movies`)).
		WillReturnError(errors.New("table locked"))

	notifier := &recordingNotifier{}
	exporter := NewExporter(store, dir, discardLogger(), notifier)

	err := exporter.ExportAll(context.Background())
	require.Error(t, err)
	require.Len(t, notifier.failures, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	store, _ := newTestStore(t)
	exporter := NewExporter(store, t.TempDir(), discardLogger(), nil)

	_, err := NewScheduler(exporter, "not a schedule", discardLogger())
	require.Error(t, err)

	sched, err := NewScheduler(exporter, "@hourly", discardLogger())
	require.NoError(t, err)
	sched.Start()
	sched.Stop()
}
