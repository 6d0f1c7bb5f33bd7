package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Notifier receives export failure notifications. Delivery (email, chat) is
// wired by the embedding application.
type Notifier interface {
	NotifyExportFailure(ctx context.Context, err error)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyExportFailure(context.Context, error) {}

// Exporter writes library snapshots to disk as JSON for the frontend to
// serve statically.
type Exporter struct {
	store    *Store
	dir      string
	logger   *slog.Logger
	notifier Notifier
}

// NewExporter creates an exporter writing into dir. notifier may be nil.
func NewExporter(store *Store, dir string, logger *slog.Logger, notifier Notifier) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Exporter{store: store, dir: dir, logger: logger, notifier: notifier}
}

// snapshot is the on-disk envelope for one exported listing.
type snapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Count       int       `json:"count"`
	Items       any       `json:"items"`
}

// ExportAll writes movies.json and series.json. Each file is written to a
// temporary name and renamed, so readers never see a partial snapshot. The
// first failure aborts the run and notifies.
func (e *Exporter) ExportAll(ctx context.Context) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		err = fmt.Errorf("failed to create export directory: %w", err)
		e.notifier.NotifyExportFailure(ctx, err)
		return err
	}

	movies, err := e.store.ListMovies(ctx, ListOptions{})
	if err != nil {
		e.notifier.NotifyExportFailure(ctx, err)
		return err
	}
	if err := e.writeSnapshot("movies.json", snapshot{
		GeneratedAt: time.Now().UTC(),
		Count:       len(movies),
		Items:       movies,
	}); err != nil {
		e.notifier.NotifyExportFailure(ctx, err)
		return err
	}

	series, err := e.store.ListSeries(ctx, ListOptions{})
	if err != nil {
		e.notifier.NotifyExportFailure(ctx, err)
		return err
	}
	if err := e.writeSnapshot("series.json", snapshot{
		GeneratedAt: time.Now().UTC(),
		Count:       len(series),
		Items:       series,
	}); err != nil {
		e.notifier.NotifyExportFailure(ctx, err)
		return err
	}

	e.logger.Info("library snapshots exported",
		slog.String("dir", e.dir),
		slog.Int("movies", len(movies)),
		slog.Int("series", len(series)),
	)
	return nil
}

func (e *Exporter) writeSnapshot(name string, snap snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(e.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(e.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return nil
}
