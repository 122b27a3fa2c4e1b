// Package syncer keeps the registry in step with the upstream API and
// persists what it fetched as snapshots.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"seta-admin-backend/config"
	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/notification"
	"seta-admin-backend/internal/registry"
	"seta-admin-backend/internal/store"
)

// ErrUnknownCollection is returned for names no view is configured for.
var ErrUnknownCollection = errors.New("unknown collection")

// Fetcher loads one collection from the upstream API.
type Fetcher interface {
	FetchCollection(ctx context.Context, path string) ([]listing.Record, error)
}

// SnapshotStore persists fetched collections.
type SnapshotStore interface {
	EnsureCollections(ctx context.Context, names []string) error
	SaveSnapshot(ctx context.Context, snap store.Snapshot) error
	LoadSnapshots(ctx context.Context) ([]store.Snapshot, error)
}

// Notifier surfaces toasts to the dashboard.
type Notifier interface {
	Dispatch(t notification.Toast) bool
}

// Service orchestrates fetching. A failed fetch keeps the collection the
// registry already holds.
type Service struct {
	cfg      config.UpstreamConfig
	views    map[string]listing.View
	names    []string
	fetcher  Fetcher
	registry *registry.Registry
	store    SnapshotStore
	notifier Notifier
	log      *zap.SugaredLogger

	locks   map[string]*sync.Mutex
	mu      sync.Mutex
	failing map[string]bool
}

// NewService creates a syncer for views. notifier may be nil.
func NewService(cfg config.UpstreamConfig, views []listing.View, fetcher Fetcher, reg *registry.Registry, st SnapshotStore, notifier Notifier, log *zap.SugaredLogger) *Service {
	s := &Service{
		cfg:      cfg,
		views:    make(map[string]listing.View, len(views)),
		fetcher:  fetcher,
		registry: reg,
		store:    st,
		notifier: notifier,
		log:      log.Named("syncer"),
		locks:    make(map[string]*sync.Mutex, len(views)),
		failing:  make(map[string]bool),
	}
	for _, v := range views {
		s.views[v.Name] = v
		s.names = append(s.names, v.Name)
		s.locks[v.Name] = &sync.Mutex{}
	}
	return s
}

// Hydrate fills the registry from the persisted snapshots and returns how
// many collections were restored. Unreadable snapshots are logged and
// skipped.
func (s *Service) Hydrate(ctx context.Context) (int, error) {
	if err := s.store.EnsureCollections(ctx, s.names); err != nil {
		return 0, err
	}
	snapshots, err := s.store.LoadSnapshots(ctx)
	if err != nil {
		if snapshots == nil {
			return 0, err
		}
		s.log.Warnw("some snapshots could not be restored", "error", err)
	}

	restored := 0
	for _, snap := range snapshots {
		if _, ok := s.views[snap.Name]; !ok {
			continue
		}
		if s.registry.Replace(registry.Collection{
			Name:      snap.Name,
			Records:   snap.Records,
			FetchedAt: snap.FetchedAt,
			Source:    registry.SourceSnapshot,
		}) {
			restored++
		}
	}
	s.log.Infow("hydrated registry from snapshots", "collections", restored)
	return restored, nil
}

// Refresh fetches one collection and replaces it in the registry.
func (s *Service) Refresh(ctx context.Context, name string) error {
	v, ok := s.views[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	lock := s.locks[name]
	lock.Lock()
	defer lock.Unlock()

	records, err := s.fetcher.FetchCollection(ctx, v.Path)
	if err != nil {
		s.fetchFailed(name, err)
		return fmt.Errorf("failed to refresh %s: %w", name, err)
	}

	fetchedAt := time.Now().UTC()
	s.registry.Replace(registry.Collection{
		Name:      name,
		Records:   records,
		FetchedAt: fetchedAt,
		Source:    registry.SourceFetch,
	})
	s.fetchSucceeded(name, len(records))

	if err := s.store.SaveSnapshot(ctx, store.Snapshot{Name: name, Records: records, FetchedAt: fetchedAt}); err != nil {
		s.log.Errorw("failed to persist snapshot", "collection", name, "error", err)
	}
	return nil
}

// RefreshAll refreshes every collection concurrently. One failing
// collection does not stop the others; all failures are returned together.
func (s *Service) RefreshAll(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	g.SetLimit(max(s.cfg.Concurrency, 1))
	for _, name := range s.names {
		name := name
		g.Go(func() error {
			if err := s.Refresh(ctx, name); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Run hydrates the registry, then refreshes every collection on the
// configured interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if _, err := s.Hydrate(ctx); err != nil {
		s.log.Errorw("failed to hydrate registry", "error", err)
	}
	if !s.cfg.Enabled {
		s.log.Info("upstream sync is disabled, serving snapshots only")
		return
	}
	s.log.Infow("starting upstream sync", "interval", s.cfg.Interval, "collections", len(s.names))

	s.cycle(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("upstream sync shutting down")
			return
		case <-timer.C:
			s.cycle(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	start := time.Now()
	err := s.RefreshAll(ctx)
	if err != nil {
		s.log.Warnw("sync cycle finished with errors", "duration", time.Since(start), "error", err)
		return
	}
	s.log.Infow("sync cycle finished", "duration", time.Since(start))
}

func (s *Service) fetchFailed(name string, err error) {
	s.log.Errorw("fetch failed, keeping previous collection", "collection", name, "error", err)
	s.mu.Lock()
	s.failing[name] = true
	s.mu.Unlock()
	s.notify(notification.Toast{
		Collection: name,
		Level:      notification.LevelError,
		Title:      "Could not load " + name,
		Message:    err.Error(),
	})
}

func (s *Service) fetchSucceeded(name string, count int) {
	s.log.Debugw("collection refreshed", "collection", name, "records", count)
	s.mu.Lock()
	recovered := s.failing[name]
	delete(s.failing, name)
	s.mu.Unlock()
	if recovered {
		s.notify(notification.Toast{
			Collection: name,
			Level:      notification.LevelInfo,
			Title:      name + " is available again",
			Message:    fmt.Sprintf("%d records loaded", count),
		})
	}
}

func (s *Service) notify(t notification.Toast) {
	if s.notifier != nil {
		s.notifier.Dispatch(t)
	}
}
