package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"seta-admin-backend/internal/listing"
	"seta-admin-backend/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Snapshot is the last successfully fetched state of one collection.
type Snapshot struct {
	Name      string
	Records   []listing.Record
	FetchedAt time.Time
}

// Store defines the interface for all database operations.
type Store interface {
	EnsureCollections(ctx context.Context, names []string) error
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshots(ctx context.Context) ([]Snapshot, error)

	PutSubscription(ctx context.Context, sub model.PushSubscription, collections []string) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsFor(ctx context.Context, collection string) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// EnsureCollections creates an empty row for every collection that has none yet.
func (s *gormStore) EnsureCollections(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]model.Collection, 0, len(names))
	for _, name := range names {
		rows = append(rows, model.Collection{Name: name})
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to ensure collections: %w", err)
	}
	return nil
}

// SaveSnapshot overwrites the persisted snapshot of snap.Name.
func (s *gormStore) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	records := snap.Records
	if records == nil {
		records = []listing.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", snap.Name, err)
	}

	fetchedAt := snap.FetchedAt.UTC()
	row := model.Collection{
		Name:          snap.Name,
		SchemaVersion: model.SnapshotSchemaVersion,
		RecordCount:   len(records),
		FetchedAt:     &fetchedAt,
		Payload:       payload,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_version", "record_count", "fetched_at", "payload", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.Name, err)
	}
	return nil
}

// LoadSnapshots returns every snapshot written under the current schema
// version. Snapshots that fail to decode are skipped and reported in the
// returned error alongside the ones that loaded.
func (s *gormStore) LoadSnapshots(ctx context.Context) ([]Snapshot, error) {
	var rows []model.Collection
	if err := s.db.WithContext(ctx).
		Where("schema_version = ? AND fetched_at IS NOT NULL", model.SnapshotSchemaVersion).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	var errs error
	snapshots := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		records, err := decodeRecords(row.Payload)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("snapshot %s: %w", row.Name, err))
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Name:      row.Name,
			Records:   records,
			FetchedAt: *row.FetchedAt,
		})
	}
	return snapshots, errs
}

func decodeRecords(payload []byte) ([]listing.Record, error) {
	if len(payload) == 0 {
		return []listing.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var records []listing.Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// PutSubscription creates or replaces a push subscription and the
// collections it follows.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription, collections []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Collections").Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		var rows []model.Collection
		if len(collections) > 0 {
			if err := tx.Select("name").Where("name IN ?", collections).Find(&rows).Error; err != nil {
				return fmt.Errorf("failed to find collections: %w", err)
			}
		}

		if err := tx.Model(&sub).Association("Collections").Replace(&rows); err != nil {
			return fmt.Errorf("failed to replace subscribed collections: %w", err)
		}
		return nil
	})
}

// GetSubscription returns the subscription for endpoint with its collections.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).
		Preload("Collections", func(db *gorm.DB) *gorm.DB { return db.Select("name") }).
		First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// DeleteSubscription removes a subscription and its collection mappings.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	sub := model.PushSubscription{Endpoint: endpoint}
	if err := s.db.WithContext(ctx).Select("Collections").Delete(&sub).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

// SubscriptionsFor returns the subscriptions following collection.
func (s *gormStore) SubscriptionsFor(ctx context.Context, collection string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_collection_mapping scm ON scm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("scm.collection_name = ?", collection).
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for %s: %w", collection, err)
	}
	return subs, nil
}
