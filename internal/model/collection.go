package model

import "time"

// SnapshotSchemaVersion is bumped whenever the payload encoding changes;
// snapshots written under another version are ignored on load.
const SnapshotSchemaVersion = 1

// Collection is the persisted snapshot of one upstream entity collection.
type Collection struct {
	Name          string `gorm:"primaryKey;size:64"`
	SchemaVersion int    `gorm:"not null"`
	RecordCount   int    `gorm:"not null"`
	FetchedAt     *time.Time
	Payload       []byte
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}
