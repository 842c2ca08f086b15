package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
)

// VersionCounts is the number of stored entries per encryption version.
type VersionCounts struct {
	V1 int64
	V2 int64
}

// MigrationStats is a point-in-time view of the v1 to v2 migration.
type MigrationStats struct {
	Total              int64
	V1                 int64
	V2                 int64
	Migrated           int64
	Failed             int64
	PercentageComplete int
}

// NewMigrationStats derives stats from version counts. PercentageComplete is
// V2/Total*100 rounded, and 100 for an empty store.
func NewMigrationStats(counts VersionCounts, failed int64) MigrationStats {
	total := counts.V1 + counts.V2

	percentage := 100
	if total > 0 {
		percentage = int(math.Round(float64(counts.V2) / float64(total) * 100))
	}

	return MigrationStats{
		Total:              total,
		V1:                 counts.V1,
		V2:                 counts.V2,
		Migrated:           counts.V2,
		Failed:             failed,
		PercentageComplete: percentage,
	}
}

// LegacyCursor is the position of a legacy entry in FindLegacyEntries order
// (created_at, then id).
type LegacyCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the position of entry.
func CursorOf(entry *VaultEntry) LegacyCursor {
	return LegacyCursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
}

// EntryError records why one entry failed to migrate.
type EntryError struct {
	EntryID uuid.UUID
	Err     error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %s: %v", e.EntryID, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// BatchResult accumulates the outcome of one migration batch. A failing entry
// never aborts the batch; it is counted and listed in Errors.
type BatchResult struct {
	Migrated int
	Failed   int
	Success  bool
	Errors   []EntryError
}

// MigrationConfig bounds a background migration sweep.
type MigrationConfig struct {
	BatchSize           int
	DelayBetweenBatches time.Duration
	MaxBatches          int
}

// DefaultMigrationConfig returns the configuration used when none is given.
func DefaultMigrationConfig() MigrationConfig {
	return MigrationConfig{
		BatchSize:           100,
		DelayBetweenBatches: time.Second,
		MaxBatches:          1000,
	}
}

// Validate checks the configuration bounds. Returns an error wrapping
// ErrInvalidMigrationConfig.
func (c MigrationConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1), validation.Max(10000)),
		validation.Field(&c.DelayBetweenBatches, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxBatches, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMigrationConfig, err)
	}
	return nil
}
