package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewMigrationStats(t *testing.T) {
	tests := []struct {
		name       string
		counts     VersionCounts
		percentage int
	}{
		{"empty store", VersionCounts{}, 100},
		{"all migrated", VersionCounts{V1: 0, V2: 7}, 100},
		{"nothing migrated", VersionCounts{V1: 7, V2: 0}, 0},
		{"one third rounds down", VersionCounts{V1: 2, V2: 1}, 33},
		{"two thirds rounds up", VersionCounts{V1: 1, V2: 2}, 67},
		{"half", VersionCounts{V1: 5, V2: 5}, 50},
		{"999 of 1000 rounds to 100", VersionCounts{V1: 1, V2: 999}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := NewMigrationStats(tt.counts, 3)
			assert.Equal(t, tt.counts.V1+tt.counts.V2, stats.Total)
			assert.Equal(t, tt.counts.V2, stats.Migrated)
			assert.Equal(t, int64(3), stats.Failed)
			assert.Equal(t, tt.percentage, stats.PercentageComplete)
		})
	}
}

func TestEntryError(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	err := EntryError{EntryID: id, Err: ErrMalformedRecord}

	assert.Contains(t, err.Error(), id.String())
	assert.True(t, errors.Is(err, ErrMalformedRecord))
}

func TestMigrationConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultMigrationConfig().Validate())

	tests := []struct {
		name string
		cfg  MigrationConfig
	}{
		{"zero batch size", MigrationConfig{BatchSize: 0, MaxBatches: 1}},
		{"huge batch size", MigrationConfig{BatchSize: 10001, MaxBatches: 1}},
		{"negative delay", MigrationConfig{BatchSize: 1, MaxBatches: 1, DelayBetweenBatches: -time.Second}},
		{"zero max batches", MigrationConfig{BatchSize: 1, MaxBatches: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.cfg.Validate(), ErrInvalidMigrationConfig)
		})
	}
}
