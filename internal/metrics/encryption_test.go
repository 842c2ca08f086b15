package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterEncryptionVersionGauge(t *testing.T) {
	t.Run("observes counts on scrape", func(t *testing.T) {
		provider, err := NewProvider("datavault_test")
		require.NoError(t, err)

		legacy := int64(7)
		reg, err := RegisterEncryptionVersionGauge(provider.MeterProvider(), "datavault_test",
			func(ctx context.Context) (int64, int64, error) {
				return legacy, 3, nil
			})
		require.NoError(t, err)
		defer func() { assert.NoError(t, reg.Unregister()) }()

		output := scrape(t, provider)
		assertMetricLine(t, output, `datavault_test_vault_entries`, `encryption_version="v1"`, `7`)
		assertMetricLine(t, output, `datavault_test_vault_entries`, `encryption_version="v2"`, `3`)

		legacy = 0
		output = scrape(t, provider)
		assertMetricLine(t, output, `datavault_test_vault_entries`, `encryption_version="v1"`, `0`)
	})

	t.Run("failing counter skips the observation", func(t *testing.T) {
		provider, err := NewProvider("datavault_test")
		require.NoError(t, err)

		_, err = RegisterEncryptionVersionGauge(provider.MeterProvider(), "datavault_test",
			func(ctx context.Context) (int64, int64, error) {
				return 0, 0, errors.New("database is closed")
			})
		require.NoError(t, err)

		assert.NotContains(t, scrape(t, provider), "datavault_test_vault_entries{")
	})
}
