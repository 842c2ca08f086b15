package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/datavault/internal/config"
	cryptoDomain "github.com/allisson/datavault/internal/crypto/domain"
	cryptoService "github.com/allisson/datavault/internal/crypto/service"
	"github.com/allisson/datavault/internal/testutil"
	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
)

func randomKEK(t *testing.T) []byte {
	t.Helper()
	kek, err := cryptoService.GenerateKey()
	require.NoError(t, err)
	return kek
}

// sqliteConfig points the container at a migrated SQLite file in a temp dir.
func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:                     config.DriverSQLite,
		DBConnectionString:           "file:" + filepath.Join(t.TempDir(), "vault.db"),
		DBMaxOpenConnections:         1,
		DBMaxIdleConnections:         1,
		LogLevel:                     "error",
		EncryptionKEK:                base64.StdEncoding.EncodeToString(randomKEK(t)),
		MetricsEnabled:               true,
		MetricsNamespace:             "datavault_test",
		MetricsHost:                  "127.0.0.1",
		MetricsPort:                  0,
		MigrationBatchSize:           10,
		MigrationDelayBetweenBatches: time.Millisecond,
		MigrationMaxBatches:          5,
	}
}

func newMigratedContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	container := NewContainer(cfg)
	t.Cleanup(func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	})

	db, err := container.DB()
	require.NoError(t, err)
	testutil.MigrateSQLite(t, db)
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := &config.Config{LogLevel: "info"}

	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainer_Logger(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "invalid"})

	assert.Nil(t, container.logger)
	logger := container.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger())
}

func TestContainer_DBErrorIsCached(t *testing.T) {
	container := NewContainer(&config.Config{DBDriver: "invalid_driver"})

	_, err := container.DB()
	require.Error(t, err)

	_, err2 := container.DB()
	assert.Equal(t, err, err2)

	_, err = container.EntryUseCase()
	assert.Error(t, err)
}

func TestContainer_KeyManager(t *testing.T) {
	t.Run("plain KEK", func(t *testing.T) {
		kek := randomKEK(t)
		container := NewContainer(&config.Config{
			LogLevel:      "error",
			EncryptionKEK: base64.StdEncoding.EncodeToString(kek),
		})

		km, err := container.KeyManager()
		require.NoError(t, err)

		legacy, err := km.LegacyEncrypt([]byte(`{"a":1}`))
		require.NoError(t, err)
		assert.True(t, km.VerifyKEK(legacy))

		km2, err := container.KeyManager()
		require.NoError(t, err)
		assert.Same(t, km, km2)

		require.NoError(t, container.Shutdown(context.Background()))
		assert.False(t, km.VerifyKEK(legacy), "KEK must be zeroed on shutdown")
	})

	t.Run("KEK wrapped by KMS", func(t *testing.T) {
		ctx := context.Background()
		keyURI := "base64key://" + base64.URLEncoding.EncodeToString(randomKEK(t))
		keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, keyURI)
		require.NoError(t, err)
		wrapped, err := keeper.Encrypt(ctx, randomKEK(t))
		require.NoError(t, err)
		require.NoError(t, keeper.Close())

		container := NewContainer(&config.Config{
			LogLevel:      "error",
			EncryptionKEK: base64.StdEncoding.EncodeToString(wrapped),
			KMSKeyURI:     keyURI,
		})

		_, err = container.KeyManager()
		assert.NoError(t, err)
	})

	t.Run("missing KEK", func(t *testing.T) {
		container := NewContainer(&config.Config{LogLevel: "error"})

		_, err := container.KeyManager()
		assert.ErrorIs(t, err, cryptoDomain.ErrKEKNotSet)
		assert.ErrorIs(t, err, cryptoDomain.ErrConfiguration)
	})
}

func TestContainer_UnsupportedDriverRepositories(t *testing.T) {
	container := newMigratedContainer(t, sqliteConfig(t))
	container.config.DBDriver = "oracle"

	_, err := container.VaultEntryRepository()
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = container.AuditEventRepository()
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestContainer_BusinessMetricsDisabled(t *testing.T) {
	container := NewContainer(&config.Config{MetricsEnabled: false})

	provider, err := container.MetricsProvider()
	require.NoError(t, err)
	assert.Nil(t, provider)

	bm, err := container.BusinessMetrics()
	require.NoError(t, err)
	assert.NotNil(t, bm)
}

func TestContainer_SQLiteWiring(t *testing.T) {
	ctx := context.Background()
	container := newMigratedContainer(t, sqliteConfig(t))

	entries, err := container.EntryUseCase()
	require.NoError(t, err)

	created, err := entries.Create(ctx, &vaultDomain.CreateEntryInput{
		OwnerID: "user-1",
		Data:    []byte(`{"ssn":"000-00-0000"}`),
	})
	require.NoError(t, err)

	got, err := entries.Get(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ssn":"000-00-0000"}`, string(got.Data))

	migration, err := container.MigrationUseCase()
	require.NoError(t, err)
	stats, err := migration.GetMigrationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.V2)
	assert.Equal(t, 100, stats.PercentageComplete)

	audit, err := container.AuditUseCase()
	require.NoError(t, err)
	report, err := audit.VerifyUserChain(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.EventCount)

	server, err := container.MetricsServer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "datavault_test_vault_entries")
	assert.Contains(t, w.Body.String(), `operation="entry_create"`)

	w = httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestContainer_MigrationConfig(t *testing.T) {
	container := NewContainer(sqliteConfig(t))

	cfg := container.MigrationConfig()

	assert.Equal(t, vaultDomain.MigrationConfig{
		BatchSize:           10,
		DelayBetweenBatches: time.Millisecond,
		MaxBatches:          5,
	}, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestContainer_ShutdownWithoutInit(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "info"})

	assert.NoError(t, container.Shutdown(context.TODO()))
}
