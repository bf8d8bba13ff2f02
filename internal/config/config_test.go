package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trendora/searchsync/pkg/errors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SEARCH_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8020, cfg.HTTPPort)
	assert.Equal(t, []string{"en", "ar"}, cfg.Locales)
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, "searchsync", cfg.ConsumerGroup)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoad_ElasticsearchRequiresCredentials(t *testing.T) {
	t.Setenv("SEARCH_BACKEND", "elasticsearch")
	t.Setenv("SEARCH_URL", "")
	t.Setenv("SEARCH_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMisconfigured))
}

func TestLoad_ElasticsearchWithCredentials(t *testing.T) {
	t.Setenv("SEARCH_BACKEND", "elasticsearch")
	t.Setenv("SEARCH_URL", "http://localhost:9200")
	t.Setenv("SEARCH_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "products", cfg.SearchIndexPrefix)
}

func TestLoad_DefaultLocaleMustBeConfigured(t *testing.T) {
	t.Setenv("SEARCH_BACKEND", "memory")
	t.Setenv("SEARCHSYNC_LOCALES", "en,tr")
	t.Setenv("SEARCHSYNC_DEFAULT_LOCALE", "de")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("SEARCH_BACKEND", "solr")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost:     "db.internal",
		PostgresPort:     5433,
		PostgresUser:     "svc",
		PostgresPassword: "pw",
		PostgresDB:       "catalog",
		PostgresSSLMode:  "require",
	}

	assert.Equal(t, "postgres://svc:pw@db.internal:5433/catalog?sslmode=require", cfg.PostgresDSN())
}
