package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/lens-advisor/api/internal/domain"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "lens-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxBodyBytes != defaultMaxBodyBytes {
		t.Errorf("unexpected max body bytes: %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.PubSub.ProjectID != "lens-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.Redis.Enabled {
		t.Error("expected redis cache to be disabled by default")
	}
	if !cfg.Features.QuoteEvents {
		t.Error("expected quote events feature to default on")
	}
	if cfg.Idempotency.Header != defaultIdemHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":               "9090",
		"API_SERVER_REQUEST_TIMEOUT":    "3s",
		"API_FIRESTORE_PROJECT_ID":      "lens-prod",
		"API_FIRESTORE_EMULATOR_HOST":   "localhost:8681",
		"API_REDIS_ENABLED":             "yes",
		"API_REDIS_ADDR":                "redis:6379",
		"API_REDIS_DB":                  "2",
		"API_REDIS_CACHE_TTL":           "90s",
		"API_PUBSUB_ENABLED":            "true",
		"API_PUBSUB_PROJECT_ID":         "lens-events",
		"API_PUBSUB_QUOTE_TOPIC":        "quotes",
		"API_ENGINE_CONFIG_PATH":        "/etc/lens/engine.yaml",
		"API_FEATURE_DIVERSITY_RANKING": "on",
		"API_FEATURE_QUOTE_EVENTS":      "0",
		"API_IDEMPOTENCY_TTL":           "1h",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "localhost:8681", cfg.Firestore.EmulatorHost)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "lens-events", cfg.PubSub.ProjectID)
	assert.Equal(t, "quotes", cfg.PubSub.QuoteTopic)
	assert.Equal(t, "/etc/lens/engine.yaml", cfg.Engine.ConfigPath)
	assert.True(t, cfg.Features.DiversityRanking)
	assert.False(t, cfg.Features.QuoteEvents)
	assert.Equal(t, time.Hour, cfg.Idempotency.TTL)
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"API_REDIS_ENABLED":   "true",
		"API_REDIS_CACHE_TTL": "-1s",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.ElementsMatch(t, []string{"Firestore.ProjectID", "Redis.CacheTTL"}, validationErr.Fields())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nAPI_FIRESTORE_PROJECT_ID=\"lens-local\"\nexport API_SERVER_PORT=7070\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"API_SERVER_PORT": "6060",
	}))
	require.NoError(t, err)
	assert.Equal(t, "lens-local", cfg.Firestore.ProjectID)
	assert.Equal(t, "6060", cfg.Server.Port, "explicit map wins over .env")
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvFile(filepath.Join(t.TempDir(), "absent.env")),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"API_FIRESTORE_PROJECT_ID": "lens"}),
	)
	assert.NoError(t, err)
}

func TestLoadEngineConfigDefaults(t *testing.T) {
	cfg, err := LoadEngineConfig("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEngineConfig(), cfg)
}

func TestLoadEngineConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	overlay := `
bestOffer:
  weightPriority: true
index:
  thresholds:
    - maxPower: 4
      index: INDEX_156
upsell:
  weights:
    SUN_PAIR: 95
  rewardThresholds:
    - minCartValue: 1000000
      reward: Free anti-fog kit
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.BestOffer.WeightPriority)
	assert.InDelta(t, 0.6, cfg.BestOffer.SavingsWeight, 1e-9)
	assert.Equal(t, []domain.IndexThreshold{{MaxPower: 4, Index: domain.Index156}}, cfg.Index.Thresholds)
	assert.Equal(t, 95, cfg.Upsell.Weights[domain.SecondPairSun])
	assert.Equal(t, 90, cfg.Upsell.Weights[domain.SecondPairComputer])
	require.Len(t, cfg.Upsell.RewardThresholds, 1)
	assert.Equal(t, "Free anti-fog kit", cfg.Upsell.RewardThresholds[0].Reward)
}

func TestLoadEngineConfigRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("bestOfer:\n  savingsWeight: 1\n"), 0o600))
	_, err := LoadEngineConfig(unknown)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("index:\n  fallback: INDEX_999\n  thresholds:\n    - {maxPower: 5, index: INDEX_160}\n    - {maxPower: 3, index: INDEX_156}\n"), 0o600))
	_, err = LoadEngineConfig(invalid)
	var engineErr *EngineConfigError
	require.True(t, errors.As(err, &engineErr))
	assert.ElementsMatch(t, []string{
		"index.thresholds[1]: maxPower must increase",
		`index.fallback: unknown index "INDEX_999"`,
	}, engineErr.Problems())

	_, err = LoadEngineConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
