package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "bap-core", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 30*time.Second, cfg.Protocol.TTL)
	assert.Equal(t, 30*time.Second, cfg.Protocol.CallTimeout)
	assert.Equal(t, 10*time.Second, cfg.Protocol.SearchTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Protocol.JourneyTTL)
	assert.Equal(t, "bap-core", cfg.Telemetry.ServiceName)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
}

func TestValidate_Providers(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid entry", func(t *testing.T) {
		cfg := base()
		cfg.Providers = []ProviderConfig{{
			Name:        "domestic-flights",
			Category:    "MOBILITY",
			ServiceType: "FLIGHT",
			BaseURL:     "http://flights.internal:9001",
		}}
		require.NoError(t, cfg.validate())
	})

	t.Run("missing name", func(t *testing.T) {
		cfg := base()
		cfg.Providers = []ProviderConfig{{ServiceType: "FLIGHT", BaseURL: "http://x"}}
		assert.Error(t, cfg.validate())
	})

	t.Run("missing service type", func(t *testing.T) {
		cfg := base()
		cfg.Providers = []ProviderConfig{{Name: "x", BaseURL: "http://x"}}
		assert.Error(t, cfg.validate())
	})

	t.Run("invalid base url", func(t *testing.T) {
		cfg := base()
		cfg.Providers = []ProviderConfig{{Name: "x", ServiceType: "FLIGHT", BaseURL: "::not-a-url"}}
		assert.Error(t, cfg.validate())
	})
}

func TestValidate_Telemetry(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.CollectorEndpoint = ""
	assert.Error(t, cfg.validate())

	cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	require.NoError(t, cfg.validate())

	cfg.Telemetry.SamplingRatio = 1.5
	assert.Error(t, cfg.validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := &DatabaseConfig{
		Host: "db", Port: 5433, User: "bap", Password: "secret",
		DBName: "bap", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=bap password=secret dbname=bap sslmode=require", d.DSN())
	assert.Equal(t, "postgres://bap:secret@db:5433/bap?sslmode=require", d.URL())
}
