package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {

	os.Setenv("JWT_SECRET", "overrideJwt")
	os.Setenv("SYNC_SECRET", "overrideSync")
	os.Setenv("AI_KEY", "overrideKey")
	os.Setenv("AI_MODEL", "super_duper_model")
	os.Setenv("DB_CONNECTION_STRING", "newConnectionString")
	os.Setenv("PIPELINE_SOURCE_TIMEOUT", "30s")
	os.Setenv("PIPELINE_RUN_DEADLINE", "10m")
	defer func() {
		for _, key := range []string{"JWT_SECRET", "SYNC_SECRET", "AI_KEY", "AI_MODEL",
			"DB_CONNECTION_STRING", "PIPELINE_SOURCE_TIMEOUT", "PIPELINE_RUN_DEADLINE"} {
			os.Unsetenv(key)
		}
	}()

	cfg, err := loadConfig("../../configs/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "overrideJwt", cfg.Auth.JWTSecret)
	assert.Equal(t, "overrideSync", cfg.Auth.SyncSecret)
	assert.Equal(t, "overrideKey", cfg.AI.Key)
	assert.Equal(t, "super_duper_model", cfg.AI.Model)
	assert.Equal(t, "newConnectionString", cfg.DB.ConnectionString)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.SourceTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.RunDeadline)
}

func Test_Config_InvalidPipelineValuesAreRejected(t *testing.T) {

	cfg := PipelineConfig{
		SourceTimeout:  time.Minute,
		RunDeadline:    30 * time.Second,
		StaleAfterDays: 14,
		MaxPages:       10,
	}
	assert.Error(t, cfg.validate())

	cfg.RunDeadline = 5 * time.Minute
	assert.NoError(t, cfg.validate())
}
