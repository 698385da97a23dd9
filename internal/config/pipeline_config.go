package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type PipelineConfig struct {
	// SourceTimeout bounds a single source fetch; a hung source must not
	// stall the rest of the run.
	SourceTimeout time.Duration `mapstructure:"source_timeout"`
	// RunDeadline bounds one whole pipeline run. When it is exceeded the
	// orchestrator stops dispatching further sources.
	RunDeadline          time.Duration `mapstructure:"run_deadline"`
	SyncSchedule         string        `mapstructure:"sync_schedule"`
	StaleAfterDays       int           `mapstructure:"stale_after_days"`
	MaxPages             int           `mapstructure:"max_pages"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
}

func (config PipelineConfig) validate() error {

	if config.SourceTimeout <= 0 {
		return fmt.Errorf("source_timeout must be greater than zero")
	}
	if config.RunDeadline <= config.SourceTimeout {
		return fmt.Errorf("run_deadline must be greater than source_timeout")
	}
	if config.StaleAfterDays <= 0 {
		return fmt.Errorf("stale_after_days must be greater than zero")
	}
	if config.MaxPages <= 0 {
		return fmt.Errorf("max_pages must be greater than zero")
	}

	return nil
}

func (config PipelineConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("pipeline.source_timeout", "PIPELINE_SOURCE_TIMEOUT"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("pipeline.run_deadline", "PIPELINE_RUN_DEADLINE"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("pipeline.sync_schedule", "PIPELINE_SYNC_SCHEDULE"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("pipeline.stale_after_days", "PIPELINE_STALE_AFTER_DAYS"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
