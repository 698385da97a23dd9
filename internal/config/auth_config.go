package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AuthConfig struct {
	// JWTSecret verifies session tokens issued by the identity provider.
	JWTSecret string `mapstructure:"jwt_secret"`
	// SyncSecret lets scheduled external triggers run the pipeline without a
	// user session.
	SyncSecret string `mapstructure:"sync_secret"`
}

func (config AuthConfig) validate() error {

	var missingFields []string

	if config.JWTSecret == "" {
		missingFields = append(missingFields, "jwt_secret")
	}
	if config.SyncSecret == "" {
		missingFields = append(missingFields, "sync_secret")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	return nil
}

func (config AuthConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("auth.jwt_secret", "JWT_SECRET"); err != nil {
		errs = append(errs, err)
	}
	if err := viper.BindEnv("auth.sync_secret", "SYNC_SECRET"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
