// SPDX-License-Identifier: Apache-2.0

// Package pgmgconfig loads pgmg's configuration, grounded on the teacher's
// cmd/flags package and cmd/root.go's init(): viper bound to cobra flags
// with an env-var fallback, generalized here to a standalone Load usable
// outside a cobra command tree (spec.md §6 "Configuration").
package pgmgconfig

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZakSingh/pgmg/internal/connstr"
	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
)

const (
	defaultCatalogSchema       = "pgmg"
	defaultAdvisoryLockTimeout = 60 * time.Second
)

// Config is the recognized configuration surface spec.md §6 names.
type Config struct {
	ConnectionString string
	MigrationsDir    string
	CodeDir          string
	CatalogSchema    string

	DevelopmentMode     bool
	EmitNotifyEvents    bool
	CheckPlpgsql        bool
	AdvisoryLockTimeout time.Duration

	TLS connstr.TLSSettings
}

// Load reads configuration from a pgmg.{yaml,toml,json} file (if present in
// the working directory), environment variables prefixed PGMG_, and applies
// defaults. DATABASE_URL is consulted when connection_string is unset
// (spec.md §6).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("pgmg")
	v.AddConfigPath(".")
	v.SetEnvPrefix("PGMG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("code_dir", "code")
	v.SetDefault("catalog_schema", defaultCatalogSchema)
	v.SetDefault("advisory_lock_timeout", defaultAdvisoryLockTimeout)
	v.SetDefault("tls.mode", "")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, pgmgerrs.ConfigurationError{Reason: "reading config file: " + err.Error()}
		}
	}

	connectionString := v.GetString("connection_string")
	if connectionString == "" {
		connectionString = os.Getenv("DATABASE_URL")
	}
	if connectionString == "" {
		return nil, pgmgerrs.ConfigurationError{Reason: "connection_string is unset and DATABASE_URL is not present in the environment"}
	}

	tlsMode := connstr.TLSMode(v.GetString("tls.mode"))
	if tlsMode != "" && !tlsMode.Valid() {
		return nil, pgmgerrs.ConfigurationError{Reason: "invalid TLS mode: " + string(tlsMode)}
	}

	cfg := &Config{
		ConnectionString:    connectionString,
		MigrationsDir:       v.GetString("migrations_dir"),
		CodeDir:             v.GetString("code_dir"),
		CatalogSchema:       v.GetString("catalog_schema"),
		DevelopmentMode:     v.GetBool("development_mode"),
		EmitNotifyEvents:    v.GetBool("emit_notify_events"),
		CheckPlpgsql:        v.GetBool("check_plpgsql") || v.GetBool("development_mode"),
		AdvisoryLockTimeout: v.GetDuration("advisory_lock_timeout"),
		TLS: connstr.TLSSettings{
			Mode:       tlsMode,
			RootCert:   v.GetString("tls.root_cert"),
			ClientCert: v.GetString("tls.client_cert"),
			ClientKey:  v.GetString("tls.client_key"),
		},
	}

	dsn, err := connstr.WithTLS(cfg.ConnectionString, cfg.TLS)
	if err != nil {
		return nil, pgmgerrs.ConfigurationError{Reason: err.Error()}
	}
	cfg.ConnectionString = dsn

	return cfg, nil
}
