package config

import (
	"fmt"
	"strconv"
)

const (
	envSecretKey     = "SECRET_KEY"
	envDatabaseURL   = "DATABASE_URL"
	envListenAddr    = "LISTEN_ADDR"
	envLogLevel      = "LOG_LEVEL"
	envAdminUsername = "ADMIN_USERNAME"
	envAdminPassword = "ADMIN_PASSWORD"
	envSecureCookies = "SECURE_COOKIES"
	envMetricsAddr   = "METRICS_ADDR"
)

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(envSecretKey); ok {
		cfg.Session.Secret = v
	}
	if v, ok := lookup(envDatabaseURL); ok && v != "" {
		cfg.Database.DSN = v
	}
	if v, ok := lookup(envListenAddr); ok && v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := lookup(envLogLevel); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup(envAdminUsername); ok && v != "" {
		cfg.Bootstrap.Username = v
	}
	if v, ok := lookup(envAdminPassword); ok && v != "" {
		cfg.Bootstrap.Password = v
	}
	if v, ok := lookup(envMetricsAddr); ok && v != "" {
		cfg.Metrics.Addr = v
	}
	if v, ok := lookup(envSecureCookies); ok && v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", envSecureCookies, err)
		}
		cfg.Session.Secure = secure
	}
	return nil
}
