package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingSecret is fatal: the process refuses to start without a
	// signing secret.
	ErrMissingSecret = errors.New("SECRET_KEY is not set")
)

// Path is the optional YAML config file given on the command line.
type Path string

type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Session   Session   `yaml:"session"`
	Bootstrap Bootstrap `yaml:"bootstrap"`
	Password  Password  `yaml:"password"`
	Log       Log       `yaml:"log"`
	Metrics   Metrics   `yaml:"metrics"`
}

type Server struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	DSN string `yaml:"dsn"`
}

type Session struct {
	// Secret signs session and remember tokens. Only read from the
	// environment.
	Secret             string        `yaml:"-"`
	Lifetime           time.Duration `yaml:"lifetime"`
	RememberLifetime   time.Duration `yaml:"remember_lifetime"`
	CookieName         string        `yaml:"cookie_name"`
	RememberCookieName string        `yaml:"remember_cookie_name"`
	FlashCookieName    string        `yaml:"flash_cookie_name"`
	Secure             bool          `yaml:"secure"`
	// FlashCleanupInterval is how often expired flash rows are purged.
	FlashCleanupInterval time.Duration `yaml:"flash_cleanup_interval"`
}

// Bootstrap controls provisioning of the first administrator when the
// credential store is empty.
type Bootstrap struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Password struct {
	Cost int `yaml:"cost"`
}

type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Metrics are served on their own listener, kept off the public site.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

const (
	DefaultBootstrapUsername = "admin"
	// DefaultBootstrapPassword is well known. Override it with
	// ADMIN_PASSWORD or the bootstrap section of the config file.
	DefaultBootstrapPassword = "admin123"

	minSecretLength = 32
)

// Default returns the configuration used before the file and the
// environment are applied.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Database: Database{
			DSN: "data/estate.db",
		},
		Session: Session{
			Lifetime:             30 * time.Minute,
			RememberLifetime:     14 * 24 * time.Hour,
			CookieName:           "session",
			RememberCookieName:   "remember_token",
			FlashCookieName:      "flash",
			FlashCleanupInterval: 5 * time.Minute,
			Secure:               true,
		},
		Bootstrap: Bootstrap{
			Enabled:  true,
			Username: DefaultBootstrapUsername,
			Password: DefaultBootstrapPassword,
		},
		Password: Password{
			Cost: bcrypt.DefaultCost,
		},
		Log: Log{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 10,
		},
		Metrics: Metrics{
			Enabled: true,
			Addr:    "127.0.0.1:9100",
			Path:    "/metrics",
		},
	}
}

// New is the fx constructor.
func New(p Path) (*Config, error) {
	return Load(string(p), os.LookupEnv)
}

// Load applies the YAML file at path (if any) and then the environment on
// top of the defaults.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WeakSecret reports whether the signing secret is shorter than recommended.
func (c *Config) WeakSecret() bool {
	return len(c.Session.Secret) < minSecretLength
}

// DefaultAdminPassword reports whether bootstrap would provision the well
// known password.
func (c *Config) DefaultAdminPassword() bool {
	return c.Bootstrap.Enabled && c.Bootstrap.Password == DefaultBootstrapPassword
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return ErrMissingSecret
	}
	if c.Session.Lifetime <= 0 {
		return fmt.Errorf("config: session lifetime must be positive, got %s", c.Session.Lifetime)
	}
	if c.Session.RememberLifetime <= 0 {
		return fmt.Errorf("config: remember lifetime must be positive, got %s", c.Session.RememberLifetime)
	}
	if c.Session.CookieName == "" || c.Session.RememberCookieName == "" || c.Session.FlashCookieName == "" {
		return errors.New("config: cookie names must not be empty")
	}
	if c.Session.CookieName == c.Session.RememberCookieName {
		return errors.New("config: session and remember cookies need distinct names")
	}
	if c.Session.FlashCleanupInterval <= 0 {
		return fmt.Errorf("config: flash cleanup interval must be positive, got %s", c.Session.FlashCleanupInterval)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return errors.New("config: metrics need a listen address")
	}
	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcrypt cost %d out of range", c.Password.Cost)
	}
	if c.Bootstrap.Enabled && (c.Bootstrap.Username == "" || c.Bootstrap.Password == "") {
		return errors.New("config: bootstrap needs a username and a password")
	}
	return nil
}
