// Package config loads the service configuration from a YAML file with
// environment overrides. Secrets are expected in the environment.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	reporterAuth "github.com/MrEthical07/reporterAuth"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	SMTP       `yaml:"smtp"`
	Session    `yaml:"session"`
	Limits     `yaml:"limits"`
	Metrics    `yaml:"metrics"`

	CSRFKey     string `yaml:"csrf_key" env:"CSRF_KEY" env-required:"true"`
	AuditEvents bool   `yaml:"audit_events" env:"AUDIT_EVENTS"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
	TrustProxy      bool          `yaml:"trust_proxy" env:"TRUST_PROXY"`
}

// Postgres is optional; an empty DSN selects the in-memory store.
type Postgres struct {
	DSN         string `yaml:"dsn" env:"DATABASE_DSN"`
	SkipMigrate bool   `yaml:"skip_migrate" env:"SKIP_MIGRATE"`
}

// Redis is optional; without it limiter counters live in process and logout
// revocation is unavailable.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// SMTP is optional; an empty host logs codes instead of mailing them.
type SMTP struct {
	Host            string        `yaml:"host" env:"SMTP_HOST"`
	Port            int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username        string        `yaml:"username" env:"SMTP_USERNAME"`
	Password        string        `yaml:"password" env:"SMTP_PASSWORD"`
	From            string        `yaml:"from" env:"SMTP_FROM"`
	FromName        string        `yaml:"from_name" env-default:"Incident Reporter"`
	InsecureSkipTLS bool          `yaml:"insecure_skip_tls"`
	SendTimeout     time.Duration `yaml:"send_timeout" env-default:"15s"`
	DispatchWait    time.Duration `yaml:"dispatch_wait" env-default:"10s"`
}

// Boolean settings default to false; cleanenv cannot tell an explicit false
// from an unset field, so each flag is phrased as the non-default choice.
type Session struct {
	SigningKey     string        `yaml:"signing_key" env:"SESSION_SIGNING_KEY" env-required:"true"`
	TTL            time.Duration `yaml:"ttl" env-default:"24h"`
	InsecureCookie bool          `yaml:"insecure_cookie" env:"INSECURE_COOKIE"`
	RevokeOnLogout bool          `yaml:"revoke_on_logout"`
}

type Limits struct {
	LoginMaxAttempts    int           `yaml:"login_max_attempts" env-default:"5"`
	LoginWindow         time.Duration `yaml:"login_window" env-default:"15m"`
	RegisterMaxAttempts int           `yaml:"register_max_attempts" env-default:"10"`
	RegisterWindow      time.Duration `yaml:"register_window" env-default:"1h"`
}

type Metrics struct {
	Disabled bool   `yaml:"disabled" env:"METRICS_DISABLED"`
	Path     string `yaml:"path" env-default:"/metrics"`
	Latency  bool   `yaml:"latency"`
	// OTel installs an SDK meter provider as the global one, registers the
	// counters on it and serves its collected view as JSON at OTelPath.
	OTel     bool   `yaml:"otel"`
	OTelPath string `yaml:"otel_path" env-default:"/metrics/otel"`
}

// Path returns the config file path from -config, falling back to CONFIG_PATH.
// Both may be empty; the service then reads the environment only.
func Path() string {
	var p string
	flag.StringVar(&p, "config", "", "path to the YAML config file")
	flag.Parse()
	if p == "" {
		p = os.Getenv("CONFIG_PATH")
	}
	return p
}

// Load reads path (when set) and applies environment overrides.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: config file: %w", op, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad is [Load] that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Engine translates the service settings onto the engine defaults.
func (c *Config) Engine() reporterAuth.Config {
	ec := reporterAuth.DefaultConfig()

	ec.Session.SigningKey = []byte(c.Session.SigningKey)
	ec.Session.TTL = c.Session.TTL
	ec.Session.CookieSecure = !c.Session.InsecureCookie
	ec.Session.RevokeOnLogout = c.Session.RevokeOnLogout

	ec.RateLimit.LoginMaxAttempts = c.Limits.LoginMaxAttempts
	ec.RateLimit.LoginWindow = c.Limits.LoginWindow
	ec.RateLimit.RegisterMaxAttempts = c.Limits.RegisterMaxAttempts
	ec.RateLimit.RegisterWindow = c.Limits.RegisterWindow

	ec.Mail.SendTimeout = c.SMTP.SendTimeout
	ec.Mail.DispatchWait = c.SMTP.DispatchWait

	ec.Audit.Enabled = c.AuditEvents
	ec.Metrics.Enabled = !c.Metrics.Disabled
	ec.Metrics.EnableLatencyHistograms = c.Metrics.Latency

	return ec
}
