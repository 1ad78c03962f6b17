package fields

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the single configuration struct for pushgate, loaded from a yaml
// file with environment overrides for the secret-bearing fields.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	PublicURL string `yaml:"public_url"`
	LogLevel  string `yaml:"log_level"`

	DatabasePath string `yaml:"database_path"`
	RedisURL     string `yaml:"redis_url"`

	// Multitenant selects the tenant-resolution and management-auth strategy
	// at startup. Single-tenant deployments serve one implicit tenant built
	// from the Tenant section below.
	Multitenant        bool   `yaml:"multitenant"`
	ValidateSignatures bool   `yaml:"validate_signatures"`
	JWTSecret          string `yaml:"jwt_secret"`

	AnalyticsEnabled  bool   `yaml:"analytics_enabled"`
	GeoIPDatabasePath string `yaml:"geoip_database_path"`

	RateLimit RateLimitConfig    `yaml:"rate_limit"`
	Tenant    SingleTenantConfig `yaml:"tenant"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// SingleTenantConfig carries the vendor credentials of the implicit default
// tenant. A vendor is enabled by supplying its credentials.
type SingleTenantConfig struct {
	FCMCredentials string         `yaml:"fcm_credentials"`
	APNS           APNSAuthConfig `yaml:"apns"`
	NoopEnabled    bool           `yaml:"noop_enabled"`
}

type APNSAuthConfig struct {
	Type   APNSCertType `yaml:"type"`
	Topic  string       `yaml:"topic"`
	KeyID  string       `yaml:"key_id"`
	TeamID string       `yaml:"team_id"`
	P8Key  string       `yaml:"p8_key"`
}

// LoadConfig reads the yaml file at path and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PUSHGATE_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("PUSHGATE_FCM_CREDENTIALS"); v != "" {
		c.Tenant.FCMCredentials = v
	}
	if v := os.Getenv("PUSHGATE_APNS_P8_KEY"); v != "" {
		c.Tenant.APNS.P8Key = v
	}
	if v := os.Getenv("PUSHGATE_REDIS_URL"); v != "" {
		c.RedisURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 3000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "pushgate.db"
	}
	if c.Tenant.APNS.Type == "" {
		c.Tenant.APNS.Type = APNSTypeToken
	}
}

// SupportedProviders reports which vendors the single-tenant deployment can
// reach, derived from credential presence. Startup fails when the list is
// empty in single-tenant mode.
func (c Config) SupportedProviders() ProviderKinds {
	var kinds ProviderKinds
	if c.Tenant.FCMCredentials != "" {
		kinds = append(kinds, ProviderFCM)
	}
	if c.Tenant.APNS.P8Key != "" && c.Tenant.APNS.KeyID != "" && c.Tenant.APNS.TeamID != "" {
		kinds = append(kinds, ProviderAPNS)
	}
	if c.Tenant.NoopEnabled {
		kinds = append(kinds, ProviderNoop)
	}
	return kinds
}

// DefaultTenant materializes the implicit tenant served in single-tenant mode.
func (c Config) DefaultTenant() Tenant {
	return Tenant{
		ID:               DefaultTenantID,
		EnabledProviders: c.SupportedProviders(),
		FCMCredentials:   c.Tenant.FCMCredentials,
		APNSType:         c.Tenant.APNS.Type,
		APNSTopic:        c.Tenant.APNS.Topic,
		APNSKeyID:        c.Tenant.APNS.KeyID,
		APNSTeamID:       c.Tenant.APNS.TeamID,
		APNSKeyP8:        c.Tenant.APNS.P8Key,
	}
}
