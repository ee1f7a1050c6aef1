// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Organization delete modes.
const (
	// OrgDeleteForbid rejects deleting an organization that still owns contracts.
	OrgDeleteForbid = "forbid"
	// OrgDeleteCascade deletes the organization's contracts first.
	OrgDeleteCascade = "cascade"
)

// Policy engines.
const (
	PolicyEngineStatic = "static"
	PolicyEngineOPA    = "opa"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address of the JSON API (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health service (e.g. :9090).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Empty selects in-memory repositories.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// DBMaxConns caps the Postgres pool size.
	DBMaxConns int32 `mapstructure:"DB_MAX_CONNS"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "240h").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// PolicyEngine selects the role policy evaluator: "static" or "opa".
	PolicyEngine string `mapstructure:"POLICY_ENGINE"`
	// PolicyFile is an optional Rego file replacing the built-in policy (opa only).
	PolicyFile string `mapstructure:"POLICY_FILE"`
	// OrgDeleteMode is "forbid" or "cascade".
	OrgDeleteMode string `mapstructure:"ORG_DELETE_MODE"`
	// CORSAllowedOrigins is a comma-separated origin list.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// OTLPEndpoint is the OTLP gRPC collector; empty disables export.
	OTLPEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTELServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "contract-rbac")
	v.SetDefault("JWT_AUDIENCE", "contract-rbac-api")
	v.SetDefault("JWT_ACCESS_TTL", "240h") // 10d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("POLICY_ENGINE", PolicyEngineStatic)
	v.SetDefault("POLICY_FILE", "")
	v.SetDefault("ORG_DELETE_MODE", OrgDeleteForbid)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "contract-rbac")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.DBMaxConns < 0 {
		return errors.New("config: DB_MAX_CONNS must not be negative")
	}

	c.PolicyEngine = strings.ToLower(strings.TrimSpace(c.PolicyEngine))
	if c.PolicyEngine != PolicyEngineStatic && c.PolicyEngine != PolicyEngineOPA {
		return fmt.Errorf("config: POLICY_ENGINE must be %q or %q", PolicyEngineStatic, PolicyEngineOPA)
	}
	if c.PolicyFile != "" && c.PolicyEngine != PolicyEngineOPA {
		return errors.New("config: POLICY_FILE requires POLICY_ENGINE=opa")
	}

	c.OrgDeleteMode = strings.ToLower(strings.TrimSpace(c.OrgDeleteMode))
	if c.OrgDeleteMode != OrgDeleteForbid && c.OrgDeleteMode != OrgDeleteCascade {
		return fmt.Errorf("config: ORG_DELETE_MODE must be %q or %q", OrgDeleteForbid, OrgDeleteCascade)
	}

	if (c.JWTPrivateKey == "") != (c.JWTPublicKey == "") {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if c.IsProduction() && c.JWTPrivateKey == "" {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when APP_ENV=production")
	}
	if _, err := time.ParseDuration(c.JWTAccessTTL); err != nil {
		return fmt.Errorf("config: JWT_ACCESS_TTL: %w", err)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 240h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 240 * time.Hour
	}
	return d
}

// AllowedOrigins returns CORS origins from the comma-separated config.
func (c *Config) AllowedOrigins() []string {
	if c == nil || strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
