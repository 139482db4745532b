// Package config loads process configuration from the environment and an
// optional TOML seed file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Auth      Auth
	Storage   Storage
	Redis     RedisConfig
	Kafka     KafkaConfig
	Network   Network
	Audit     Audit
	Logging   Logging
	Treasury  Treasury
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TREASURY_ADDR"             envDefault:":8080"`
	Environment     string        `env:"TREASURY_ENV"              envDefault:"development"`
	ShutdownTimeout time.Duration `env:"TREASURY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AdminToken      string        `env:"TREASURY_ADMIN_TOKEN"`
	SeedFile        string        `env:"TREASURY_SEED_FILE"`
}

// Auth configures caller token validation.
type Auth struct {
	JWTSigningKey string        `env:"TREASURY_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"TREASURY_JWT_ISSUER"      envDefault:"treasury"`
	JWTAudience   string        `env:"TREASURY_JWT_AUDIENCE"    envDefault:"treasury-api"`
	TokenTTL      time.Duration `env:"TREASURY_TOKEN_TTL"       envDefault:"1h"`
}

// Storage selects the persistence backend.
type Storage struct {
	Driver      string        `env:"TREASURY_STORAGE"      envDefault:"memory"`
	DatabaseURL string        `env:"TREASURY_DATABASE_URL"`
	TxTimeout   time.Duration `env:"TREASURY_TX_TIMEOUT"   envDefault:"5s"`
	MaxConns    int           `env:"TREASURY_DB_MAX_CONNS" envDefault:"10"`
}

// RedisConfig configures the optional Redis skill registry and token
// revocation list. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"TREASURY_REDIS_URL"`
	PoolSize     int           `env:"TREASURY_REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"TREASURY_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"TREASURY_REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"TREASURY_REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"TREASURY_REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// KafkaConfig configures the audit pipeline. No brokers disables it.
type KafkaConfig struct {
	Brokers       []string      `env:"TREASURY_KAFKA_BROKERS"        envSeparator:","`
	AuditTopic    string        `env:"TREASURY_KAFKA_AUDIT_TOPIC"    envDefault:"treasury.audit"`
	ConsumerGroup string        `env:"TREASURY_KAFKA_CONSUMER_GROUP" envDefault:"treasury-audit-materializer"`
	ClientID      string        `env:"TREASURY_KAFKA_CLIENT_ID"      envDefault:"treasury"`
	RelayInterval time.Duration `env:"TREASURY_OUTBOX_INTERVAL"      envDefault:"1s"`
	RelayBatch    int           `env:"TREASURY_OUTBOX_BATCH"         envDefault:"100"`
}

// Network holds organization-wide settlement parameters.
type Network struct {
	FeeInverse          uint64 `env:"TREASURY_FEE_INVERSE"          envDefault:"100"`
	TreasuryAccount     string `env:"TREASURY_NETWORK_ACCOUNT"      envDefault:"network-treasury"`
	OrganizationAccount string `env:"TREASURY_ORGANIZATION_ACCOUNT" envDefault:"organization"`
}

// Audit configures the security audit buffer. Ledger events are always
// written synchronously inside their unit of work.
type Audit struct {
	SecurityBuffer int `env:"TREASURY_AUDIT_SECURITY_BUFFER" envDefault:"1024"`
	SecurityBatch  int `env:"TREASURY_AUDIT_SECURITY_BATCH"  envDefault:"100"`
}

type Logging struct {
	Level  string `env:"TREASURY_LOG_LEVEL"  envDefault:"info"`
	Format string `env:"TREASURY_LOG_FORMAT" envDefault:"json"`
}

// Treasury holds limits on the expenditure domain.
type Treasury struct {
	MaxRecipientSkills int `env:"TREASURY_MAX_RECIPIENT_SKILLS" envDefault:"32"`
}

// RateLimit bounds requests per caller and window. Zero requests leaves a
// class unthrottled.
type RateLimit struct {
	Disabled      bool          `env:"TREASURY_RATE_LIMIT_DISABLED" envDefault:"false"`
	Window        time.Duration `env:"TREASURY_RATE_LIMIT_WINDOW"   envDefault:"1m"`
	WriteRequests int           `env:"TREASURY_RATE_LIMIT_WRITES"   envDefault:"60"`
	ReadRequests  int           `env:"TREASURY_RATE_LIMIT_READS"    envDefault:"600"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = cleanBrokers(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("TREASURY_DATABASE_URL is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Network.FeeInverse == 0 {
		errs = append(errs, errors.New("TREASURY_FEE_INVERSE must be at least 1"))
	}
	if strings.TrimSpace(c.Network.TreasuryAccount) == "" || strings.TrimSpace(c.Network.OrganizationAccount) == "" {
		errs = append(errs, errors.New("network and organization accounts are required"))
	}
	if c.IsProduction() && c.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
		errs = append(errs, errors.New("TREASURY_JWT_SIGNING_KEY must be set in production"))
	}
	if c.Treasury.MaxRecipientSkills <= 0 {
		errs = append(errs, errors.New("TREASURY_MAX_RECIPIENT_SKILLS must be positive"))
	}
	if c.RateLimit.WriteRequests < 0 || c.RateLimit.ReadRequests < 0 {
		errs = append(errs, errors.New("rate limits cannot be negative"))
	}
	if !c.RateLimit.Disabled && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("TREASURY_RATE_LIMIT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// KafkaEnabled reports whether the audit pipeline should run.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// cleanBrokers trims broker addresses and drops blanks and repeats,
// keeping the first occurrence.
func cleanBrokers(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, dup := seen[v]; v == "" || dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
