package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string        `env:"ADDR, default=:8080"`
	JWTSigningKey string        `env:"JWT_SIGNING_KEY, default=dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"JWT_ISSUER, default=domainreg"`
	JWTAudience   string        `env:"JWT_AUDIENCE, default=domainreg-registrars"`
	AdminToken    string        `env:"ADMIN_TOKEN"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE, default=10s"`
}

type PostgresConfig struct {
	DSN          string        `env:"DSN"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS, default=20"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS, default=5"`
	ConnMaxLife  time.Duration `env:"CONN_MAX_LIFETIME, default=30m"`
}

type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE, default=10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS, default=2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

type KafkaConfig struct {
	Brokers    []string `env:"BROKERS"`
	DNSTopic   string   `env:"DNS_TOPIC, default=domainreg.dns-refresh"`
	Partitions int32    `env:"PARTITIONS, default=3"`
	Replicas   int16    `env:"REPLICAS, default=1"`
}

type RegistryConfig struct {
	TLDFile          string        `env:"TLD_FILE, default=config/tlds.yaml"`
	RegistrarL1TTL   time.Duration `env:"REGISTRAR_L1_TTL, default=30s"`
	RegistrarL2TTL   time.Duration `env:"REGISTRAR_L2_TTL, default=5m"`
	RelayInterval    time.Duration `env:"DNS_RELAY_INTERVAL, default=5s"`
	RelayBatchSize   int           `env:"DNS_RELAY_BATCH, default=100"`
	StoreLockTimeout time.Duration `env:"STORE_LOCK_TIMEOUT, default=5s"`
}

type Config struct {
	Server   Server         `env:",prefix=DOMAINREG_"`
	Postgres PostgresConfig `env:",prefix=DOMAINREG_POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=DOMAINREG_REDIS_"`
	Kafka    KafkaConfig    `env:",prefix=DOMAINREG_KAFKA_"`
	Registry RegistryConfig `env:",prefix=DOMAINREG_"`
	LogLevel string         `env:"DOMAINREG_LOG_LEVEL, default=info"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Kafka.DNSTopic == "" {
		return nil, fmt.Errorf("load config: kafka DNS topic must not be empty")
	}
	return &cfg, nil
}
