package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FREIGHTLINE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FREIGHTLINE_DB_DSN"
	EnvDBHost = "FREIGHTLINE_DB_HOST"
	EnvDBUser = "FREIGHTLINE_DB_USER"
	EnvDBName = "FREIGHTLINE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Evidence     EvidenceConfig
	Pod          PodConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FREIGHTLINE_APP_ENV" required:"true"`
	Port         string   `envconfig:"FREIGHTLINE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"FREIGHTLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FREIGHTLINE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FREIGHTLINE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FREIGHTLINE_DB_DSN"`
	Driver string `envconfig:"FREIGHTLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FREIGHTLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"FREIGHTLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FREIGHTLINE_DB_USER"`
	LegacyPassword string `envconfig:"FREIGHTLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FREIGHTLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FREIGHTLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FREIGHTLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FREIGHTLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FREIGHTLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREIGHTLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREIGHTLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FREIGHTLINE_REDIS_ADDR"`
	Password     string        `envconfig:"FREIGHTLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREIGHTLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREIGHTLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREIGHTLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREIGHTLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREIGHTLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREIGHTLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FREIGHTLINE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FREIGHTLINE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FREIGHTLINE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StorageConfig struct {
	BucketName        string        `envconfig:"FREIGHTLINE_STORAGE_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"FREIGHTLINE_STORAGE_DOWNLOAD_URL_EXPIRY" default:"15m"`
	CredentialsJSON   string        `envconfig:"FREIGHTLINE_STORAGE_CREDENTIALS_JSON"`
}

type EvidenceConfig struct {
	MaxUploadBytes int64 `envconfig:"FREIGHTLINE_EVIDENCE_MAX_UPLOAD_BYTES" default:"10485760"`
}

type PodConfig struct {
	GenerateLockTTL time.Duration `envconfig:"FREIGHTLINE_POD_GENERATE_LOCK_TTL" default:"30s"`
}

// RateLimitConfig bounds mutating requests per actor per fixed window.
// A zero window or limit disables throttling.
type RateLimitConfig struct {
	Window time.Duration `envconfig:"FREIGHTLINE_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"FREIGHTLINE_RATE_LIMIT_MUTATIONS" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FREIGHTLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FREIGHTLINE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
