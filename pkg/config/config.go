package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	GCP     GCPConfig
	PubSub  PubSubConfig
	Outbox  OutboxConfig
	Printer PrinterConfig
	Flags   FlagsConfig
}

// Load reads every STICKERLANDIA_* variable and derives the database DSN
// when only discrete connection parts were provided.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STICKERLANDIA_APP_ENV" required:"true"`
	Port         string `envconfig:"STICKERLANDIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STICKERLANDIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STICKERLANDIA_LOG_WARN_STACK" default:"false"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `envconfig:"STICKERLANDIA_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STICKERLANDIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STICKERLANDIA_DB_DSN"`
	Driver string `envconfig:"STICKERLANDIA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STICKERLANDIA_DB_HOST"`
	Port     int    `envconfig:"STICKERLANDIA_DB_PORT" default:"5432"`
	User     string `envconfig:"STICKERLANDIA_DB_USER"`
	Password string `envconfig:"STICKERLANDIA_DB_PASSWORD"`
	Name     string `envconfig:"STICKERLANDIA_DB_NAME"`
	SSLMode  string `envconfig:"STICKERLANDIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STICKERLANDIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STICKERLANDIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STICKERLANDIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STICKERLANDIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STICKERLANDIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STICKERLANDIA_REDIS_ADDR"`
	Password     string        `envconfig:"STICKERLANDIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"STICKERLANDIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STICKERLANDIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STICKERLANDIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STICKERLANDIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STICKERLANDIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STICKERLANDIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STICKERLANDIA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STICKERLANDIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STICKERLANDIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PrintersTopic  string `envconfig:"STICKERLANDIA_PUBSUB_PRINTERS_TOPIC" default:"printers-events"`
	PrintJobsTopic string `envconfig:"STICKERLANDIA_PUBSUB_PRINT_JOBS_TOPIC" default:"print-jobs-events"`
}

type OutboxConfig struct {
	BatchSize        int `envconfig:"STICKERLANDIA_OUTBOX_BATCH_SIZE" default:"100"`
	PollIntervalMS   int `envconfig:"STICKERLANDIA_OUTBOX_POLL_MS" default:"500"`
	PublishTimeoutMS int `envconfig:"STICKERLANDIA_OUTBOX_PUBLISH_TIMEOUT_MS" default:"15000"`
	MetricsPort      int `envconfig:"STICKERLANDIA_OUTBOX_METRICS_PORT" default:"9090"`
}

// PollInterval returns the idle delay between publisher passes.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

// PublishTimeout returns the per-item publish timeout.
func (o OutboxConfig) PublishTimeout() time.Duration {
	if o.PublishTimeoutMS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(o.PublishTimeoutMS) * time.Millisecond
}

type PrinterConfig struct {
	// HeartbeatWindow is how recently a printer must have polled to count as online.
	HeartbeatWindow time.Duration `envconfig:"STICKERLANDIA_PRINTER_HEARTBEAT_WINDOW" default:"2m"`
	MaxClaimJobs    int           `envconfig:"STICKERLANDIA_PRINTER_MAX_CLAIM_JOBS" default:"25"`
}

type FlagsConfig struct {
	AutoMigrate bool `envconfig:"STICKERLANDIA_AUTO_MIGRATE" default:"false"`
}

// ensureDSN leaves an explicit DSN alone, otherwise assembles one from the
// discrete host/user/name parts and reports which of them are missing.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for _, part := range []struct{ env, value string }{
		{EnvDBHost, db.Host},
		{EnvDBUser, db.User},
		{EnvDBName, db.Name},
	} {
		if part.value == "" {
			missing = append(missing, part.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{db.SSLMode}}.Encode()
	}

	db.DSN = u.String()
	return nil
}
