package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PLANNING_APP_ENV" required:"true"`
	Port         string `envconfig:"PLANNING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PLANNING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLANNING_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PLANNING_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PLANNING_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PLANNING_DB_DSN"`
	Driver string `envconfig:"PLANNING_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PLANNING_DB_HOST"`
	LegacyPort     int    `envconfig:"PLANNING_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PLANNING_DB_USER"`
	LegacyPassword string `envconfig:"PLANNING_DB_PASSWORD"`
	LegacyName     string `envconfig:"PLANNING_DB_NAME"`
	LegacySSLMode  string `envconfig:"PLANNING_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PLANNING_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PLANNING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PLANNING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PLANNING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PLANNING_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PLANNING_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PLANNING_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PLANNING_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ConcertsTopic   string `envconfig:"PLANNING_PUBSUB_CONCERTS_TOPIC" default:"concerts"`
	RehearsalsTopic string `envconfig:"PLANNING_PUBSUB_REHEARSALS_TOPIC" default:"rehearsals"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PLANNING_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PLANNING_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PLANNING_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// TopicFor returns the bus topic for a planning entity kind.
func (p PubSubConfig) TopicFor(kind string) string {
	switch kind {
	case "concert":
		return p.ConcertsTopic
	case "rehearsal":
		return p.RehearsalsTopic
	}
	return ""
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
