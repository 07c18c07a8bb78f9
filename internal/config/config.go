package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Database holds the Postgres connection settings shared by every API.
// Nothing here is required: a missing host or user only shows up when the
// pool first tries to connect.
type Database struct {
	Host           string        `envconfig:"DB_HOST"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER"`
	Password       string        `envconfig:"DB_PASSWORD"`
	Name           string        `envconfig:"DB_NAME"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"prefer"`
	MaxConns       int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	IdleTimeout    time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"30s"`
	AcquireTimeout time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// ConnString renders the settings as a keyword/value DSN understood by pgx.
// Empty values are left out so libpq defaults (PGHOST, PGUSER, ...) apply.
func (d Database) ConnString() string {
	var parts []string
	add := func(k, v string) {
		if v == "" {
			return
		}
		parts = append(parts, k+"="+quoteDSNValue(v))
	}
	add("host", d.Host)
	if d.Port > 0 {
		add("port", strconv.Itoa(d.Port))
	}
	add("user", d.User)
	add("password", d.Password)
	add("dbname", d.Name)
	add("sslmode", d.SSLMode)
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

type Server struct {
	Port            string        `envconfig:"PORT"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	CORSOrigin      string        `envconfig:"CORS_ALLOWED_ORIGIN" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type Frontend struct {
	Target string `envconfig:"FRONTEND_TARGET" default:"production"`
}

// Config is everything an API process reads from its environment.
type Config struct {
	Server   Server
	Database Database
}

// LoadDotEnv loads the given files (".env" when none are named) into the
// process environment. Variables that are already set win, and missing files
// are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the API configuration. defaultPort is used when PORT is unset.
func Load(defaultPort string) (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return Config{}, fmt.Errorf("config: server: %w", err)
	}
	db, err := LoadDatabase()
	if err != nil {
		return Config{}, err
	}
	cfg.Database = db

	if cfg.Server.Port == "" {
		cfg.Server.Port = defaultPort
	}
	return cfg, nil
}

// LoadDatabase decodes only the DB_* variables.
func LoadDatabase() (Database, error) {
	var db Database
	if err := envconfig.Process("", &db); err != nil {
		return Database{}, fmt.Errorf("config: database: %w", err)
	}
	if db.MaxConns <= 0 {
		return Database{}, errors.New("config: DB_MAX_CONNS must be positive")
	}
	return db, nil
}

// LoadFrontend reads the front-end server settings.
func LoadFrontend(defaultPort string) (Server, Frontend, error) {
	if err := LoadDotEnv(); err != nil {
		return Server{}, Frontend{}, err
	}
	var srv Server
	if err := envconfig.Process("", &srv); err != nil {
		return Server{}, Frontend{}, fmt.Errorf("config: server: %w", err)
	}
	if srv.Port == "" {
		srv.Port = defaultPort
	}
	var fe Frontend
	if err := envconfig.Process("", &fe); err != nil {
		return Server{}, Frontend{}, fmt.Errorf("config: frontend: %w", err)
	}
	return srv, fe, nil
}
