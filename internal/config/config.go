package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const defaultAllowedOrigin = "http://localhost:5173"

type Config struct {
	Server Server `yaml:"server"`

	Database Database `yaml:"database"`

	JWT JWT `yaml:"jwt"`

	CORS CORS `yaml:"cors"`

	Logger Logger `yaml:"logger"`

	Redis Redis `yaml:"redis"`

	LoginLimit LoginLimit `yaml:"login_limit"`

	Telemetry Telemetry `yaml:"telemetry"`

	Receipt Receipt `yaml:"receipt"`

	Reports Reports `yaml:"reports"`
}

type Server struct {
	Address         string `yaml:"address"`
	Mode            string `yaml:"mode"`
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // In Seconds
}

type JWT struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // In Hours
}

type Database struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the connection URL, preferring an explicit URL over the
// individual fields.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAge         int      `yaml:"max_age"`
}

type Logger struct {
	Mode       string `yaml:"mode"` // production | development
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoginLimit struct {
	MaxAttempts int `yaml:"max_attempts"`
	Window      int `yaml:"window"` // In Minutes
}

func (l LoginLimit) WindowDuration() time.Duration {
	return time.Duration(l.Window) * time.Minute
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type Receipt struct {
	StoreName string `yaml:"store_name"`
	Address   string `yaml:"address"`
	Contact   string `yaml:"contact"`
	TIN       string `yaml:"tin"`
}

type Reports struct {
	Location       string `yaml:"location"`
	DailyCloseCron string `yaml:"daily_close_cron"`
}

// LoadLocation resolves the time zone that calendar periods are cut in
func (r Reports) LoadLocation() (*time.Location, error) {
	return time.LoadLocation(r.Location)
}

// Load reads the YAML file named by CONFIG_PATH (configs/development.yaml by
// default) and applies environment overrides. A missing file is not an
// error when CONFIG_PATH is unset; defaults and the environment are used.
func Load() (*Config, error) {
	configPath := "configs/development.yaml"
	envPath := os.Getenv("CONFIG_PATH")
	if envPath != "" {
		configPath = envPath
	}

	cfg := Default()

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && envPath == "":
	default:
		return nil, err
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Server: Server{
			Address:         ":3000",
			Mode:            "development",
			ShutdownTimeout: 10,
		},
		Database: Database{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "pos",
			SSLMode: "disable",
		},
		JWT: JWT{ExpiresIn: 24},
		CORS: CORS{
			AllowedOrigins: []string{defaultAllowedOrigin},
			MaxAge:         600,
		},
		Logger: Logger{Mode: "development", Filename: "logs/pos-service.log"},
		LoginLimit: LoginLimit{
			MaxAttempts: 5,
			Window:      15,
		},
		Telemetry: Telemetry{ServiceName: "pos-service"},
		Receipt: Receipt{
			StoreName: "Store POS",
			Address:   "123 ST, City, Country",
			Contact:   "(555) 123-4567",
			TIN:       "000-000-000-000 VAT REG",
		},
		Reports: Reports{
			Location:       "Local",
			DailyCloseCron: "55 23 * * *",
		},
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Address = ":" + strings.TrimPrefix(port, ":")
	}
	if url := getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if secret := getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if origin := getenv("ALLOWED_ORIGIN"); origin != "" {
		c.CORS.AllowedOrigins = strings.Split(origin, ",")
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if mode := getenv("LOG_MODE"); mode != "" {
		c.Logger.Mode = mode
	}
}

// Validate reports configuration that would make the service unsafe to run.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (set jwt.secret or JWT_SECRET)")
	}
	if c.JWT.ExpiresIn <= 0 {
		return errors.New("jwt expires_in must be positive")
	}
	if _, err := c.Reports.LoadLocation(); err != nil {
		return fmt.Errorf("invalid reports location %q: %w", c.Reports.Location, err)
	}
	return nil
}
