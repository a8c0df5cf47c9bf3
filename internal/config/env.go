package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Env struct {
	AppAddr string `yaml:"app_addr"`
	GinMode string `yaml:"gin_mode"`

	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBName     string `yaml:"db_name"`

	JWTSecret          string   `yaml:"jwt_secret"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// StoreTimeout bounds every persistent-store call made by a request.
	StoreTimeout time.Duration `yaml:"store_timeout"`
	// LocationFreshness is how old a bus position may be and still be shown.
	LocationFreshness time.Duration `yaml:"location_freshness"`
	Timezone          string        `yaml:"timezone"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

const (
	DefaultAppAddr           = ":8080"
	DefaultStoreTimeout      = 5 * time.Second
	DefaultLocationFreshness = 15 * time.Minute
)

func defaults() Env {
	return Env{
		AppAddr:           DefaultAppAddr,
		DBUser:            "root",
		DBHost:            "127.0.0.1:3306",
		DBName:            "bus_booking",
		JWTSecret:         "change-me",
		StoreTimeout:      DefaultStoreTimeout,
		LocationFreshness: DefaultLocationFreshness,
		LogLevel:          "info",
		LogFormat:         "text",
		CORSAllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
	}
}

// LoadEnv builds configuration from defaults, then the YAML file (if any), then environment variables.
// configFile may be empty; CONFIG_FILE is consulted in that case.
func LoadEnv(configFile string) (Env, error) {
	env := defaults()

	if strings.TrimSpace(configFile) == "" {
		configFile = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return env, fmt.Errorf("read config %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(raw, &env); err != nil {
			return env, fmt.Errorf("parse config %s: %w", configFile, err)
		}
	}

	overrideString(&env.AppAddr, "APP_ADDR")
	overrideString(&env.GinMode, "GIN_MODE")
	overrideString(&env.DBUser, "DB_USER")
	overrideString(&env.DBPassword, "DB_PASSWORD")
	overrideString(&env.DBHost, "DB_HOST")
	overrideString(&env.DBName, "DB_NAME")
	overrideString(&env.JWTSecret, "JWT_SECRET")
	overrideString(&env.Timezone, "TIMEZONE")
	overrideString(&env.LogLevel, "LOG_LEVEL")
	overrideString(&env.LogFormat, "LOG_FORMAT")

	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		env.CORSAllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSAllowedOrigins = append(env.CORSAllowedOrigins, o)
			}
		}
	}
	if err := overrideDuration(&env.StoreTimeout, "STORE_TIMEOUT"); err != nil {
		return env, err
	}
	if err := overrideDuration(&env.LocationFreshness, "LOCATION_FRESHNESS"); err != nil {
		return env, err
	}

	if env.StoreTimeout <= 0 {
		env.StoreTimeout = DefaultStoreTimeout
	}
	if env.LocationFreshness <= 0 {
		env.LocationFreshness = DefaultLocationFreshness
	}
	if _, err := env.Location(); err != nil {
		return env, err
	}
	return env, nil
}

// Location resolves the configured timezone used to interpret journey dates.
func (e Env) Location() (*time.Location, error) {
	if strings.TrimSpace(e.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// DSN renders the go-sql-driver/mysql connection string.
func (e Env) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		e.DBUser, e.DBPassword, e.DBHost, e.DBName)
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
