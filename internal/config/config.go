package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   string      `yaml:"port"`
	Env    string      `yaml:"env"`
	Mongo  MongoConfig `yaml:"mongo"`
	Auth   AuthConfig  `yaml:"auth"`
	CORS   CORSConfig  `yaml:"cors"`
	Mail   MailConfig  `yaml:"mail"`
	Cache  CacheConfig `yaml:"cache"`
	Orders OrderConfig `yaml:"orders"`
	Log    LogConfig   `yaml:"log"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Enabled reports whether relay credentials are present.
func (m MailConfig) Enabled() bool {
	return m.User != "" && m.Password != ""
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type OrderConfig struct {
	// VerifyPrices re-prices order lines from the stored variant price
	// instead of trusting the price the client submitted.
	VerifyPrices bool `yaml:"verify_prices"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Development reports whether the process runs with APP_ENV=development.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port: "5000",
		Env:  "production",
		Mongo: MongoConfig{
			Database: "PolliAhaarDB",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		CORS: CORSConfig{
			Origins: []string{"http://localhost:5173", "https://polli-ahaar.web.app"},
		},
		Mail: MailConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
		Cache: CacheConfig{
			TTL: 30 * time.Second,
		},
		Orders: OrderConfig{
			VerifyPrices: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, a local .env file and the process environment, in
// that order.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// .env only exists on developer machines; hosted deployments set real env vars.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("error loading .env file:", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("APP_ENV", c.Env)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	if c.Mongo.URI == "" {
		c.Mongo.URI = atlasURI(os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_HOST"))
	}
	c.Mongo.Database = getEnv("MONGO_DB", c.Mongo.Database)

	c.Auth.Secret = getEnv("ACCESS_TOKEN", c.Auth.Secret)
	if v, ok := lookupEnv("TOKEN_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = d
	}

	if v, ok := lookupEnv("CORS_ORIGINS"); ok {
		c.CORS.Origins = splitList(v)
	}

	c.Mail.Host = getEnv("SMTP_HOST", c.Mail.Host)
	if v, ok := lookupEnv("SMTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		c.Mail.Port = port
	}
	c.Mail.User = getEnv("USER_EMAIL", c.Mail.User)
	c.Mail.Password = getEnv("USER_PASS", c.Mail.Password)

	if v, ok := lookupEnv("CATALOG_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CATALOG_CACHE_TTL: %w", err)
		}
		c.Cache.TTL = d
	}

	if v, ok := lookupEnv("VERIFY_PRICES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VERIFY_PRICES: %w", err)
		}
		c.Orders.VerifyPrices = b
	}
	return nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo uri is not set (MONGO_URI or DB_USER/DB_PASS)"))
	}
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("token secret is not set (ACCESS_TOKEN)"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if len(c.CORS.Origins) == 0 {
		errs = append(errs, errors.New("at least one cors origin is required (CORS_ORIGINS)"))
	}
	return errors.Join(errs...)
}

// atlasURI builds the hosted cluster connection string from credentials.
func atlasURI(user, pass, host string) string {
	if user == "" || pass == "" {
		return ""
	}
	if host == "" {
		host = "cluster0.i53p4.mongodb.net"
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority&appName=Cluster0",
		url.QueryEscape(user), url.QueryEscape(pass), host)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// lookupEnv treats an empty variable as unset.
func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	return value, ok && value != ""
}

func getEnv(key, fallback string) string {
	if value, ok := lookupEnv(key); ok {
		return value
	}
	return fallback
}
