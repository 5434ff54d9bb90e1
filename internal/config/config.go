// Package config provides functionality for managing configuration options
// for the application using command-line flags, environment variables and
// an optional JSON or YAML config file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address" yaml:"address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// JWTSecret signs and verifies session tokens.
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`

	// Production enables the Secure attribute on session cookies.
	Production bool `json:"production" yaml:"production"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// BcryptCost is the password hashing work factor.
	BcryptCost int `json:"bcrypt_cost" yaml:"bcrypt_cost"`

	// Config is the path to the config file.
	Config string `json:"-" yaml:"-"`
}

// Default returns Options populated with built-in defaults.
func Default() *Options {
	return &Options{
		Address:    "localhost:8080",
		LogLevel:   "info",
		BcryptCost: DefaultBcryptCost,
	}
}

// BindFlags declares every option on fs, using o's current values as defaults.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Address, "address", "a", o.Address, "run on ip:port server")
	fs.StringVarP(&o.DatabaseDSN, "database-dsn", "d", o.DatabaseDSN, "db address")
	fs.StringVarP(&o.JWTSecret, "jwt-secret", "s", o.JWTSecret, "token signing secret")
	fs.BoolVar(&o.Production, "production", o.Production, "production mode (secure cookies)")
	fs.StringVar(&o.TLSCert, "tls-cert", o.TLSCert, "path to TLS certificate")
	fs.StringVar(&o.TLSKey, "tls-key", o.TLSKey, "path to TLS private key")
	fs.StringVarP(&o.LogLevel, "log-level", "l", o.LogLevel, "log level")
	fs.IntVar(&o.BcryptCost, "bcrypt-cost", o.BcryptCost, "bcrypt work factor")
	fs.StringVarP(&o.Config, "config", "c", o.Config, "path to config file")
}

// Load resolves the final configuration after fs has been parsed.
// Precedence, lowest first: defaults, config file, environment, explicit flags.
// A missing .env file is not an error.
func Load(fs *pflag.FlagSet) (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	flagged := Default()
	if fs != nil {
		flagged = fromFlags(fs)
	}

	options := Default()

	path := flagged.Config
	if env := os.Getenv("CONFIG"); env != "" && !changed(fs, "config") {
		path = env
	}
	if path != "" {
		if err := options.readFile(path); err != nil {
			return nil, err
		}
	}
	options.Config = path

	if err := options.applyEnv(); err != nil {
		return nil, err
	}

	if fs != nil {
		fs.Visit(func(f *pflag.Flag) {
			options.copyFlag(flagged, f.Name)
		})
	}
	return options, nil
}

// Validate reports configuration that the server cannot start with.
func (o *Options) Validate() error {
	var errs []error
	if o.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls-cert and tls-key must be set together"))
	}
	return errors.Join(errs...)
}

// fromFlags reads the parsed values out of fs.
func fromFlags(fs *pflag.FlagSet) *Options {
	o := Default()
	o.Address, _ = fs.GetString("address")
	o.DatabaseDSN, _ = fs.GetString("database-dsn")
	o.JWTSecret, _ = fs.GetString("jwt-secret")
	o.Production, _ = fs.GetBool("production")
	o.TLSCert, _ = fs.GetString("tls-cert")
	o.TLSKey, _ = fs.GetString("tls-key")
	o.LogLevel, _ = fs.GetString("log-level")
	o.BcryptCost, _ = fs.GetInt("bcrypt-cost")
	o.Config, _ = fs.GetString("config")
	return o
}

func changed(fs *pflag.FlagSet, name string) bool {
	return fs != nil && fs.Changed(name)
}

func (o *Options) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, o)
	default:
		err = json.Unmarshal(data, o)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func (o *Options) applyEnv() error {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		o.Address = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		o.JWTSecret = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		o.Production = strings.EqualFold(v, "production")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		o.BcryptCost = cost
	}
	return nil
}

func (o *Options) copyFlag(src *Options, name string) {
	switch name {
	case "address":
		o.Address = src.Address
	case "database-dsn":
		o.DatabaseDSN = src.DatabaseDSN
	case "jwt-secret":
		o.JWTSecret = src.JWTSecret
	case "production":
		o.Production = src.Production
	case "tls-cert":
		o.TLSCert = src.TLSCert
	case "tls-key":
		o.TLSKey = src.TLSKey
	case "log-level":
		o.LogLevel = src.LogLevel
	case "bcrypt-cost":
		o.BcryptCost = src.BcryptCost
	}
}
