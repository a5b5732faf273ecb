package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/service/user"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	// If empty, data is kept in memory and lost on restart
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Balance of the savings account opened on registration
	InitialBalance decimal.Decimal

	// Admin to create (or promote) on start
	// Both have to be set or both empty
	AdminLogin    string
	AdminPassword string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		InitialBalance: user.DefaultInitialBalance,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDecimal := func(o *decimal.Decimal) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := decimal.NewFromString(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":     setString(&c.ListenAddr),
		"DATABASE_URI":    setString(&c.DatabaseDSN),
		"SECRET_KEY":      setString(&c.SecretKey),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
		"INITIAL_BALANCE": setDecimal(&c.InitialBalance),
		"ADMIN_LOGIN":     setString(&c.AdminLogin),
		"ADMIN_PASSWORD":  setString(&c.AdminPassword),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("digibank", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string (in-memory storage if empty)")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.VarP((*decimalValue)(&c.InitialBalance), "initial-balance", "b", "Balance of the account opened on registration")
	fs.StringVar(&c.AdminLogin, "admin-login", c.AdminLogin, "Admin username to ensure on start")
	fs.StringVar(&c.AdminPassword, "admin-password", c.AdminPassword, "Admin password")

	return fs.Parse(args)
}

// Check options that can't be defaulted
func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required"))
	}
	if c.InitialBalance.IsNegative() {
		errs = append(errs, fmt.Errorf("initial balance %s is negative", c.InitialBalance))
	}
	if c.InitialBalance.GreaterThan(models.MaxBalance) {
		errs = append(errs, fmt.Errorf("initial balance %s is above %s", c.InitialBalance, models.MaxBalance))
	}
	if (c.AdminLogin == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("admin login and password have to be set together"))
	}

	return errors.Join(errs...)
}

// pflag.Value over decimal.Decimal
type decimalValue decimal.Decimal

func (v *decimalValue) String() string {
	return decimal.Decimal(*v).String()
}

func (v *decimalValue) Set(value string) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return err
	}
	*v = decimalValue(d)
	return nil
}

func (v *decimalValue) Type() string {
	return "decimal"
}
