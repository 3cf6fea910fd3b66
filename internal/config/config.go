// Package config loads application settings from command line flags and
// environment variables (environment wins), with optional .env support.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`

	// BlobStorePath enables the local filesystem blob store when set.
	BlobStorePath string `env:"FILE_STORAGE_PATH" validate:"dirpath"`

	// S3Bucket enables the S3 blob store when set. The endpoint may point
	// at a MinIO deployment; credentials are passed statically.
	S3Bucket    string `env:"S3_PHOTO_BUCKET"`
	S3Region    string `env:"S3_REGION"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	// JWTSigningSecretKey is the base64-encoded HMAC key for access and
	// refresh tokens.
	JWTSigningSecretKey string        `env:"JWT_SIGNING_SECRET_KEY"`
	AccessTokenTTL      time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL     time.Duration `env:"REFRESH_TOKEN_TTL"`

	// Best-effort blob removal queue settings.
	RemoverQueueCapacity     int           `env:"REMOVER_QUEUE_CAPACITY"`
	DelayBetweenQueueFetches time.Duration `env:"REMOVER_QUEUE_FETCH_DELAY"`
}

func validateDirPath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("dirpath", validateDirPath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption customizes config loading, mainly for tests.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips flag.Parse so tests can call New
// repeatedly without redefining flags.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration from defaults, flags and environment.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	cfg := &Config{
		RunAddr:                  ":8080",
		LogLevel:                 "info",
		DatabaseDSN:              "",
		DBConnectionTimeout:      10 * time.Second,
		BlobStorePath:            "",
		S3Region:                 "us-east-1",
		JWTSigningSecretKey:      "c3VwZXJzZWNyZXQ=",
		AccessTokenTTL:           15 * time.Minute,
		RefreshTokenTTL:          30 * 24 * time.Hour,
		RemoverQueueCapacity:     64,
		DelayBetweenQueueFetches: time.Second,
	}

	if !options.disableFlagsParsing {
		flag.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "address and port to run server")
		flag.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "logger level")
		flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "A string with the database connection details")
		flag.StringVar(&cfg.BlobStorePath, "f", cfg.BlobStorePath, "directory for locally stored photo blobs")
		flag.StringVar(&cfg.S3Bucket, "s", cfg.S3Bucket, "S3 bucket for photo blobs")
		flag.Parse()
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	if valuesFromEnv.RunAddr != "" {
		cfg.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		cfg.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.DatabaseDSN != "" {
		cfg.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		cfg.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.BlobStorePath != "" {
		cfg.BlobStorePath = valuesFromEnv.BlobStorePath
	}

	if valuesFromEnv.S3Bucket != "" {
		cfg.S3Bucket = valuesFromEnv.S3Bucket
	}

	if valuesFromEnv.S3Region != "" {
		cfg.S3Region = valuesFromEnv.S3Region
	}

	if valuesFromEnv.S3Endpoint != "" {
		cfg.S3Endpoint = valuesFromEnv.S3Endpoint
	}

	if valuesFromEnv.S3AccessKey != "" {
		cfg.S3AccessKey = valuesFromEnv.S3AccessKey
	}

	if valuesFromEnv.S3SecretKey != "" {
		cfg.S3SecretKey = valuesFromEnv.S3SecretKey
	}

	if valuesFromEnv.JWTSigningSecretKey != "" {
		cfg.JWTSigningSecretKey = valuesFromEnv.JWTSigningSecretKey
	}

	if valuesFromEnv.AccessTokenTTL != 0 {
		cfg.AccessTokenTTL = valuesFromEnv.AccessTokenTTL
	}

	if valuesFromEnv.RefreshTokenTTL != 0 {
		cfg.RefreshTokenTTL = valuesFromEnv.RefreshTokenTTL
	}

	if valuesFromEnv.RemoverQueueCapacity != 0 {
		cfg.RemoverQueueCapacity = valuesFromEnv.RemoverQueueCapacity
	}

	if valuesFromEnv.DelayBetweenQueueFetches != 0 {
		cfg.DelayBetweenQueueFetches = valuesFromEnv.DelayBetweenQueueFetches
	}

	return cfg, cfg.validate()
}
