package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                   = "PORT"
	envServerReadTimeout      = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout     = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout  = "SERVER_SHUTDOWN_TIMEOUT"
	envStoreDriver            = "STORE_DRIVER"
	envDBHost                 = "DB_HOST"
	envDBPort                 = "DB_PORT"
	envDBName                 = "DB_NAME"
	envDBUser                 = "DB_USER"
	envDBPassword             = "DB_PASSWORD"
	envDBSSLMode              = "DB_SSL_MODE"
	envDBMaxConns             = "DB_MAX_CONNS"
	envDBMinConns             = "DB_MIN_CONNS"
	envAWSRegion              = "REGION"
	envAWSAccessKeyID         = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey     = "AWS_SECRET_ACCESS_KEY"
	envResultsBucket          = "RESULTS_BUCKET"
	envResultsPublicBaseURL   = "RESULTS_PUBLIC_BASE_URL"
	envS3Endpoint             = "S3_ENDPOINT"
	envJWTSecret              = "JWT_SECRET"
	envJWTExpiry              = "JWT_EXPIRY_MINUTES"
	envMaxResultSize          = "MAX_RESULT_SIZE"
	envResultFileTypes        = "RESULT_FILE_TYPES"
	envPrincipalCacheTTL      = "PRINCIPAL_CACHE_TTL"
	envLogLevel               = "LOG_LEVEL"
	envLogFormat              = "LOG_FORMAT"
	envMetricsEnabled         = "METRICS_ENABLED"
	envProfilingEnabled       = "PROFILING_ENABLED"
	envBootstrapDirectorEmail = "BOOTSTRAP_DIRECTOR_EMAIL"
	envBootstrapDirectorPass  = "BOOTSTRAP_DIRECTOR_PASSWORD"
	envMailFrom               = "MAIL_FROM"
	envResendAPIKey           = "RESEND_API_KEY"
	envSendGridAPIKey         = "SENDGRID_API_KEY"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 60 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultStoreDriver        = StoreDriverPostgres
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "labservice"
	defaultDBUser             = "labservice_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 5
	defaultJWTExpiry          = 60 * time.Minute
	defaultMaxResultSize      = int64(50 * 1024 * 1024)
	defaultResultFileTypes    = "csv,xlsx"
	defaultPrincipalCacheTTL  = 30 * time.Second
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"
	minJWTSecretLength        = 32
	minUniqueCharsInSecret    = 16
	minRepeatedCharThreshold  = 4
	maxRepeatedChars          = 2
	listSeparator             = ","
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AWS      AWSConfig
	JWT      JWTConfig
	App      AppConfig
	Log      LogConfig
	Metrics  MetricsConfig
	Mail     MailConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ResultsBucket   string
	PublicBaseURL   string
	Endpoint        string
}

// Enabled reports whether result uploads have a bucket to go to.
func (c AWSConfig) Enabled() bool {
	return c.ResultsBucket != ""
}

type JWTConfig struct {
	Secret         string
	ExpiryDuration time.Duration
}

type AppConfig struct {
	MaxResultSize           int64
	ResultFileTypes         []string
	PrincipalCacheTTL       time.Duration
	BootstrapDirectorEmail  string
	BootstrapDirectorSecret string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	// Profiling mounts pprof under /api/debug for lab directors.
	Profiling bool
}

// MailConfig selects the email providers for notification copies. Resend is
// tried before SendGrid when both keys are set.
type MailConfig struct {
	From           string
	ResendAPIKey   string
	SendGridAPIKey string
}

func (c MailConfig) Enabled() bool {
	return c.From != ""
}

func (c MailConfig) hasProvider() bool {
	return c.ResendAPIKey != "" || c.SendGridAPIKey != ""
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv(envStoreDriver, defaultStoreDriver)),
			Host:     getEnv(envDBHost, defaultDBHost),
			Port:     getIntEnv(envDBPort, defaultDBPort),
			Database: getEnv(envDBName, defaultDBName),
			User:     getEnv(envDBUser, defaultDBUser),
			Password: os.Getenv(envDBPassword),
			SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
			MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
			MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
		},
		AWS: AWSConfig{
			Region:          os.Getenv(envAWSRegion),
			AccessKeyID:     os.Getenv(envAWSAccessKeyID),
			SecretAccessKey: os.Getenv(envAWSSecretAccessKey),
			ResultsBucket:   os.Getenv(envResultsBucket),
			PublicBaseURL:   strings.TrimRight(os.Getenv(envResultsPublicBaseURL), "/"),
			Endpoint:        os.Getenv(envS3Endpoint),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv(envJWTSecret),
			ExpiryDuration: getDurationEnv(envJWTExpiry, defaultJWTExpiry),
		},
		App: AppConfig{
			MaxResultSize:           getInt64Env(envMaxResultSize, defaultMaxResultSize),
			ResultFileTypes:         getListEnv(envResultFileTypes, defaultResultFileTypes),
			PrincipalCacheTTL:       getDurationEnv(envPrincipalCacheTTL, defaultPrincipalCacheTTL),
			BootstrapDirectorEmail:  os.Getenv(envBootstrapDirectorEmail),
			BootstrapDirectorSecret: os.Getenv(envBootstrapDirectorPass),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv(envLogLevel, defaultLogLevel)),
			Format: strings.ToLower(getEnv(envLogFormat, defaultLogFormat)),
		},
		Metrics: MetricsConfig{
			Enabled:   getBoolEnv(envMetricsEnabled, true),
			Profiling: getBoolEnv(envProfilingEnabled, false),
		},
		Mail: MailConfig{
			From:           strings.TrimSpace(os.Getenv(envMailFrom)),
			ResendAPIKey:   os.Getenv(envResendAPIKey),
			SendGridAPIKey: os.Getenv(envSendGridAPIKey),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	switch c.Database.Driver {
	case StoreDriverPostgres:
		if c.Database.Password == "" {
			return errors.New(messages.requiredEnvNotSet(envDBPassword))
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf(errDBConnsRangeFmt, c.Database.MinConns, c.Database.MaxConns)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf(errUnknownStoreDriverFmt, c.Database.Driver)
	}

	if c.AWS.Enabled() && c.AWS.Region == "" {
		return errors.New(messages.requiredEnvNotSet(envAWSRegion))
	}
	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return fmt.Errorf(errAWSKeyPairFmt)
	}

	if c.JWT.Secret == "" {
		return errors.New(messages.requiredEnvNotSet(envJWTSecret))
	}

	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.JWT.Secret) {
		return fmt.Errorf(errJWTSecretLowEntropyFmt)
	}

	if c.JWT.ExpiryDuration <= 0 {
		return fmt.Errorf(errNonPositiveFmt, envJWTExpiry)
	}

	if c.App.MaxResultSize <= 0 {
		return fmt.Errorf(errNonPositiveFmt, envMaxResultSize)
	}

	if len(c.App.ResultFileTypes) == 0 {
		return errors.New(messages.requiredEnvNotSet(envResultFileTypes))
	}

	if (c.App.BootstrapDirectorEmail == "") != (c.App.BootstrapDirectorSecret == "") {
		return fmt.Errorf(errBootstrapPairFmt)
	}

	if c.Mail.Enabled() != c.Mail.hasProvider() {
		return fmt.Errorf(errMailPairFmt)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf(errInvalidLogLevelFmt, c.Log.Level)
	}

	return nil
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	if len(charCounts) < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

// DSN renders a libpq keyword/value connection string accepted by pgx.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, lower-cased, dropping blanks
// and leading dots.
func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, item := range strings.Split(raw, listSeparator) {
		item = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(item)), ".")
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
