package config

import "fmt"

const (
	errRequiredEnvNotSetFmt    = "required environment variable %s is not set"
	errPortRequiredFmt         = "PORT must be set"
	errUnknownStoreDriverFmt   = "STORE_DRIVER must be postgres or memory, got %q"
	errDBConnsRangeFmt         = "DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)"
	errAWSKeyPairFmt           = "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropyFmt  = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errNonPositiveFmt          = "%s must be positive"
	errBootstrapPairFmt        = "BOOTSTRAP_DIRECTOR_EMAIL and BOOTSTRAP_DIRECTOR_PASSWORD must be set together"
	errMailPairFmt             = "MAIL_FROM requires RESEND_API_KEY or SENDGRID_API_KEY, and a provider key requires MAIL_FROM"
	errInvalidLogLevelFmt      = "LOG_LEVEL must be one of debug, info, warn, error, got %q"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type messageBuilders struct {
	requiredEnvNotSet func(string) string
}

func newMessageBuilders() messageBuilders {
	return messageBuilders{
		requiredEnvNotSet: func(key string) string {
			return fmt.Sprintf(errRequiredEnvNotSetFmt, key)
		},
	}
}

var messages = newMessageBuilders()
