package logger

import (
	"regexp"
)

var (
	passwordPattern = regexp.MustCompile(`(?i)(password|passwd|pwd)[\s:=]+[^\s]+`)
	tokenPattern    = regexp.MustCompile(`(?i)(token|jwt|bearer)[\s:=]+[^\s]+`)
	secretPattern   = regexp.MustCompile(`(?i)(secret|access[_-]?key|private[_-]?key)[\s:=]+[^\s]+`)
	dsnPattern      = regexp.MustCompile(`(postgres(?:ql)?://[^:/\s]+:)[^@\s]+@`)
)

const redactedPlaceholder = "[REDACTED]"

// SanitizeLogMessage strips credentials from text that is about to be logged.
func SanitizeLogMessage(message string) string {
	message = passwordPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = tokenPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = dsnPattern.ReplaceAllString(message, "${1}"+redactedPlaceholder+"@")
	return message
}
