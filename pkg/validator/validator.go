package validator

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minEmailLength     = 3
	maxEmailLength     = 255
	minPasswordLength  = 8
	maxPasswordLength  = 128
	maxTitleLen        = 255
	maxFullNameLen     = 255
	maxFileNameLen     = 255
	maxCommentsLen     = 4000
	maxDescriptionLen  = 20000
	maxEquipmentItems  = 100
	maxEquipmentItemLn = 255
	asciiControlStart  = 32
	asciiDelete        = 127

	errEmailEmptyFmt          = "email cannot be empty"
	errEmailLengthFmt         = "email must be between %d and %d characters"
	errEmailInvalidFmt        = "invalid email format"
	errPasswordMinLengthFmt   = "password must be at least %d characters"
	errPasswordMaxLengthFmt   = "password must not exceed %d characters"
	errRequiredFmt            = "%s is required"
	errMaxLengthFmt           = "%s must not exceed %d characters"
	errControlCharsFmt        = "%s cannot contain control characters"
	errInvalidTextFmt         = "%s must be valid UTF-8 without NUL bytes"
	errFileNamePathSepFmt     = "file name cannot contain path separators"
	errFileExtensionFmt       = "file type %q is not allowed"
	errFileSizeNonPositiveFmt = "file is empty"
	errFileSizeMaxFmt         = "file size exceeds maximum of %d bytes"
	errEquipmentTooManyFmt    = "equipment_needed must not exceed %d items"
	errEquipmentItemEmptyFmt  = "equipment_needed items cannot be empty"
	errEquipmentItemLengthFmt = "equipment_needed items must not exceed %d characters"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func Email(email string) error {
	if email == "" {
		return fmt.Errorf(errEmailEmptyFmt)
	}

	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return fmt.Errorf(errEmailLengthFmt, minEmailLength, maxEmailLength)
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf(errEmailInvalidFmt)
	}

	return nil
}

func Password(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf(errPasswordMinLengthFmt, minPasswordLength)
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf(errPasswordMaxLengthFmt, maxPasswordLength)
	}

	return nil
}

// Required rejects values that are empty once surrounding whitespace is removed.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf(errRequiredFmt, field)
	}
	return nil
}

func Title(title string) error {
	if err := Required("title", title); err != nil {
		return err
	}
	return text("title", title, maxTitleLen)
}

func FullName(name string) error {
	if err := Required("full_name", name); err != nil {
		return err
	}
	return text("full_name", name, maxFullNameLen)
}

func Description(field, value string) error {
	if len(value) > maxDescriptionLen {
		return fmt.Errorf(errMaxLengthFmt, field, maxDescriptionLen)
	}
	return longText(field, value)
}

// Comments validates reviewer comments after trimming.
func Comments(comments string) error {
	trimmed := strings.TrimSpace(comments)
	if trimmed == "" {
		return fmt.Errorf(errRequiredFmt, "comments")
	}
	if len(trimmed) > maxCommentsLen {
		return fmt.Errorf(errMaxLengthFmt, "comments", maxCommentsLen)
	}
	return longText("comments", trimmed)
}

func Equipment(items []string) error {
	if len(items) > maxEquipmentItems {
		return fmt.Errorf(errEquipmentTooManyFmt, maxEquipmentItems)
	}
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf(errEquipmentItemEmptyFmt)
		}
		if len(item) > maxEquipmentItemLn {
			return fmt.Errorf(errEquipmentItemLengthFmt, maxEquipmentItemLn)
		}
	}
	return nil
}

func FileName(name string) error {
	if name == "" {
		return fmt.Errorf(errRequiredFmt, "file name")
	}

	if len(name) > maxFileNameLen {
		return fmt.Errorf(errMaxLengthFmt, "file name", maxFileNameLen)
	}

	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf(errFileNamePathSepFmt)
	}

	return text("file name", name, maxFileNameLen)
}

// FileExtension returns the lower-cased extension of name without the dot,
// or an error when it is not one of allowed.
func FileExtension(name string, allowed []string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, a := range allowed {
		if ext != "" && ext == strings.ToLower(a) {
			return ext, nil
		}
	}
	return "", fmt.Errorf(errFileExtensionFmt, ext)
}

func FileSize(size, max int64) error {
	if size <= 0 {
		return fmt.Errorf(errFileSizeNonPositiveFmt)
	}

	if max > 0 && size > max {
		return fmt.Errorf(errFileSizeMaxFmt, max)
	}

	return nil
}

func text(field, value string, max int) error {
	if len(value) > max {
		return fmt.Errorf(errMaxLengthFmt, field, max)
	}
	for _, char := range value {
		if char < asciiControlStart || char == asciiDelete {
			return fmt.Errorf(errControlCharsFmt, field)
		}
	}
	return nil
}

// longText accepts line breaks and tabs but not NUL or malformed UTF-8,
// neither of which Postgres text columns can store.
func longText(field, value string) error {
	if !utf8.ValidString(value) || strings.ContainsRune(value, 0) {
		return fmt.Errorf(errInvalidTextFmt, field)
	}
	return nil
}
