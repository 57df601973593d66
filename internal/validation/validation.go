// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength = 5
	UsernameMaxLength = 20
	PasswordMinLength = 8
	PasswordMaxLength = 10
	BioMaxLength      = 500
	LocationMaxLength = 100
	PostMaxLength     = 5000
	CommentMaxLength  = 2000
	MaxTags           = 10
	TagMaxLength      = 30
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return fmt.Errorf("username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)
	}
	if strings.TrimSpace(username) != username {
		return fmt.Errorf("username cannot start or end with whitespace")
	}
	return nil
}

// ValidateEmail checks the address format. Callers normalize first.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword checks the password length bounds.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return fmt.Errorf("password must be between %d and %d characters", PasswordMinLength, PasswordMaxLength)
	}
	return nil
}

// ValidateProfile checks optional profile text fields.
func ValidateProfile(bio, location string) error {
	if utf8.RuneCountInString(bio) > BioMaxLength {
		return fmt.Errorf("bio must not exceed %d characters", BioMaxLength)
	}
	if utf8.RuneCountInString(location) > LocationMaxLength {
		return fmt.Errorf("location must not exceed %d characters", LocationMaxLength)
	}
	return nil
}

// RequireFields returns an error naming the first blank field.
// fields alternates name, value.
func RequireFields(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			return fmt.Errorf("%s is required", fields[i])
		}
	}
	return nil
}

// ValidateContent checks the length of post or comment text.
func ValidateContent(kind, content string, max int) error {
	if utf8.RuneCountInString(content) > max {
		return fmt.Errorf("%s must not exceed %d characters", kind, max)
	}
	return nil
}

// NormalizeTags trims tags, drops blanks and duplicates, and rejects
// commas since tags are stored comma-joined.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if strings.Contains(t, ",") {
			return nil, fmt.Errorf("tags cannot contain commas")
		}
		if utf8.RuneCountInString(t) > TagMaxLength {
			return nil, fmt.Errorf("tags must not exceed %d characters", TagMaxLength)
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("a post can have at most %d tags", MaxTags)
	}
	return out, nil
}
