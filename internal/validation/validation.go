package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a field-level validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors aggregates field-level validation errors so the web layer can
// render every failing field at once
type Errors []ValidationError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks the password complexity rule: 6 to 35 characters
// with at least one letter and one digit
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 6 || len(password) > 35 {
		return ValidationError{Field: "password", Message: "password must be between 6 and 35 characters"}
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ValidationError{Field: "password", Message: "password must contain at least one letter and one number"}
	}
	return nil
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) error {
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 25 {
		return ValidationError{Field: "username", Message: "username must be between 3 and 25 characters"}
	}
	return nil
}

// ValidateName checks a first or last name; field names the form field
func ValidateName(field, name string) error {
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 25 {
		return ValidationError{Field: field, Message: field + " must be between 2 and 25 characters"}
	}
	return nil
}

// ValidateBio checks the optional profile biography
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > 150 {
		return ValidationError{Field: "bio", Message: "bio must be at most 150 characters"}
	}
	return nil
}

// ValidateCourseTitle checks a course title
func ValidateCourseTitle(title string) error {
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if n := utf8.RuneCountInString(title); n < 5 || n > 100 {
		return ValidationError{Field: "title", Message: "title must be between 5 and 100 characters"}
	}
	return nil
}

// ValidateCourseDescription checks a course description
func ValidateCourseDescription(description string) error {
	if description == "" {
		return ValidationError{Field: "description", Message: "description is required"}
	}
	if n := utf8.RuneCountInString(description); n < 20 || n > 500 {
		return ValidationError{Field: "description", Message: "description must be between 20 and 500 characters"}
	}
	return nil
}

// ValidateLessonTitle checks a lesson title
func ValidateLessonTitle(title string) error {
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > 100 {
		return ValidationError{Field: "title", Message: "title must be at most 100 characters"}
	}
	return nil
}

// ValidateLessonContent checks lesson body content
func ValidateLessonContent(content string) error {
	if content == "" {
		return ValidationError{Field: "content", Message: "content is required"}
	}
	return nil
}

// allowedImageExts lists the upload extensions accepted by the editor
// image endpoint and the asset store
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ValidateImageExtension checks an uploaded filename against the image
// extension whitelist
func ValidateImageExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return ValidationError{Field: "file", Message: "unsupported image type"}
	}
	return nil
}
