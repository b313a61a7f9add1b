package validation

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "user@example.com", wantErr: false},
		{name: "valid with plus tag", email: "user+tag@example.co.uk", wantErr: false},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at sign", email: "userexample.com", wantErr: true},
		{name: "missing domain", email: "user@", wantErr: true},
		{name: "missing tld", email: "user@example", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid mixed", password: "abc123", wantErr: false},
		{name: "valid long", password: "correcthorse42battery", wantErr: false},
		{name: "empty", password: "", wantErr: true},
		{name: "too short", password: "a1b2c", wantErr: true},
		{name: "too long", password: "a1b2c3d4e5f6g7h8i9j0a1b2c3d4e5f6g7h8", wantErr: true},
		{name: "letters only", password: "abcdefg", wantErr: true},
		{name: "digits only", password: "1234567", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePasswordBoundaries(t *testing.T) {
	// 6 characters is the minimum, 35 the maximum
	if err := ValidatePassword("abc12x"); err != nil {
		t.Errorf("6-char password should be valid, got %v", err)
	}
	long := "a1b2c3d4e5f6g7h8i9j0a1b2c3d4e5f6g7h" // 35 chars
	if len(long) != 35 {
		t.Fatalf("test fixture length = %d, want 35", len(long))
	}
	if err := ValidatePassword(long); err != nil {
		t.Errorf("35-char password should be valid, got %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid", username: "gopher", wantErr: false},
		{name: "minimum length", username: "abc", wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: "abcdefghijklmnopqrstuvwxyz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{name: "jpg", filename: "photo.jpg", wantErr: false},
		{name: "jpeg", filename: "photo.jpeg", wantErr: false},
		{name: "png upper case", filename: "ICON.PNG", wantErr: false},
		{name: "gif", filename: "anim.gif", wantErr: false},
		{name: "webp", filename: "img.webp", wantErr: false},
		{name: "svg rejected", filename: "vector.svg", wantErr: true},
		{name: "no extension", filename: "file", wantErr: true},
		{name: "executable", filename: "evil.exe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageExtension(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageExtension(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorFields(t *testing.T) {
	err := ValidateCourseTitle("Go")
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Field != "title" {
		t.Errorf("Field = %q, want %q", ve.Field, "title")
	}
}
