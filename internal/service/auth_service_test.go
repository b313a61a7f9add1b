package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"codecourse/internal/database"
	"codecourse/internal/models"
	"codecourse/internal/pictures"
	"codecourse/internal/security"
	"codecourse/internal/validation"
)

// pngBytes encodes a solid image of the given size
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

type fakeMailer struct {
	enabled bool
	sentTo  string
	token   string
	fail    bool
}

func (m *fakeMailer) IsEnabled() bool { return m.enabled }

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, toEmail, _, token string) error {
	if m.fail {
		return errors.New("smtp down")
	}
	m.sentTo = toEmail
	m.token = token
	return nil
}

func newTestAuthService(t *testing.T, mailer ResetMailer, tokenMaxAge time.Duration) *AuthService {
	t.Helper()
	db := newTestDB(t)
	picStore := pictures.NewStore(t.TempDir())
	tokens := security.NewResetTokenIssuer([]byte("test-secret"), tokenMaxAge)
	return NewAuthService(db, picStore, tokens, mailer, 24*time.Hour, 30*24*time.Hour)
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  "ada",
		Email:     "ada@example.com",
		Password:  "engine123",
	}
}

func TestRegisterStoresHashedPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	user, err := svc.Register(validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.PasswordHash == "engine123" {
		t.Error("password stored in plaintext")
	}
	if !security.CheckPassword("engine123", user.PasswordHash) {
		t.Error("stored hash does not verify against the original password")
	}
	if security.CheckPassword("engine124", user.PasswordHash) {
		t.Error("stored hash verifies against a different password")
	}
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	first, err := svc.Register(validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !first.IsAdmin {
		t.Error("first registered user should be admin")
	}

	second, err := svc.Register(RegisterInput{
		FirstName: "Grace", LastName: "Hopper",
		Username: "grace", Email: "grace@example.com", Password: "cobol123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if second.IsAdmin {
		t.Error("second registered user should not be admin")
	}
}

func TestRegisterRejectsDuplicateEmailAndUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{
			name: "duplicate email",
			in: RegisterInput{
				FirstName: "Other", LastName: "Person",
				Username: "other", Email: "ada@example.com", Password: "abc12345",
			},
			field: "email",
		},
		{
			name: "duplicate username",
			in: RegisterInput{
				FirstName: "Other", LastName: "Person",
				Username: "ada", Email: "other@example.com", Password: "abc12345",
			},
			field: "username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.in)
			var fieldErrs validation.Errors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("Register() error = %v, want validation.Errors", err)
			}
			found := false
			for _, fe := range fieldErrs {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a %q field error, got %v", tt.field, fieldErrs)
			}
		})
	}
}

func TestRegisterValidationFailurePersistsNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	in := validRegistration()
	in.Password = "short" // fails complexity rule
	if _, err := svc.Register(in); err == nil {
		t.Fatal("Register() with weak password should fail")
	}

	if _, _, err := svc.Login("ada@example.com", "short", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("no user should exist after failed registration, got %v", err)
	}
}

func TestLoginGenericFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Unknown email and wrong password must be indistinguishable
	_, _, errUnknown := svc.Login("nobody@example.com", "engine123", false)
	_, _, errWrongPw := svc.Login("ada@example.com", "wrong1234", false)

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Error("login failures must not reveal whether the email exists")
	}
}

func TestLoginCreatesValidatableSession(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	registered, err := svc.Register(validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	session, user, err := svc.Login("ada@example.com", "engine123", false)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user ID = %d, want %d", user.ID, registered.ID)
	}

	validated, err := svc.ValidateSession(session.ID)
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if validated.ID != registered.ID {
		t.Errorf("ValidateSession() user ID = %d, want %d", validated.ID, registered.ID)
	}

	if err := svc.Logout(session.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.ValidateSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("ValidateSession() after logout error = %v, want ErrSessionNotFound", err)
	}
}

func TestLoginRememberExtendsSession(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	short, _, err := svc.Login("ada@example.com", "engine123", false)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	long, _, err := svc.Login("ada@example.com", "engine123", true)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if !long.ExpiresAt.After(short.ExpiresAt.Add(24 * time.Hour)) {
		t.Errorf("remember session expires at %v, not meaningfully later than %v",
			long.ExpiresAt, short.ExpiresAt)
	}
}

func TestUpdateProfileUnchangedUsernameDoesNotCollide(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	user, err := svc.Register(validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Same username and email, only bio changes: must not trip the
	// uniqueness check against the user's own record
	updated, err := svc.UpdateProfile(user, UpdateProfileInput{
		Username: user.Username,
		Email:    user.Email,
		Bio:      "first programmer",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Bio != "first programmer" {
		t.Errorf("Bio = %q, want %q", updated.Bio, "first programmer")
	}
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newTestAuthService(t, nil, time.Hour)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second, err := svc.Register(RegisterInput{
		FirstName: "Grace", LastName: "Hopper",
		Username: "grace", Email: "grace@example.com", Password: "cobol123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err = svc.UpdateProfile(second, UpdateProfileInput{
		Username: "ada",
		Email:    second.Email,
	})
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("UpdateProfile() error = %v, want validation.Errors", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	mailer := &fakeMailer{enabled: true}
	svc := newTestAuthService(t, mailer, time.Hour)

	registered, err := svc.Register(validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := svc.RequestPasswordReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if mailer.sentTo != "ada@example.com" {
		t.Fatalf("reset email sent to %q, want ada@example.com", mailer.sentTo)
	}
	if mailer.token == "" {
		t.Fatal("no reset token in email")
	}

	user, err := svc.VerifyResetToken(mailer.token)
	if err != nil {
		t.Fatalf("VerifyResetToken() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("token resolved to user %d, want %d", user.ID, registered.ID)
	}

	if err := svc.ResetPassword(mailer.token, "newpass42"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}

	if _, _, err := svc.Login("ada@example.com", "engine123", false); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted after reset")
	}
	if _, _, err := svc.Login("ada@example.com", "newpass42", false); err != nil {
		t.Errorf("new password rejected after reset: %v", err)
	}
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	mailer := &fakeMailer{enabled: true}
	svc := newTestAuthService(t, mailer, time.Hour)

	if err := svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Errorf("RequestPasswordReset() for unknown email error = %v, want nil", err)
	}
	if mailer.sentTo != "" {
		t.Error("reset email sent for unknown address")
	}
}

func TestPasswordResetExpiredToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	mailer := &fakeMailer{enabled: true}
	svc := newTestAuthService(t, mailer, -1*time.Second)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "ada@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}

	if _, err := svc.VerifyResetToken(mailer.token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyResetToken() on expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordResetMailFailureDoesNotError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	mailer := &fakeMailer{enabled: true, fail: true}
	svc := newTestAuthService(t, mailer, time.Hour)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Tokens are stateless: a delivery failure has nothing to roll back
	if err := svc.RequestPasswordReset(context.Background(), "ada@example.com"); err != nil {
		t.Errorf("RequestPasswordReset() error = %v, want nil despite mail failure", err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := newTestDB(t)
	picStore := pictures.NewStore(t.TempDir())
	tokens := security.NewResetTokenIssuer([]byte("test-secret"), time.Hour)
	// Sessions expire immediately
	svc := NewAuthService(db, picStore, tokens, nil, -1*time.Second, -1*time.Second)

	if _, err := svc.Register(validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	session, _, err := svc.Login("ada@example.com", "engine123", false)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if _, err := svc.ValidateSession(session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("ValidateSession() error = %v, want ErrSessionExpired", err)
	}

	if err := svc.CleanupExpiredSessions(); err != nil {
		t.Fatalf("CleanupExpiredSessions() error = %v", err)
	}
}

func TestUpdateProfileStoresAvatarAndReleasesOld(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := newTestDB(t)
	picStore := pictures.NewStore(t.TempDir())
	tokens := security.NewResetTokenIssuer([]byte("test-secret"), time.Hour)
	svc := NewAuthService(db, picStore, tokens, nil, 24*time.Hour, 30*24*time.Hour)

	user, err := svc.Register(validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Avatar != models.DefaultAvatar {
		t.Fatalf("new user avatar = %q, want default sentinel", user.Avatar)
	}

	updated, err := svc.UpdateProfile(user, UpdateProfileInput{
		Username: user.Username,
		Email:    user.Email,
		Avatar:   &Upload{File: bytes.NewReader(pngBytes(t, 300, 300)), Filename: "me.png"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Avatar == models.DefaultAvatar || updated.Avatar == "" {
		t.Errorf("avatar not replaced: %q", updated.Avatar)
	}
	if updated.Avatar == "me.png" {
		t.Error("avatar kept the original filename")
	}
}
