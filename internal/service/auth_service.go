package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"codecourse/internal/database"
	"codecourse/internal/models"
	"codecourse/internal/pictures"
	"codecourse/internal/repository"
	"codecourse/internal/security"
	"codecourse/internal/validation"
)

var (
	// ErrInvalidCredentials is the single generic login failure. It must
	// not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid or expired reset token")
)

// ResetMailer delivers password-reset emails. Delivery failure does not roll
// back token issuance; tokens are stateless.
type ResetMailer interface {
	IsEnabled() bool
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error
}

// Upload carries an uploaded file into a service operation
type Upload struct {
	File     io.Reader
	Filename string
}

// AuthService handles registration, login, sessions, profile updates, and
// the password-reset flow
type AuthService struct {
	db       *database.DB
	userRepo *repository.UserRepository
	pictures *pictures.Store
	tokens   *security.ResetTokenIssuer
	mailer   ResetMailer

	sessionDuration  time.Duration
	rememberDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, picStore *pictures.Store, tokens *security.ResetTokenIssuer, mailer ResetMailer, sessionDuration, rememberDuration time.Duration) *AuthService {
	return &AuthService{
		db:               db,
		userRepo:         repository.NewUserRepository(db),
		pictures:         picStore,
		tokens:           tokens,
		mailer:           mailer,
		sessionDuration:  sessionDuration,
		rememberDuration: rememberDuration,
	}
}

// RegisterInput holds the registration form fields
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// Register creates a new user account. Field-level failures are returned as
// validation.Errors; no partial user is persisted on failure.
func (s *AuthService) Register(in RegisterInput) (*models.User, error) {
	var fieldErrs validation.Errors
	collect := func(err error) {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			fieldErrs = append(fieldErrs, ve)
		}
	}

	if err := validation.ValidateName("first_name", in.FirstName); err != nil {
		collect(err)
	}
	if err := validation.ValidateName("last_name", in.LastName); err != nil {
		collect(err)
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		collect(err)
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		collect(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		collect(err)
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Uniqueness checks and the insert run in one transaction so a
	// concurrent registration cannot slip between them.
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := repository.NewUserRepository(tx)

	if existing, err := txRepo.GetUserByUsername(in.Username); err != nil {
		return nil, fmt.Errorf("failed to check existing username: %w", err)
	} else if existing != nil {
		fieldErrs = append(fieldErrs, validation.ValidationError{Field: "username", Message: "that username is taken"})
	}

	if existing, err := txRepo.GetUserByEmail(in.Email); err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	} else if existing != nil {
		fieldErrs = append(fieldErrs, validation.ValidationError{Field: "email", Message: "that email is already registered"})
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	user, err := txRepo.CreateUser(in.FirstName, in.LastName, in.Username, in.Email, "", passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	return user, nil
}

// Login authenticates a user and creates a session. The remember flag
// extends the session lifetime.
func (s *AuthService) Login(email, password string, remember bool) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	duration := s.sessionDuration
	if remember {
		duration = s.rememberDuration
	}

	sessionID := security.GenerateSessionID()
	session, err := s.userRepo.CreateSession(sessionID, user.ID, time.Now().Add(duration))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.userRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

// GetUserByID resolves a user id, for attributing content to its author
func (s *AuthService) GetUserByID(id int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// GetUserByUsername resolves a username to its public profile
func (s *AuthService) GetUserByUsername(username string) (*models.User, error) {
	user, err := s.userRepo.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateProfileInput holds the profile form fields. Avatar is optional.
type UpdateProfileInput struct {
	Username string
	Email    string
	Bio      string
	Avatar   *Upload
}

// UpdateProfile updates a user's profile. Username and email uniqueness is
// only checked when the incoming value differs from the user's current one,
// so an unchanged value never collides with the user's own record. A new
// avatar is stored before the update commits; the old file is removed only
// after a successful commit so a persisted record never references a
// deleted asset.
func (s *AuthService) UpdateProfile(user *models.User, in UpdateProfileInput) (*models.User, error) {
	var fieldErrs validation.Errors
	collect := func(err error) {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			fieldErrs = append(fieldErrs, ve)
		}
	}

	if err := validation.ValidateUsername(in.Username); err != nil {
		collect(err)
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		collect(err)
	}
	if err := validation.ValidateBio(in.Bio); err != nil {
		collect(err)
	}
	if in.Avatar != nil {
		if err := validation.ValidateImageExtension(in.Avatar.Filename); err != nil {
			collect(err)
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	if in.Username != user.Username {
		existing, err := s.userRepo.GetUserByUsername(in.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil {
			fieldErrs = append(fieldErrs, validation.ValidationError{Field: "username", Message: "that username is taken"})
		}
	}

	if in.Email != user.Email {
		existing, err := s.userRepo.GetUserByEmail(in.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			fieldErrs = append(fieldErrs, validation.ValidationError{Field: "email", Message: "that email is already registered"})
		}
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	avatar := user.Avatar
	if in.Avatar != nil {
		name, err := s.pictures.Save(in.Avatar.File, in.Avatar.Filename, pictures.CategoryAvatars, 125, 125)
		if err != nil {
			return nil, fmt.Errorf("failed to store avatar: %w", err)
		}
		avatar = name
	}

	if err := s.userRepo.UpdateProfile(user.ID, in.Username, in.Email, in.Bio, avatar); err != nil {
		// The freshly stored avatar is now orphaned; remove it rather
		// than leaking the file.
		if avatar != user.Avatar {
			s.pictures.Delete(avatar, pictures.CategoryAvatars)
		}
		return nil, err
	}

	if in.Avatar != nil && avatar != user.Avatar {
		s.pictures.Delete(user.Avatar, pictures.CategoryAvatars)
	}

	updated := *user
	updated.Username = in.Username
	updated.Email = in.Email
	updated.Bio = in.Bio
	updated.Avatar = avatar
	updated.UpdatedAt = time.Now()
	return &updated, nil
}

// RequestPasswordReset issues a reset token for the account registered
// under email and mails the reset link. An unknown email is not an error:
// the caller must not learn whether the address has an account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.FullName(), token); err != nil {
			// Token issuance is stateless; there is nothing to roll back
			log.Printf("failed to send reset email to %s: %v", user.Email, err)
		}
	}

	return nil
}

// VerifyResetToken resolves a reset token back to its user. Invalid,
// tampered, and expired tokens all yield ErrInvalidToken.
func (s *AuthService) VerifyResetToken(token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// ResetPassword sets a new password for the user a valid token resolves to
func (s *AuthService) ResetPassword(token, newPassword string) error {
	user, err := s.VerifyResetToken(token)
	if err != nil {
		return err
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
