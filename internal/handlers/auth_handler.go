package handlers

import (
	"html/template"
	"log"
	"net/http"

	"codecourse/internal/security"
	"codecourse/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	templates   *template.Template
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, templates *template.Template) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		templates:   templates,
	}
}

func (h *AuthHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s template: %v", name, err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// redirectIfAuthenticated bounces signed-in users away from the auth pages
func (h *AuthHandler) redirectIfAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if _, err := h.authService.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return true
		}
	}
	return false
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}

	h.render(w, "login.tmpl", LoginViewData{Title: "Login - CodeCourse"})
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	remember := r.FormValue("remember") == "on"

	session, _, err := h.authService.Login(email, password, remember)
	if err != nil {
		// Re-render login with error; the message never reveals whether
		// the email has an account
		h.render(w, "login.tmpl", LoginViewData{
			Title: "Login - CodeCourse",
			Error: "Invalid email or password",
			Email: email,
		})
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}

	h.render(w, "register.tmpl", RegisterViewData{Title: "Register - CodeCourse"})
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	in := service.RegisterInput{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
	}

	if _, err := h.authService.Register(in); err != nil {
		h.render(w, "register.tmpl", RegisterViewData{
			Title:     "Register - CodeCourse",
			Errors:    fieldErrorMap(err),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Username:  in.Username,
			Email:     in.Email,
		})
		return
	}

	// Auto-login after registration
	session, _, err := h.authService.Login(in.Email, in.Password, false)
	if err != nil {
		// Registration succeeded but login failed - redirect to login
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		_ = h.authService.Logout(cookie.Value)
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowForgotPassword renders the reset request form
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}

	h.render(w, "forgot_password.tmpl", ForgotPasswordViewData{Title: "Reset Password - CodeCourse"})
}

// ForgotPassword handles the reset request submission. The confirmation is
// shown whether or not the email has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	if err := h.authService.RequestPasswordReset(r.Context(), email); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error requesting password reset", err)
		return
	}

	h.render(w, "forgot_password.tmpl", ForgotPasswordViewData{
		Title:   "Reset Password - CodeCourse",
		Success: "If that email has an account, a reset link is on its way.",
	})
}

// ShowResetPassword renders the new-password form for a tokened link
func (h *AuthHandler) ShowResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	if _, err := h.authService.VerifyResetToken(token); err != nil {
		h.render(w, "forgot_password.tmpl", ForgotPasswordViewData{
			Title: "Reset Password - CodeCourse",
			Error: "That reset link is invalid or has expired. Request a new one.",
		})
		return
	}

	h.render(w, "reset_password.tmpl", ResetPasswordViewData{
		Title: "Choose a New Password - CodeCourse",
		Token: token,
	})
}

// ResetPassword sets the new password for a valid token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	token := r.PathValue("token")
	password := r.FormValue("password")

	if err := h.authService.ResetPassword(token, password); err != nil {
		h.render(w, "reset_password.tmpl", ResetPasswordViewData{
			Title: "Choose a New Password - CodeCourse",
			Token: token,
			Error: "Could not reset password: " + err.Error(),
		})
		return
	}

	h.render(w, "login.tmpl", LoginViewData{
		Title:   "Login - CodeCourse",
		Success: "Your password has been updated. Log in with your new password.",
	})
}
