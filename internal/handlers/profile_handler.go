package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"codecourse/internal/pictures"
	"codecourse/internal/service"
)

// ProfileHandler handles the account page, the dashboard, and public author
// pages
type ProfileHandler struct {
	authService    *service.AuthService
	contentService *service.ContentService
	templates      *template.Template
	uploadMaxSize  int64
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(authService *service.AuthService, contentService *service.ContentService, templates *template.Template, uploadMaxSize int64) *ProfileHandler {
	return &ProfileHandler{
		authService:    authService,
		contentService: contentService,
		templates:      templates,
		uploadMaxSize:  uploadMaxSize,
	}
}

func (h *ProfileHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s template: %v", name, err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowAccount renders the signed-in user's account page
func (h *ProfileHandler) ShowAccount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	h.render(w, "account.tmpl", AccountViewData{
		Title:     "Account - CodeCourse",
		User:      user,
		AvatarURL: pictures.URLPath(user.Avatar, pictures.CategoryAvatars),
	})
}

// UpdateAccount handles the account form submission, including an optional
// avatar upload
func (h *ProfileHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	avatar, closeUpload, err := parseUpload(r, "avatar", h.uploadMaxSize)
	if err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	defer closeUpload()

	in := service.UpdateProfileInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Bio:      r.FormValue("bio"),
		Avatar:   avatar,
	}

	updated, err := h.authService.UpdateProfile(user, in)
	if err != nil {
		h.render(w, "account.tmpl", AccountViewData{
			Title:     "Account - CodeCourse",
			User:      user,
			AvatarURL: pictures.URLPath(user.Avatar, pictures.CategoryAvatars),
			Errors:    fieldErrorMap(err),
		})
		return
	}

	h.render(w, "account.tmpl", AccountViewData{
		Title:     "Account - CodeCourse",
		User:      updated,
		AvatarURL: pictures.URLPath(updated.Avatar, pictures.CategoryAvatars),
		Success:   "Your account has been updated.",
	})
}

// Dashboard renders the signed-in user's own lessons
func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	page := pageNumber(r)

	lessons, err := h.contentService.ListLessonsByAuthor(user.ID, page)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing lessons", err)
		return
	}

	h.render(w, "dashboard.tmpl", AuthorViewData{
		Title:   "Dashboard - CodeCourse",
		User:    user,
		Author:  user,
		Lessons: lessons,
	})
}

// ShowAuthor renders a public author page with that user's lessons
func (h *ProfileHandler) ShowAuthor(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	author, err := h.authService.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error looking up author", err)
		return
	}

	lessons, err := h.contentService.ListLessonsByAuthor(author.ID, pageNumber(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing lessons", err)
		return
	}

	h.render(w, "author.tmpl", AuthorViewData{
		Title:   author.Username + " - CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Author:  author,
		Lessons: lessons,
	})
}

// pageNumber reads the page query parameter, defaulting to the first page
func pageNumber(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
