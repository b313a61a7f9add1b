package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"codecourse/internal/repository"
	"codecourse/internal/service"
)

// AdminHandler handles the administrative interface: site stats and
// management of users, courses, and lessons
type AdminHandler struct {
	contentService *service.ContentService
	userRepo       *repository.UserRepository
	templates      *template.Template
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(contentService *service.ContentService, userRepo *repository.UserRepository, templates *template.Template) *AdminHandler {
	return &AdminHandler{
		contentService: contentService,
		userRepo:       userRepo,
		templates:      templates,
	}
}

func (h *AdminHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s template: %v", name, err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// Dashboard renders the admin overview
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing users", err)
		return
	}

	courses, err := h.contentService.AllCourses()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", err)
		return
	}

	lessons, err := h.contentService.ListLessons(1)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing lessons", err)
		return
	}

	h.render(w, "admin_dashboard.tmpl", AdminDashboardViewData{
		Title:       "Admin - CodeCourse",
		User:        GetUserFromContext(r.Context()),
		UserCount:   len(users),
		CourseCount: len(courses),
		LessonCount: lessons.TotalItems,
	})
}

// ShowUsers renders the user management page
func (h *AdminHandler) ShowUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing users", err)
		return
	}

	h.render(w, "admin_users.tmpl", AdminUsersViewData{
		Title: "Manage Users - CodeCourse",
		User:  GetUserFromContext(r.Context()),
		Users: users,
	})
}

// SetUserAdmin grants or revokes the admin flag on an account
func (h *AdminHandler) SetUserAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	actor := GetUserFromContext(r.Context())
	isAdmin := r.FormValue("is_admin") == "on"

	// An admin cannot revoke their own flag; that would let the last
	// admin lock everyone out
	if userID == actor.ID && !isAdmin {
		respondWithError(w, http.StatusBadRequest, "You cannot revoke your own admin access", "", nil)
		return
	}

	if err := h.userRepo.SetAdmin(userID, isAdmin); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error updating admin flag", err)
		return
	}

	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

// ShowCourses renders the course management page
func (h *AdminHandler) ShowCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.contentService.AllCourses()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", err)
		return
	}

	h.render(w, "admin_courses.tmpl", AdminCoursesViewData{
		Title:   "Manage Courses - CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Courses: courses,
	})
}

// DeleteCourse removes a course and all its lessons
func (h *AdminHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.contentService.DeleteCourse(courseID, GetUserFromContext(r.Context())); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, service.ErrNotAuthorized):
			respondWithError(w, http.StatusForbidden, ErrUnauthorized, "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error deleting course", err)
		}
		return
	}

	http.Redirect(w, r, "/admin/courses", http.StatusSeeOther)
}

// ShowLessons renders the lesson management page
func (h *AdminHandler) ShowLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.contentService.ListLessons(pageNumber(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing lessons", err)
		return
	}

	h.render(w, "admin_lessons.tmpl", AdminLessonsViewData{
		Title:   "Manage Lessons - CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Lessons: lessons,
	})
}

// DeleteLesson removes a lesson from the admin interface
func (h *AdminHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.contentService.DeleteLesson(lessonID, GetUserFromContext(r.Context())); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, service.ErrNotAuthorized):
			respondWithError(w, http.StatusForbidden, ErrUnauthorized, "", nil)
		default:
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error deleting lesson", err)
		}
		return
	}

	http.Redirect(w, r, "/admin/lessons", http.StatusSeeOther)
}
