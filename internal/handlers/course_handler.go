package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"codecourse/internal/pictures"
	"codecourse/internal/service"
)

// CourseHandler handles course listing, detail, and creation
type CourseHandler struct {
	contentService *service.ContentService
	templates      *template.Template
	uploadMaxSize  int64
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(contentService *service.ContentService, templates *template.Template, uploadMaxSize int64) *CourseHandler {
	return &CourseHandler{
		contentService: contentService,
		templates:      templates,
		uploadMaxSize:  uploadMaxSize,
	}
}

func (h *CourseHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s template: %v", name, err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// ShowCourses renders the paginated course catalogue
func (h *CourseHandler) ShowCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.contentService.ListCourses(pageNumber(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", err)
		return
	}

	h.render(w, "courses.tmpl", CoursesViewData{
		Title:   "Courses - CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Courses: courses,
	})
}

// ShowCourse renders one course and a page of its lessons
func (h *CourseHandler) ShowCourse(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("courseSlug")

	course, err := h.contentService.GetCourseBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error looking up course", err)
		return
	}

	lessons, err := h.contentService.ListCourseLessons(course, pageNumber(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing lessons", err)
		return
	}

	h.render(w, "course.tmpl", CourseViewData{
		Title:   course.Title + " - CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Course:  course,
		IconURL: pictures.URLPath(course.Icon, pictures.CategoryIcons),
		Lessons: lessons,
	})
}

// ShowNewCourse renders the course creation form
func (h *CourseHandler) ShowNewCourse(w http.ResponseWriter, r *http.Request) {
	h.render(w, "course_form.tmpl", CourseFormViewData{
		Title: "New Course - CodeCourse",
		User:  GetUserFromContext(r.Context()),
	})
}

// CreateCourse handles the course creation form submission
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	icon, closeUpload, err := parseUpload(r, "icon", h.uploadMaxSize)
	if err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	defer closeUpload()

	in := service.CreateCourseInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Slug:        r.FormValue("slug"),
		Icon:        icon,
	}

	course, err := h.contentService.CreateCourse(in)
	if err != nil {
		h.render(w, "course_form.tmpl", CourseFormViewData{
			Title:       "New Course - CodeCourse",
			User:        GetUserFromContext(r.Context()),
			Errors:      fieldErrorMap(err),
			CourseTitle: in.Title,
			Description: in.Description,
			Slug:        in.Slug,
		})
		return
	}

	http.Redirect(w, r, "/courses/"+course.Slug, http.StatusSeeOther)
}
