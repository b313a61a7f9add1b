package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"

	"codecourse/internal/models"
	"codecourse/internal/pictures"
	"codecourse/internal/policy"
	"codecourse/internal/service"
)

// LessonHandler handles the lesson feed, lesson pages with sequential
// navigation, and lesson CRUD
type LessonHandler struct {
	authService    *service.AuthService
	contentService *service.ContentService
	gate           policy.Gate
	templates      *template.Template
	uploadMaxSize  int64
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(authService *service.AuthService, contentService *service.ContentService, gate policy.Gate, templates *template.Template, uploadMaxSize int64) *LessonHandler {
	return &LessonHandler{
		authService:    authService,
		contentService: contentService,
		gate:           gate,
		templates:      templates,
		uploadMaxSize:  uploadMaxSize,
	}
}

func (h *LessonHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error rendering %s template: %v", name, err)
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

// Home renders the landing page: the newest lessons across all courses
func (h *LessonHandler) Home(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.contentService.ListLessons(pageNumber(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing lessons", err)
		return
	}

	// The feed links each lesson through its course slug
	courses, err := h.contentService.AllCourses()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", err)
		return
	}
	byID := make(map[int64]models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	h.render(w, "home.tmpl", HomeViewData{
		Title:   "CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Lessons: lessons,
		Courses: byID,
	})
}

// ViewLesson renders one lesson with its previous/next navigation
func (h *LessonHandler) ViewLesson(w http.ResponseWriter, r *http.Request) {
	courseSlug := r.PathValue("courseSlug")
	lessonSlug := r.PathValue("lessonSlug")

	course, lesson, err := h.contentService.GetLessonByRoute(courseSlug, lessonSlug)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error looking up lesson", err)
		return
	}

	prev, next, err := h.contentService.PreviousNext(course, lesson.Slug)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error computing navigation", err)
		return
	}

	author, err := h.authService.GetUserByID(lesson.UserID)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error looking up author", err)
		return
	}

	user := GetUserFromContext(r.Context())

	h.render(w, "lesson.tmpl", LessonViewData{
		Title:        lesson.Title + " - CodeCourse",
		User:         user,
		Course:       course,
		Lesson:       lesson,
		ThumbnailURL: pictures.URLPath(lesson.Thumbnail, pictures.CategoryThumbnails),
		Author:       author,
		Previous:     prev,
		Next:         next,
		CanManage:    h.gate.CanManage(user, lesson.UserID),
	})
}

// ShowNewLesson renders the lesson creation form
func (h *LessonHandler) ShowNewLesson(w http.ResponseWriter, r *http.Request) {
	courses, err := h.contentService.AllCourses()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", err)
		return
	}

	h.render(w, "lesson_form.tmpl", LessonFormViewData{
		Title:   "New Lesson - CodeCourse",
		User:    GetUserFromContext(r.Context()),
		Courses: courses,
	})
}

// CreateLesson handles the lesson creation form submission
func (h *LessonHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	thumbnail, closeUpload, err := parseUpload(r, "thumbnail", h.uploadMaxSize)
	if err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	defer closeUpload()

	courseID, _ := strconv.ParseInt(r.FormValue("course_id"), 10, 64)

	in := service.CreateLessonInput{
		Title:     r.FormValue("title"),
		Content:   r.FormValue("content"),
		Slug:      r.FormValue("slug"),
		CourseID:  courseID,
		Thumbnail: thumbnail,
	}

	lesson, err := h.contentService.CreateLesson(user, in)
	if err != nil {
		courses, listErr := h.contentService.AllCourses()
		if listErr != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", listErr)
			return
		}
		h.render(w, "lesson_form.tmpl", LessonFormViewData{
			Title:       "New Lesson - CodeCourse",
			User:        user,
			Courses:     courses,
			Errors:      fieldErrorMap(err),
			LessonTitle: in.Title,
			Content:     in.Content,
			Slug:        in.Slug,
		})
		return
	}

	course, err := h.contentService.GetCourseByID(lesson.CourseID)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/courses/"+course.Slug+"/"+lesson.Slug, http.StatusSeeOther)
}

// ShowEditLesson renders the lesson edit form
func (h *LessonHandler) ShowEditLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := h.manageableLesson(w, r)
	if !ok {
		return
	}

	courses, err := h.contentService.AllCourses()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", err)
		return
	}

	// The slug is pre-filled so saving an edit keeps the lesson's URL even
	// when the title changes
	h.render(w, "lesson_form.tmpl", LessonFormViewData{
		Title:       "Edit Lesson - CodeCourse",
		User:        GetUserFromContext(r.Context()),
		Lesson:      lesson,
		Courses:     courses,
		LessonTitle: lesson.Title,
		Content:     lesson.Content,
		Slug:        lesson.Slug,
	})
}

// UpdateLesson handles the lesson edit form submission
func (h *LessonHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	lessonID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	thumbnail, closeUpload, err := parseUpload(r, "thumbnail", h.uploadMaxSize)
	if err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}
	defer closeUpload()

	courseID, _ := strconv.ParseInt(r.FormValue("course_id"), 10, 64)

	in := service.UpdateLessonInput{
		Title:     r.FormValue("title"),
		Content:   r.FormValue("content"),
		Slug:      r.FormValue("slug"),
		CourseID:  courseID,
		Thumbnail: thumbnail,
	}

	updated, err := h.contentService.UpdateLesson(lessonID, user, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, service.ErrNotAuthorized):
			respondWithError(w, http.StatusForbidden, ErrUnauthorized, "", nil)
		default:
			courses, listErr := h.contentService.AllCourses()
			if listErr != nil {
				respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing courses", listErr)
				return
			}
			h.render(w, "lesson_form.tmpl", LessonFormViewData{
				Title:       "Edit Lesson - CodeCourse",
				User:        user,
				Courses:     courses,
				Errors:      fieldErrorMap(err),
				LessonTitle: in.Title,
				Content:     in.Content,
				Slug:        in.Slug,
			})
		}
		return
	}

	course, err := h.contentService.GetCourseByID(updated.CourseID)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/courses/"+course.Slug+"/"+updated.Slug, http.StatusSeeOther)
}

// DeleteLesson removes a lesson and returns to the dashboard
func (h *LessonHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	lessonID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.contentService.DeleteLesson(lessonID, user); err != nil {
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

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// manageableLesson loads the lesson from the path and verifies the signed-in
// user may manage it
func (h *LessonHandler) manageableLesson(w http.ResponseWriter, r *http.Request) (*models.Lesson, bool) {
	lessonID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	lesson, err := h.contentService.GetLessonByID(lessonID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error looking up lesson", err)
		return nil, false
	}

	if !h.gate.CanManage(GetUserFromContext(r.Context()), lesson.UserID) {
		respondWithError(w, http.StatusForbidden, ErrUnauthorized, "", nil)
		return nil, false
	}

	return lesson, true
}
