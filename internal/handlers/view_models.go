package handlers

import (
	"errors"

	"codecourse/internal/models"
	"codecourse/internal/service"
	"codecourse/internal/validation"
)

// The auth pages always render for visitors; User stays nil so the shared
// navigation shows the signed-out links.

type LoginViewData struct {
	Title   string
	User    *models.User
	Error   string
	Email   string
	Success string
}

type RegisterViewData struct {
	Title     string
	User      *models.User
	Errors    map[string]string
	FirstName string
	LastName  string
	Username  string
	Email     string
}

type ForgotPasswordViewData struct {
	Title   string
	User    *models.User
	Success string
	Error   string
}

type ResetPasswordViewData struct {
	Title string
	User  *models.User
	Token string
	Error string
}

type HomeViewData struct {
	Title   string
	User    *models.User
	Lessons service.Page[models.Lesson]
	Courses map[int64]models.Course
}

type AccountViewData struct {
	Title     string
	User      *models.User
	AvatarURL string
	Errors    map[string]string
	Success   string
}

type AuthorViewData struct {
	Title   string
	User    *models.User
	Author  *models.User
	Lessons service.Page[models.Lesson]
}

type CoursesViewData struct {
	Title   string
	User    *models.User
	Courses service.Page[models.Course]
}

type CourseViewData struct {
	Title   string
	User    *models.User
	Course  *models.Course
	IconURL string
	Lessons service.Page[models.Lesson]
}

type CourseFormViewData struct {
	Title       string
	User        *models.User
	Errors      map[string]string
	CourseTitle string
	Description string
	Slug        string
}

type LessonViewData struct {
	Title        string
	User         *models.User
	Course       *models.Course
	Lesson       *models.Lesson
	ThumbnailURL string
	Author       *models.User
	Previous     *models.Lesson
	Next         *models.Lesson
	CanManage    bool
}

type LessonFormViewData struct {
	Title       string
	User        *models.User
	Lesson      *models.Lesson
	Courses     []models.Course
	Errors      map[string]string
	LessonTitle string
	Content     string
	Slug        string
}

type AdminDashboardViewData struct {
	Title       string
	User        *models.User
	UserCount   int
	CourseCount int
	LessonCount int
}

type AdminUsersViewData struct {
	Title string
	User  *models.User
	Users []models.User
}

type AdminCoursesViewData struct {
	Title   string
	User    *models.User
	Courses []models.Course
}

type AdminLessonsViewData struct {
	Title   string
	User    *models.User
	Lessons service.Page[models.Lesson]
}

// fieldErrorMap flattens field-level validation failures into a map the
// templates can index by field name. Non-validation errors land under the
// "form" key.
func fieldErrorMap(err error) map[string]string {
	m := make(map[string]string)

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if _, seen := m[fe.Field]; !seen {
				m[fe.Field] = fe.Message
			}
		}
		return m
	}

	var single validation.ValidationError
	if errors.As(err, &single) {
		m[single.Field] = single.Message
		return m
	}

	m["form"] = "Something went wrong, please try again"
	return m
}
