package handlers

import (
	"bytes"
	"context"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"codecourse/internal/database"
	"codecourse/internal/models"
	"codecourse/internal/pictures"
	"codecourse/internal/policy"
	"codecourse/internal/repository"
	"codecourse/internal/service"
)

// formTemplates is the minimal template set the form handlers re-render on
// validation failure
var formTemplates = template.Must(template.New("forms").Parse(
	`{{define "lesson_form.tmpl"}}{{end}}{{define "course_form.tmpl"}}{{end}}`))

type handlerFixture struct {
	content *service.ContentService
	author  *models.User
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	content := service.NewContentService(db, pictures.NewStore(t.TempDir()), policy.NewGate(), 6)

	author, err := repository.NewUserRepository(db).CreateUser("Ada", "Lovelace", "ada", "ada@example.com", "", "x")
	if err != nil {
		t.Fatalf("failed to create author: %v", err)
	}

	return &handlerFixture{content: content, author: author}
}

func (f *handlerFixture) mustCreateCourse(t *testing.T, title string) *models.Course {
	t.Helper()
	course, err := f.content.CreateCourse(service.CreateCourseInput{
		Title:       title,
		Description: "A course description long enough to pass validation.",
	})
	if err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return course
}

// formRequest builds a multipart POST the way the browser submits the
// lesson and course forms, with the signed-in user on the context
func (f *handlerFixture) formRequest(t *testing.T, target string, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, target, body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r.WithContext(context.WithValue(r.Context(), UserContextKey, f.author))
}

func TestCreateLessonWithExplicitSlug(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newHandlerFixture(t)
	course := f.mustCreateCourse(t, "Intro to Testing")

	h := NewLessonHandler(nil, f.content, policy.NewGate(), formTemplates, 1<<20)

	recorder := httptest.NewRecorder()
	h.CreateLesson(recorder, f.formRequest(t, "/lessons/new", map[string]string{
		"title":     "First Steps",
		"content":   "Some lesson content.",
		"slug":      "my-custom-slug",
		"course_id": strconv.FormatInt(course.ID, 10),
	}))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body: %s", recorder.Code, recorder.Body.String())
	}
	if loc := recorder.Header().Get("Location"); loc != "/courses/"+course.Slug+"/my-custom-slug" {
		t.Errorf("Location = %q, want the posted slug in the lesson URL", loc)
	}

	if _, _, err := f.content.GetLessonByRoute(course.Slug, "my-custom-slug"); err != nil {
		t.Errorf("lesson did not resolve under the posted slug: %v", err)
	}
}

func TestCreateLessonBlankSlugDerivesFromTitle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newHandlerFixture(t)
	course := f.mustCreateCourse(t, "Intro to Testing")

	h := NewLessonHandler(nil, f.content, policy.NewGate(), formTemplates, 1<<20)

	recorder := httptest.NewRecorder()
	h.CreateLesson(recorder, f.formRequest(t, "/lessons/new", map[string]string{
		"title":     "First Steps",
		"content":   "Some lesson content.",
		"slug":      "",
		"course_id": strconv.FormatInt(course.ID, 10),
	}))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body: %s", recorder.Code, recorder.Body.String())
	}

	if _, _, err := f.content.GetLessonByRoute(course.Slug, "first-steps"); err != nil {
		t.Errorf("lesson did not resolve under the derived slug: %v", err)
	}
}

func TestUpdateLessonFormKeepsSlugAcrossTitleChange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newHandlerFixture(t)
	course := f.mustCreateCourse(t, "Intro to Testing")

	lesson, err := f.content.CreateLesson(f.author, service.CreateLessonInput{
		Title:    "First Steps",
		Content:  "Some lesson content.",
		CourseID: course.ID,
	})
	if err != nil {
		t.Fatalf("failed to create lesson: %v", err)
	}

	h := NewLessonHandler(nil, f.content, policy.NewGate(), formTemplates, 1<<20)

	// The edit form ships the current slug back, so renaming the lesson
	// keeps its URL
	r := f.formRequest(t, "/lessons/"+strconv.FormatInt(lesson.ID, 10)+"/update", map[string]string{
		"title":     "Second Steps",
		"content":   "Some revised content.",
		"slug":      lesson.Slug,
		"course_id": strconv.FormatInt(course.ID, 10),
	})
	r.SetPathValue("id", strconv.FormatInt(lesson.ID, 10))

	recorder := httptest.NewRecorder()
	h.UpdateLesson(recorder, r)

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body: %s", recorder.Code, recorder.Body.String())
	}
	if loc := recorder.Header().Get("Location"); loc != "/courses/"+course.Slug+"/"+lesson.Slug {
		t.Errorf("Location = %q, want the original slug preserved", loc)
	}

	_, updated, err := f.content.GetLessonByRoute(course.Slug, lesson.Slug)
	if err != nil {
		t.Fatalf("lesson no longer resolves under its original slug: %v", err)
	}
	if updated.Title != "Second Steps" {
		t.Errorf("Title = %q, want the edit applied", updated.Title)
	}
}
