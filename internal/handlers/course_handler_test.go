package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCourseWithExplicitSlug(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newHandlerFixture(t)

	h := NewCourseHandler(f.content, formTemplates, 1<<20)

	recorder := httptest.NewRecorder()
	h.CreateCourse(recorder, f.formRequest(t, "/courses/new", map[string]string{
		"title":       "Advanced Widgets",
		"description": "A course description long enough to pass validation.",
		"slug":        "widgets-201",
	}))

	if recorder.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body: %s", recorder.Code, recorder.Body.String())
	}
	if loc := recorder.Header().Get("Location"); loc != "/courses/widgets-201" {
		t.Errorf("Location = %q, want the posted slug", loc)
	}

	course, err := f.content.GetCourseBySlug("widgets-201")
	if err != nil {
		t.Fatalf("course did not resolve under the posted slug: %v", err)
	}
	if course.Title != "Advanced Widgets" {
		t.Errorf("Title = %q, want Advanced Widgets", course.Title)
	}
}
