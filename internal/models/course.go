package models

import (
	"strings"
	"time"
)

// DefaultCourseIcon is the sentinel stored when a course has no uploaded icon.
const DefaultCourseIcon = "default_icon.png"

// Course is a named, ordered collection of lessons. Courses have no owner:
// any authenticated user may create one.
type Course struct {
	ID          int64
	Title       string
	Description string
	Icon        string
	Slug        string
	CreatedAt   time.Time
}

// Slugify derives a URL identifier from a title by lower-casing it and
// replacing spaces with hyphens. Derived slugs are not checked for
// collisions; lookups resolve the oldest match first.
func Slugify(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
