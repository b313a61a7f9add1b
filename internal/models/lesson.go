package models

import "time"

// DefaultThumbnail is the sentinel stored when a lesson has no uploaded thumbnail.
const DefaultThumbnail = "default_thumbnail.jpg"

// Lesson is a unit of content belonging to exactly one course and authored
// by exactly one user. A lesson is addressed by (course slug, lesson slug);
// the lesson slug is not globally unique.
type Lesson struct {
	ID        int64
	Title     string
	Content   string
	Slug      string
	Thumbnail string
	UserID    int64
	CourseID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
