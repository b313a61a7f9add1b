package repository

import (
	"database/sql"
	"fmt"
	"time"

	"codecourse/internal/database"
	"codecourse/internal/models"
)

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db database.DBTX
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db database.DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = "id, title, description, icon, slug, created_at"

func scanCourse(row interface{ Scan(...interface{}) error }) (*models.Course, error) {
	course := &models.Course{}
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Icon,
		&course.Slug,
		&course.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	return course, nil
}

// CreateCourse inserts a new course
func (r *CourseRepository) CreateCourse(title, description, icon, slug string) (*models.Course, error) {
	query := "INSERT INTO courses (title, description, icon, slug) VALUES (?, ?, ?, ?)"
	id, err := r.db.ExecReturningID(query, title, description, icon, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	return &models.Course{
		ID:          id,
		Title:       title,
		Description: description,
		Icon:        icon,
		Slug:        slug,
		CreatedAt:   time.Now(),
	}, nil
}

// GetCourseByTitle retrieves a course by exact title
func (r *CourseRepository) GetCourseByTitle(title string) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE title = ?"
	return scanCourse(r.db.QueryRow(query, title))
}

// GetCourseBySlug retrieves a course by slug. Derived slugs can collide, so
// resolution is first-match-wins on the oldest course.
func (r *CourseRepository) GetCourseBySlug(slug string) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE slug = ? ORDER BY id ASC LIMIT 1"
	return scanCourse(r.db.QueryRow(query, slug))
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(id int64) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE id = ?"
	return scanCourse(r.db.QueryRow(query, id))
}

// ListCourses returns a page of courses ordered by creation time descending
func (r *CourseRepository) ListCourses(limit, offset int) ([]models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.Icon,
			&course.Slug,
			&course.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// GetAllCourses returns every course, oldest first, for form dropdowns
func (r *CourseRepository) GetAllCourses() ([]models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses ORDER BY id ASC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.Icon,
			&course.Slug,
			&course.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// CountCourses returns the total number of courses
func (r *CourseRepository) CountCourses() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM courses").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// DeleteCourse removes a course record. Lessons must be removed or
// re-pointed first; the foreign key constraint will otherwise reject the
// delete.
func (r *CourseRepository) DeleteCourse(id int64) error {
	if _, err := r.db.Exec("DELETE FROM courses WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}
