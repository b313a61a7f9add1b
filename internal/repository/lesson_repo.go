package repository

import (
	"database/sql"
	"fmt"
	"time"

	"codecourse/internal/database"
	"codecourse/internal/models"
)

// LessonRepository handles database operations for lessons
type LessonRepository struct {
	db database.DBTX
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db database.DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = "id, title, content, slug, thumbnail, user_id, course_id, created_at, updated_at"

func scanLesson(row interface{ Scan(...interface{}) error }) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	err := row.Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Content,
		&lesson.Slug,
		&lesson.Thumbnail,
		&lesson.UserID,
		&lesson.CourseID,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}
	return lesson, nil
}

func scanLessons(rows *sql.Rows) ([]models.Lesson, error) {
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.Content,
			&lesson.Slug,
			&lesson.Thumbnail,
			&lesson.UserID,
			&lesson.CourseID,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

// CreateLesson inserts a new lesson
func (r *LessonRepository) CreateLesson(title, content, slug, thumbnail string, userID, courseID int64) (*models.Lesson, error) {
	query := `
		INSERT INTO lessons (title, content, slug, thumbnail, user_id, course_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, title, content, slug, thumbnail, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	return &models.Lesson{
		ID:        id,
		Title:     title,
		Content:   content,
		Slug:      slug,
		Thumbnail: thumbnail,
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// GetLessonByID retrieves a lesson by ID
func (r *LessonRepository) GetLessonByID(id int64) (*models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE id = ?"
	return scanLesson(r.db.QueryRow(query, id))
}

// GetLessonBySlug retrieves a lesson by its slug within a course. Slugs are
// only unique in combination with the course; duplicate slugs resolve to the
// oldest lesson.
func (r *LessonRepository) GetLessonBySlug(courseID int64, slug string) (*models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? AND slug = ? ORDER BY id ASC LIMIT 1"
	return scanLesson(r.db.QueryRow(query, courseID, slug))
}

// GetCourseLessonsOrdered returns every lesson in a course in chronological
// order. Creation time ties break on id so the ordering is deterministic.
func (r *LessonRepository) GetCourseLessonsOrdered(courseID int64) ([]models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.Query(query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course lessons: %w", err)
	}
	return scanLessons(rows)
}

// ListCourseLessons returns a page of a course's lessons, newest first
func (r *LessonRepository) ListCourseLessons(courseID int64, limit, offset int) ([]models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.Query(query, courseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query course lessons: %w", err)
	}
	return scanLessons(rows)
}

// ListLessonsByAuthor returns a page of a user's lessons, newest first
func (r *LessonRepository) ListLessonsByAuthor(userID int64, limit, offset int) ([]models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query author lessons: %w", err)
	}
	return scanLessons(rows)
}

// ListLessons returns a page of all lessons, newest first
func (r *LessonRepository) ListLessons(limit, offset int) ([]models.Lesson, error) {
	query := "SELECT " + lessonColumns + " FROM lessons ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	return scanLessons(rows)
}

// UpdateLesson writes a lesson's mutable fields
func (r *LessonRepository) UpdateLesson(id int64, title, content, slug, thumbnail string, courseID int64) error {
	query := `
		UPDATE lessons
		SET title = ?, content = ?, slug = ?, thumbnail = ?, course_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, title, content, slug, thumbnail, courseID, id); err != nil {
		return fmt.Errorf("failed to update lesson: %w", err)
	}
	return nil
}

// DeleteLesson removes a lesson record
func (r *LessonRepository) DeleteLesson(id int64) error {
	if _, err := r.db.Exec("DELETE FROM lessons WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}
	return nil
}

// CountLessons returns the total number of lessons
func (r *LessonRepository) CountLessons() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// CountCourseLessons returns the number of lessons in a course
func (r *LessonRepository) CountCourseLessons(courseID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lessons WHERE course_id = ?", courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count course lessons: %w", err)
	}
	return count, nil
}

// CountLessonsByAuthor returns the number of lessons written by a user
func (r *LessonRepository) CountLessonsByAuthor(userID int64) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM lessons WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count author lessons: %w", err)
	}
	return count, nil
}
