package service

import (
	"errors"
	"fmt"

	"codecourse/internal/database"
	"codecourse/internal/models"
	"codecourse/internal/pictures"
	"codecourse/internal/policy"
	"codecourse/internal/repository"
	"codecourse/internal/validation"
)

var (
	// ErrNotFound is returned when a slug or id does not resolve
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized is returned when the actor is neither the
	// resource's author nor an administrator
	ErrNotAuthorized = errors.New("not authorized")
)

// Page is one page of a listing plus the information the web layer needs to
// render pagination controls
type Page[T any] struct {
	Items      []T
	Number     int
	Size       int
	TotalItems int
}

// HasNext reports whether a later page exists
func (p Page[T]) HasNext() bool {
	return p.Number*p.Size < p.TotalItems
}

// HasPrev reports whether an earlier page exists
func (p Page[T]) HasPrev() bool {
	return p.Number > 1
}

// ContentService owns courses and lessons: creation, slug assignment,
// ownership checks, deletion, and sequential navigation
type ContentService struct {
	db         *database.DB
	courseRepo *repository.CourseRepository
	lessonRepo *repository.LessonRepository
	pictures   *pictures.Store
	gate       policy.Gate
	pageSize   int
}

// NewContentService creates a new content service
func NewContentService(db *database.DB, picStore *pictures.Store, gate policy.Gate, pageSize int) *ContentService {
	return &ContentService{
		db:         db,
		courseRepo: repository.NewCourseRepository(db),
		lessonRepo: repository.NewLessonRepository(db),
		pictures:   picStore,
		gate:       gate,
		pageSize:   pageSize,
	}
}

// CreateCourseInput holds the course form fields
type CreateCourseInput struct {
	Title       string
	Description string
	Slug        string
	Icon        *Upload
}

// CreateCourse creates a course. Title uniqueness is an exact match against
// existing titles. A caller-supplied slug is used verbatim; otherwise the
// slug derives from the title. Derived slugs are NOT checked for collisions;
// lookups on a colliding slug resolve to the oldest course.
func (s *ContentService) CreateCourse(in CreateCourseInput) (*models.Course, error) {
	var fieldErrs validation.Errors
	collect := func(err error) {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			fieldErrs = append(fieldErrs, ve)
		}
	}

	if err := validation.ValidateCourseTitle(in.Title); err != nil {
		collect(err)
	}
	if err := validation.ValidateCourseDescription(in.Description); err != nil {
		collect(err)
	}
	if in.Icon != nil {
		if err := validation.ValidateImageExtension(in.Icon.Filename); err != nil {
			collect(err)
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	existing, err := s.courseRepo.GetCourseByTitle(in.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to check course title: %w", err)
	}
	if existing != nil {
		return nil, validation.Errors{{Field: "title", Message: "that course title is already taken"}}
	}

	slug := in.Slug
	if slug == "" {
		slug = models.Slugify(in.Title)
	}

	icon := models.DefaultCourseIcon
	if in.Icon != nil {
		name, err := s.pictures.Save(in.Icon.File, in.Icon.Filename, pictures.CategoryIcons, 150, 150)
		if err != nil {
			return nil, fmt.Errorf("failed to store course icon: %w", err)
		}
		icon = name
	}

	course, err := s.courseRepo.CreateCourse(in.Title, in.Description, icon, slug)
	if err != nil {
		if icon != models.DefaultCourseIcon {
			s.pictures.Delete(icon, pictures.CategoryIcons)
		}
		return nil, err
	}

	return course, nil
}

// GetCourseBySlug resolves a course slug, returning ErrNotFound when it
// does not resolve
func (s *ContentService) GetCourseBySlug(slug string) (*models.Course, error) {
	course, err := s.courseRepo.GetCourseBySlug(slug)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}
	return course, nil
}

// GetCourseByID resolves a course id, returning ErrNotFound when it does
// not resolve
func (s *ContentService) GetCourseByID(id int64) (*models.Course, error) {
	course, err := s.courseRepo.GetCourseByID(id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrNotFound
	}
	return course, nil
}

// GetLessonByID resolves a lesson id, returning ErrNotFound when it does
// not resolve
func (s *ContentService) GetLessonByID(id int64) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetLessonByID(id)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNotFound
	}
	return lesson, nil
}

// AllCourses returns every course for selection dropdowns
func (s *ContentService) AllCourses() ([]models.Course, error) {
	return s.courseRepo.GetAllCourses()
}

// ListCourses returns one page of courses, newest first
func (s *ContentService) ListCourses(page int) (Page[models.Course], error) {
	if page < 1 {
		page = 1
	}
	total, err := s.courseRepo.CountCourses()
	if err != nil {
		return Page[models.Course]{}, err
	}
	items, err := s.courseRepo.ListCourses(s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return Page[models.Course]{}, err
	}
	return Page[models.Course]{Items: items, Number: page, Size: s.pageSize, TotalItems: total}, nil
}

// CreateLessonInput holds the lesson form fields
type CreateLessonInput struct {
	Title     string
	Content   string
	Slug      string
	CourseID  int64
	Thumbnail *Upload
}

// CreateLesson creates a lesson authored by author in an existing course.
// The slug rule mirrors CreateCourse: explicit slug wins, otherwise derived
// from the title. Thumbnails are stored at their uploaded size.
func (s *ContentService) CreateLesson(author *models.User, in CreateLessonInput) (*models.Lesson, error) {
	if author == nil {
		return nil, ErrNotAuthorized
	}

	var fieldErrs validation.Errors
	collect := func(err error) {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			fieldErrs = append(fieldErrs, ve)
		}
	}

	if err := validation.ValidateLessonTitle(in.Title); err != nil {
		collect(err)
	}
	if err := validation.ValidateLessonContent(in.Content); err != nil {
		collect(err)
	}
	if in.Thumbnail != nil {
		if err := validation.ValidateImageExtension(in.Thumbnail.Filename); err != nil {
			collect(err)
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	course, err := s.courseRepo.GetCourseByID(in.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, validation.Errors{{Field: "course", Message: "course does not exist"}}
	}

	slug := in.Slug
	if slug == "" {
		slug = models.Slugify(in.Title)
	}

	thumbnail := models.DefaultThumbnail
	if in.Thumbnail != nil {
		name, err := s.pictures.Save(in.Thumbnail.File, in.Thumbnail.Filename, pictures.CategoryThumbnails, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		thumbnail = name
	}

	lesson, err := s.lessonRepo.CreateLesson(in.Title, in.Content, slug, thumbnail, author.ID, course.ID)
	if err != nil {
		if thumbnail != models.DefaultThumbnail {
			s.pictures.Delete(thumbnail, pictures.CategoryThumbnails)
		}
		return nil, err
	}

	return lesson, nil
}

// GetLessonByRoute resolves the (course slug, lesson slug) route key to a
// single lesson and its course
func (s *ContentService) GetLessonByRoute(courseSlug, lessonSlug string) (*models.Course, *models.Lesson, error) {
	course, err := s.GetCourseBySlug(courseSlug)
	if err != nil {
		return nil, nil, err
	}

	lesson, err := s.lessonRepo.GetLessonBySlug(course.ID, lessonSlug)
	if err != nil {
		return nil, nil, err
	}
	if lesson == nil {
		return nil, nil, ErrNotFound
	}

	return course, lesson, nil
}

// PreviousNext computes the chronological predecessor and successor of the
// lesson with lessonSlug inside course. When the slug is not present in the
// course both results are nil: a lesson may have been reassigned between
// render and click, and that is a normal boundary case, not an error.
func (s *ContentService) PreviousNext(course *models.Course, lessonSlug string) (*models.Lesson, *models.Lesson, error) {
	lessons, err := s.lessonRepo.GetCourseLessonsOrdered(course.ID)
	if err != nil {
		return nil, nil, err
	}

	index := -1
	for i := range lessons {
		if lessons[i].Slug == lessonSlug {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, nil, nil
	}

	var prev, next *models.Lesson
	if index > 0 {
		prev = &lessons[index-1]
	}
	if index < len(lessons)-1 {
		next = &lessons[index+1]
	}
	return prev, next, nil
}

// UpdateLessonInput holds the lesson update form fields
type UpdateLessonInput struct {
	Title     string
	Content   string
	Slug      string
	CourseID  int64
	Thumbnail *Upload
}

// UpdateLesson applies an edit to a lesson. Only the lesson's author (or an
// administrator) may edit it. Field changes commit in one transaction; a
// replaced thumbnail is stored before the commit and the old file removed
// only after it succeeds.
func (s *ContentService) UpdateLesson(lessonID int64, editor *models.User, in UpdateLessonInput) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetLessonByID(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, ErrNotFound
	}

	if !s.gate.CanManage(editor, lesson.UserID) {
		return nil, ErrNotAuthorized
	}

	var fieldErrs validation.Errors
	collect := func(err error) {
		var ve validation.ValidationError
		if errors.As(err, &ve) {
			fieldErrs = append(fieldErrs, ve)
		}
	}

	if err := validation.ValidateLessonTitle(in.Title); err != nil {
		collect(err)
	}
	if err := validation.ValidateLessonContent(in.Content); err != nil {
		collect(err)
	}
	if in.Thumbnail != nil {
		if err := validation.ValidateImageExtension(in.Thumbnail.Filename); err != nil {
			collect(err)
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	courseID := lesson.CourseID
	if in.CourseID != 0 && in.CourseID != lesson.CourseID {
		course, err := s.courseRepo.GetCourseByID(in.CourseID)
		if err != nil {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		if course == nil {
			return nil, validation.Errors{{Field: "course", Message: "course does not exist"}}
		}
		courseID = course.ID
	}

	slug := in.Slug
	if slug == "" {
		slug = models.Slugify(in.Title)
	}

	thumbnail := lesson.Thumbnail
	if in.Thumbnail != nil {
		name, err := s.pictures.Save(in.Thumbnail.File, in.Thumbnail.Filename, pictures.CategoryThumbnails, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		thumbnail = name
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txRepo := repository.NewLessonRepository(tx)
	if err := txRepo.UpdateLesson(lesson.ID, in.Title, in.Content, slug, thumbnail, courseID); err != nil {
		if thumbnail != lesson.Thumbnail {
			s.pictures.Delete(thumbnail, pictures.CategoryThumbnails)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if thumbnail != lesson.Thumbnail {
			s.pictures.Delete(thumbnail, pictures.CategoryThumbnails)
		}
		return nil, fmt.Errorf("failed to commit lesson update: %w", err)
	}

	// Old thumbnail goes only after the new state is durable
	if in.Thumbnail != nil && thumbnail != lesson.Thumbnail {
		s.pictures.Delete(lesson.Thumbnail, pictures.CategoryThumbnails)
	}

	updated := *lesson
	updated.Title = in.Title
	updated.Content = in.Content
	updated.Slug = slug
	updated.Thumbnail = thumbnail
	updated.CourseID = courseID
	return &updated, nil
}

// DeleteLesson removes a lesson. Only its author (or an administrator) may
// delete it. The thumbnail asset is released after the record is gone;
// thumbnail cleanup failures never block the delete.
func (s *ContentService) DeleteLesson(lessonID int64, requester *models.User) error {
	lesson, err := s.lessonRepo.GetLessonByID(lessonID)
	if err != nil {
		return err
	}
	if lesson == nil {
		return ErrNotFound
	}

	if !s.gate.CanManage(requester, lesson.UserID) {
		return ErrNotAuthorized
	}

	if err := s.lessonRepo.DeleteLesson(lesson.ID); err != nil {
		return err
	}

	s.pictures.Delete(lesson.Thumbnail, pictures.CategoryThumbnails)
	return nil
}

// DeleteCourse removes a course and every lesson in it. Courses have no
// single author, so only an administrator may delete one. Asset files are
// released only after the rows are durably gone.
func (s *ContentService) DeleteCourse(courseID int64, requester *models.User) error {
	if !s.gate.IsAdmin(requester) {
		return ErrNotAuthorized
	}

	course, err := s.courseRepo.GetCourseByID(courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return ErrNotFound
	}

	lessons, err := s.lessonRepo.GetCourseLessonsOrdered(course.ID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txLessons := repository.NewLessonRepository(tx)
	for i := range lessons {
		if err := txLessons.DeleteLesson(lessons[i].ID); err != nil {
			return fmt.Errorf("failed to delete lesson %d: %w", lessons[i].ID, err)
		}
	}
	if err := repository.NewCourseRepository(tx).DeleteCourse(course.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit course delete: %w", err)
	}

	for i := range lessons {
		s.pictures.Delete(lessons[i].Thumbnail, pictures.CategoryThumbnails)
	}
	s.pictures.Delete(course.Icon, pictures.CategoryIcons)
	return nil
}

// ListLessons returns one page of all lessons, newest first
func (s *ContentService) ListLessons(page int) (Page[models.Lesson], error) {
	if page < 1 {
		page = 1
	}
	total, err := s.lessonRepo.CountLessons()
	if err != nil {
		return Page[models.Lesson]{}, err
	}
	items, err := s.lessonRepo.ListLessons(s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return Page[models.Lesson]{}, err
	}
	return Page[models.Lesson]{Items: items, Number: page, Size: s.pageSize, TotalItems: total}, nil
}

// ListCourseLessons returns one page of a course's lessons, newest first
func (s *ContentService) ListCourseLessons(course *models.Course, page int) (Page[models.Lesson], error) {
	if page < 1 {
		page = 1
	}
	total, err := s.lessonRepo.CountCourseLessons(course.ID)
	if err != nil {
		return Page[models.Lesson]{}, err
	}
	items, err := s.lessonRepo.ListCourseLessons(course.ID, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return Page[models.Lesson]{}, err
	}
	return Page[models.Lesson]{Items: items, Number: page, Size: s.pageSize, TotalItems: total}, nil
}

// ListLessonsByAuthor returns one page of a user's lessons, newest first
func (s *ContentService) ListLessonsByAuthor(userID int64, page int) (Page[models.Lesson], error) {
	if page < 1 {
		page = 1
	}
	total, err := s.lessonRepo.CountLessonsByAuthor(userID)
	if err != nil {
		return Page[models.Lesson]{}, err
	}
	items, err := s.lessonRepo.ListLessonsByAuthor(userID, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return Page[models.Lesson]{}, err
	}
	return Page[models.Lesson]{Items: items, Number: page, Size: s.pageSize, TotalItems: total}, nil
}
