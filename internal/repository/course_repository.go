package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

// CourseRepository stores exam configuration on the courses table.
type CourseRepository struct {
	base
}

func NewCourseRepository(db *gorm.DB, timeout time.Duration) *CourseRepository {
	return &CourseRepository{base: newBase(db, timeout)}
}

func (r *CourseRepository) GetConfig(ctx context.Context, courseID string) (lockdown.CourseExamConfig, error) {
	db, cancel := r.with(ctx)
	defer cancel()
	var course models.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lockdown.CourseExamConfig{}, lockdown.ErrCourseNotFound
		}
		return lockdown.CourseExamConfig{}, wrap("get course config", err)
	}
	return ConfigOf(course), nil
}

// PutConfig rewrites the four exam columns in one UPDATE.
func (r *CourseRepository) PutConfig(ctx context.Context, courseID string, cfg lockdown.CourseExamConfig) error {
	db, cancel := r.with(ctx)
	defer cancel()
	res := db.Model(&models.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"exam_active":   cfg.Active,
		"exam_password": cfg.Password,
		"seb_hash":      cfg.LockdownSecret,
		"exam_webcam":   cfg.WebcamRequired,
	})
	if res.Error != nil {
		return wrap("put course config", res.Error)
	}
	if res.RowsAffected == 0 {
		return lockdown.ErrCourseNotFound
	}
	return nil
}

func (r *CourseRepository) ListCourseIDs(ctx context.Context) ([]string, error) {
	db, cancel := r.with(ctx)
	defer cancel()
	var ids []string
	if err := db.Model(&models.Course{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, wrap("list courses", err)
	}
	return ids, nil
}

// ConfigOf extracts the typed exam config from a course row.
func ConfigOf(c models.Course) lockdown.CourseExamConfig {
	return lockdown.CourseExamConfig{
		Active:         c.ExamActive,
		Password:       c.ExamPassword,
		LockdownSecret: c.SebHash,
		WebcamRequired: c.ExamWebcam,
	}
}
