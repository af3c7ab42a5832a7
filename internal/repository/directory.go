package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/models"
)

// Directory answers membership questions from users and course_registrations.
// Admins count as staff everywhere.
type Directory struct {
	base
}

func NewDirectory(db *gorm.DB, timeout time.Duration) *Directory {
	return &Directory{base: newBase(db, timeout)}
}

func (d *Directory) RegisteredUsers(ctx context.Context, courseID string, includeStaff bool) ([]string, error) {
	db, cancel := d.with(ctx)
	defer cancel()
	q := db.Model(&models.CourseRegistration{}).Where("course_id_ref = ?", courseID)
	if !includeStaff {
		q = q.Where("staff = ?", false)
	}
	var users []string
	if err := q.Order("username ASC").Pluck("username", &users).Error; err != nil {
		return nil, wrap("list registered users", err)
	}
	return users, nil
}

func (d *Directory) IsStaff(ctx context.Context, courseID, username string) (bool, error) {
	db, cancel := d.with(ctx)
	defer cancel()
	var admins int64
	if err := db.Model(&models.User{}).
		Where("username = ? AND role = ?", username, models.RoleAdmin).
		Count(&admins).Error; err != nil {
		return false, wrap("check admin", err)
	}
	if admins > 0 {
		return true, nil
	}
	var count int64
	if err := db.Model(&models.CourseRegistration{}).
		Where("course_id_ref = ? AND username = ? AND staff = ?", courseID, username, true).
		Count(&count).Error; err != nil {
		return false, wrap("check staff", err)
	}
	return count > 0, nil
}

func (d *Directory) IsRegistered(ctx context.Context, courseID, username string) (bool, error) {
	db, cancel := d.with(ctx)
	defer cancel()
	var count int64
	if err := db.Model(&models.CourseRegistration{}).
		Where("course_id_ref = ? AND username = ?", courseID, username).
		Count(&count).Error; err != nil {
		return false, wrap("check registration", err)
	}
	return count > 0, nil
}

// Register enrols username as a student. An existing row is switched to
// student.
func (d *Directory) Register(ctx context.Context, courseID, username string) error {
	return d.register(ctx, courseID, username, false)
}

// RegisterStaff enrols username as a supervisor of the course.
func (d *Directory) RegisterStaff(ctx context.Context, courseID, username string) error {
	return d.register(ctx, courseID, username, true)
}

func (d *Directory) register(ctx context.Context, courseID, username string, staff bool) error {
	db, cancel := d.with(ctx)
	defer cancel()
	rec := models.CourseRegistration{CourseIDRef: courseID, Username: username}
	err := db.Where("course_id_ref = ? AND username = ?", courseID, username).
		Assign(map[string]interface{}{"staff": staff}).
		FirstOrCreate(&rec).Error
	return wrap("register user", err)
}

func (d *Directory) Unregister(ctx context.Context, courseID, username string) error {
	db, cancel := d.with(ctx)
	defer cancel()
	err := db.Where("course_id_ref = ? AND username = ?", courseID, username).Delete(&models.CourseRegistration{}).Error
	return wrap("unregister user", err)
}
