package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

// StatusRepository persists finalized exams in exam_statuses.
type StatusRepository struct {
	base
}

func NewStatusRepository(db *gorm.DB, timeout time.Duration) *StatusRepository {
	return &StatusRepository{base: newBase(db, timeout)}
}

// Upsert inserts the record or refreshes its secret snapshot.
func (r *StatusRepository) Upsert(ctx context.Context, courseID, username, secret string) error {
	db, cancel := r.with(ctx)
	defer cancel()
	rec := models.ExamStatus{CourseIDRef: courseID, Username: username, SebHash: secret}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id_ref"}, {Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"seb_hash", "updated_at"}),
	}).Create(&rec).Error
	return wrap("upsert exam status", err)
}

func (r *StatusRepository) Exists(ctx context.Context, courseID, username string) (bool, error) {
	db, cancel := r.with(ctx)
	defer cancel()
	var count int64
	if err := db.Model(&models.ExamStatus{}).
		Where("course_id_ref = ? AND username = ?", courseID, username).
		Count(&count).Error; err != nil {
		return false, wrap("find exam status", err)
	}
	return count > 0, nil
}

func (r *StatusRepository) Delete(ctx context.Context, courseID, username string) error {
	db, cancel := r.with(ctx)
	defer cancel()
	err := db.Where("course_id_ref = ? AND username = ?", courseID, username).Delete(&models.ExamStatus{}).Error
	return wrap("delete exam status", err)
}

func (r *StatusRepository) DeleteCourse(ctx context.Context, courseID string) error {
	db, cancel := r.with(ctx)
	defer cancel()
	err := db.Where("course_id_ref = ?", courseID).Delete(&models.ExamStatus{}).Error
	return wrap("delete course exam statuses", err)
}

func (r *StatusRepository) ListByUser(ctx context.Context, username string) ([]lockdown.ExamStatusRecord, error) {
	return r.list(ctx, "list user exam statuses", "username = ?", username)
}

func (r *StatusRepository) ListByCourse(ctx context.Context, courseID string) ([]lockdown.ExamStatusRecord, error) {
	return r.list(ctx, "list course exam statuses", "course_id_ref = ?", courseID)
}

func (r *StatusRepository) list(ctx context.Context, op, where string, arg string) ([]lockdown.ExamStatusRecord, error) {
	db, cancel := r.with(ctx)
	defer cancel()
	var rows []models.ExamStatus
	if err := db.Where(where, arg).Order("course_id_ref ASC, username ASC").Find(&rows).Error; err != nil {
		return nil, wrap(op, err)
	}
	out := make([]lockdown.ExamStatusRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, lockdown.ExamStatusRecord{
			CourseID:                     row.CourseIDRef,
			Username:                     row.Username,
			LockdownSecretAtFinalization: row.SebHash,
			FinalizedAt:                  row.UpdatedAt,
		})
	}
	return out, nil
}
