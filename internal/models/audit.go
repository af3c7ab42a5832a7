package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamAuditLog records admin actions on a course exam.
type ExamAuditLog struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	CourseIDRef string `gorm:"size:64;index"`
	Actor       string
	Action      string `gorm:"size:32"`
	Params      datatypes.JSON
	CreatedAt   time.Time `gorm:"index"`
}

func (a *ExamAuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
