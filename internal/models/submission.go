package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission is a task answer posted during a course. Picture holds the
// webcam snapshot (data URL) when one was taken.
type Submission struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	CourseIDRef string `gorm:"size:64;index"`
	Username    string `gorm:"index"`
	TaskID      string
	Input       datatypes.JSON
	Picture     string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (s *Submission) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
