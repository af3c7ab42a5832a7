package models

import "time"

// ExamStatus exists once a user has finalized the exam of a course. SebHash
// is the course's lockdown secret at that moment.
type ExamStatus struct {
	ID          uint   `gorm:"primaryKey"`
	CourseIDRef string `gorm:"size:64;uniqueIndex:uniq_exam_status"`
	Username    string `gorm:"uniqueIndex:uniq_exam_status;index"`
	SebHash     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
