package models

import "time"

// Course carries the exam lockdown settings next to its descriptor. ID is
// the course code chosen by the admin and appears in page URLs.
type Course struct {
	ID           string `gorm:"size:64;primaryKey"`
	Name         string
	ExamActive   bool `gorm:"index"`
	ExamPassword string
	SebHash      string
	ExamWebcam   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CourseRegistration maps a user to a course. Staff rows are supervisors
// (pengawas) of the course; the rest are students.
type CourseRegistration struct {
	ID          uint   `gorm:"primaryKey"`
	CourseIDRef string `gorm:"size:64;uniqueIndex:uniq_course_user"`
	Username    string `gorm:"uniqueIndex:uniq_course_user;index"`
	Staff       bool   `gorm:"index"`
	CreatedAt   time.Time
}
