// Package lockdown decides whether a request may enter a course exam.
//
// Admission needs two proofs: the request comes from a Safe Exam Browser
// session keyed with the course secret, and the user has not finalized the
// exam yet. The package also owns the finalize/cancel transitions and the
// admin actions that drive them.
package lockdown

import (
	"context"
	"time"
)

// CourseExamConfig is the exam part of a course descriptor. Zero values mean
// "no lockdown": inactive, no password, no secret, no webcam.
type CourseExamConfig struct {
	Active         bool   `json:"active"`
	Password       string `json:"password"`
	LockdownSecret string `json:"seb_hash"`
	WebcamRequired bool   `json:"webcam"`
}

// ExamStatusRecord marks a user as finalized in a course. Its existence is the flag.
type ExamStatusRecord struct {
	CourseID                     string    `json:"course_id"`
	Username                     string    `json:"username"`
	LockdownSecretAtFinalization string    `json:"seb_hash"`
	FinalizedAt                  time.Time `json:"finalized_at"`
}

// RequestIdentity is what the engine knows about the caller of one request.
type RequestIdentity struct {
	Username            string
	IsStaff             bool
	HomeURL             string
	RequestPath         string
	SuppliedFingerprint string
}

// InLockdownBrowser reports whether the request carried a SEB request hash.
func (id RequestIdentity) InLockdownBrowser() bool {
	return id.SuppliedFingerprint != ""
}

// ConfigStore reads and writes the exam configuration of courses.
type ConfigStore interface {
	GetConfig(ctx context.Context, courseID string) (CourseExamConfig, error)
	PutConfig(ctx context.Context, courseID string, cfg CourseExamConfig) error
	ListCourseIDs(ctx context.Context) ([]string, error)
}

// StatusRepository is the durable storage behind the Exam Status Store.
type StatusRepository interface {
	Upsert(ctx context.Context, courseID, username, secret string) error
	Exists(ctx context.Context, courseID, username string) (bool, error)
	Delete(ctx context.Context, courseID, username string) error
	DeleteCourse(ctx context.Context, courseID string) error
	ListByUser(ctx context.Context, username string) ([]ExamStatusRecord, error)
	ListByCourse(ctx context.Context, courseID string) ([]ExamStatusRecord, error)
}

// Directory answers course membership questions.
type Directory interface {
	RegisteredUsers(ctx context.Context, courseID string, includeStaff bool) ([]string, error)
	IsStaff(ctx context.Context, courseID, username string) (bool, error)
	IsRegistered(ctx context.Context, courseID, username string) (bool, error)
	Register(ctx context.Context, courseID, username string) error
}
