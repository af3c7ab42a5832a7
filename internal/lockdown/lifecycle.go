package lockdown

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ActionFinalize is the form action a student posts to end their exam.
const ActionFinalize = "finalize"

// EntryForm is what a student posts on the exam page.
type EntryForm struct {
	Password string
	Action   string
}

// EntryResult tells the caller what to show after an exam page request.
// Complete means the "exam complete, quit SEB" page, either because the user
// is finalized or because Err must be shown there.
type EntryResult struct {
	Complete  bool
	Finalized bool
	Err       error
	Redirect  string
}

// ExamPage handles a plain visit of the exam page: only SEB sessions on an
// active exam see it, everybody else goes back to the course.
func (e *Engine) ExamPage(ctx context.Context, courseID string, id RequestIdentity) (EntryResult, error) {
	cfg, err := e.config(ctx, courseID)
	if err != nil {
		return EntryResult{}, err
	}
	if !cfg.Active || !id.InLockdownBrowser() {
		return EntryResult{Redirect: coursePath(courseID)}, nil
	}
	return e.display(ctx, courseID, id, nil)
}

// Enter checks the entry password and SEB hash and, for students asking to,
// finalizes the exam. The password is checked first.
func (e *Engine) Enter(ctx context.Context, courseID string, id RequestIdentity, form EntryForm) (EntryResult, error) {
	cfg, err := e.config(ctx, courseID)
	if err != nil {
		return EntryResult{}, err
	}
	var entryErr error
	if cfg.Active {
		switch {
		case form.Password != cfg.Password:
			entryErr = ErrInvalidCredentials
		case !Verify(id.HomeURL, id.RequestPath, cfg.LockdownSecret, id.SuppliedFingerprint):
			entryErr = ErrFingerprintMismatch
		case !id.IsStaff && form.Action == ActionFinalize:
			if err := e.Status.Finalize(ctx, courseID, id.Username, cfg.LockdownSecret); err != nil {
				return EntryResult{}, err
			}
		}
	}
	return e.display(ctx, courseID, id, entryErr)
}

func (e *Engine) display(ctx context.Context, courseID string, id RequestIdentity, entryErr error) (EntryResult, error) {
	finalized, err := e.Status.IsFinalized(ctx, courseID, id.Username)
	if err != nil {
		return EntryResult{}, err
	}
	if finalized || entryErr != nil {
		return EntryResult{Complete: true, Finalized: finalized, Err: entryErr}, nil
	}
	return EntryResult{Redirect: coursePath(courseID)}, nil
}

// AutoRegister enrols a SEB session into the first active exam, in course ID
// order, whose secret matches the request hash and redirects there. Staff
// and already registered users are only redirected.
func (e *Engine) AutoRegister(ctx context.Context, id RequestIdentity) (Verdict, error) {
	if !id.InLockdownBrowser() || id.Username == "" {
		return Allowed(), nil
	}
	courseIDs, err := e.Configs.ListCourseIDs(ctx)
	if err != nil {
		return Verdict{}, storeErr(err)
	}
	sort.Strings(courseIDs)
	for _, courseID := range courseIDs {
		cfg, err := e.Configs.GetConfig(ctx, courseID)
		if errors.Is(err, ErrCourseNotFound) {
			continue
		}
		if err != nil {
			return Verdict{}, storeErr(err)
		}
		if !cfg.Active || cfg.LockdownSecret == "" {
			continue
		}
		if !Verify(id.HomeURL, id.RequestPath, cfg.LockdownSecret, id.SuppliedFingerprint) {
			continue
		}
		if err := e.ensureRegistered(ctx, courseID, id.Username); err != nil {
			return Verdict{}, err
		}
		return RedirectTo(coursePath(courseID)), nil
	}
	return Allowed(), nil
}

func (e *Engine) ensureRegistered(ctx context.Context, courseID, username string) error {
	registered, err := e.Directory.IsRegistered(ctx, courseID, username)
	if err != nil {
		return storeErr(err)
	}
	if registered {
		return nil
	}
	staff, err := e.Directory.IsStaff(ctx, courseID, username)
	if err != nil {
		return storeErr(err)
	}
	if staff {
		return nil
	}
	if err := e.Directory.Register(ctx, courseID, username); err != nil {
		return storeErr(fmt.Errorf("register %s in %s: %w", username, courseID, err))
	}
	return nil
}

// CheckWebcamPrecondition reports whether a submission may go ahead.
func CheckWebcamPrecondition(cfg CourseExamConfig, hasPicture bool) bool {
	return !(cfg.Active && cfg.WebcamRequired) || hasPicture
}

// CheckSubmission loads the course config and applies the webcam gate. It
// never touches exam status.
func (e *Engine) CheckSubmission(ctx context.Context, courseID string, hasPicture bool) error {
	cfg, err := e.config(ctx, courseID)
	if err != nil {
		return err
	}
	if !CheckWebcamPrecondition(cfg, hasPicture) {
		return ErrMissingWebcamArtifact
	}
	return nil
}

// AllowUnregister keeps students enrolled while their exam runs.
func AllowUnregister(cfg CourseExamConfig) bool {
	return !cfg.Active
}

func (e *Engine) config(ctx context.Context, courseID string) (CourseExamConfig, error) {
	cfg, err := e.Configs.GetConfig(ctx, courseID)
	if err != nil {
		return CourseExamConfig{}, storeErr(err)
	}
	return cfg, nil
}
