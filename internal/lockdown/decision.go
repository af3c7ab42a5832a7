package lockdown

import (
	"context"
	"errors"
)

// Decide returns the admission verdict for id on courseID. While the exam is
// active the request must carry a valid SEB hash and the user must not have
// finalized. When it is not, a SEB session that belongs to another exam the
// user already finished is sent back to that exam's page.
//
// A nil error with Allow is advisory: the exam entry password is checked by Enter.
func (e *Engine) Decide(ctx context.Context, cfg CourseExamConfig, courseID string, id RequestIdentity) (Verdict, error) {
	if !cfg.Active {
		if !id.InLockdownBrowser() {
			return Allowed(), nil
		}
		return e.RedirectToFinishedExam(ctx, id)
	}

	if !Verify(id.HomeURL, id.RequestPath, cfg.LockdownSecret, id.SuppliedFingerprint) {
		return Denied(ErrFingerprintMismatch), nil
	}
	finalized, err := e.Status.IsFinalized(ctx, courseID, id.Username)
	if err != nil {
		return Verdict{}, err
	}
	if finalized {
		return Denied(ErrAlreadyFinalized), nil
	}
	return Allowed(), nil
}

// RedirectToFinishedExam scans the user's finalized exams in course order and
// redirects to the first one whose stored secret still matches the SEB hash
// of this request while its exam is active.
func (e *Engine) RedirectToFinishedExam(ctx context.Context, id RequestIdentity) (Verdict, error) {
	if !id.InLockdownBrowser() || id.Username == "" {
		return Allowed(), nil
	}
	recs, err := e.Status.FinishedExams(ctx, id.Username)
	if err != nil {
		return Verdict{}, err
	}
	for _, rec := range recs {
		secret := rec.LockdownSecretAtFinalization
		if secret == "" || !Verify(id.HomeURL, id.RequestPath, secret, id.SuppliedFingerprint) {
			continue
		}
		cfg, err := e.Configs.GetConfig(ctx, rec.CourseID)
		if errors.Is(err, ErrCourseNotFound) {
			continue
		}
		if err != nil {
			return Verdict{}, storeErr(err)
		}
		if !cfg.Active {
			continue
		}
		staff, err := e.Directory.IsStaff(ctx, rec.CourseID, id.Username)
		if err != nil {
			return Verdict{}, storeErr(err)
		}
		if staff {
			continue
		}
		return RedirectTo(examPath(rec.CourseID)), nil
	}
	return Allowed(), nil
}
