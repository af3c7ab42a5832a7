package lockdown

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	AdminActionConfig   = "config"
	AdminActionFinalize = "finalize"
	AdminActionCancel   = "cancel"

	// AllUsers expands to every student registered in the course.
	AllUsers = "*"
)

// AdminParams carries the form fields of an admin action. The config fields
// are only read for AdminActionConfig.
type AdminParams struct {
	Username string
	Password string
	SebHash  string
	Active   bool
	Webcam   bool
}

// ParseFormBool coerces the admin form's "true"/"false" strings.
func ParseFormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}

// AdminUserRow is one line of the admin user table.
type AdminUserRow struct {
	Username    string `json:"username"`
	Finalized   bool   `json:"finalized"`
	SebHash     string `json:"seb_hash,omitempty"`
	FinalizedAt string `json:"finalized_at,omitempty"`
}

// AdminView is everything the admin exam page shows.
type AdminView struct {
	CourseID     string           `json:"course_id"`
	Config       CourseExamConfig `json:"config"`
	ExpectedHash string           `json:"expected_hash"`
	ReceivedHash string           `json:"received_hash"`
	Users        []AdminUserRow   `json:"users"`
	Errors       []string         `json:"errors"`
	Saved        bool             `json:"saved"`
}

// HandleAdminAction applies one admin action with administrative authority:
// password and SEB hash checks do not apply. The returned view reflects the
// state after the action.
func (e *Engine) HandleAdminAction(ctx context.Context, courseID, action string, params AdminParams, id RequestIdentity) (AdminView, error) {
	cfg, err := e.config(ctx, courseID)
	if err != nil {
		return AdminView{}, err
	}

	saved := false
	switch action {
	case AdminActionConfig:
		next := CourseExamConfig{
			Active:         params.Active,
			Password:       params.Password,
			LockdownSecret: params.SebHash,
			WebcamRequired: params.Webcam,
		}
		if err := e.Configs.PutConfig(ctx, courseID, next); err != nil {
			return AdminView{}, storeErr(err)
		}
	case AdminActionFinalize:
		users, err := e.targetUsers(ctx, courseID, params.Username)
		if err != nil {
			return AdminView{}, err
		}
		if err := e.Status.FinalizeAll(ctx, courseID, users, cfg.LockdownSecret); err != nil {
			return AdminView{}, err
		}
		saved = true
	case AdminActionCancel:
		if params.Username == "" {
			return AdminView{}, ErrMissingUsername
		}
		if params.Username == AllUsers {
			err = e.Status.CancelAll(ctx, courseID)
		} else {
			err = e.Status.Cancel(ctx, courseID, params.Username)
		}
		if err != nil {
			return AdminView{}, err
		}
		saved = true
	default:
		return AdminView{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	view, err := e.AdminPage(ctx, courseID, id)
	if err != nil {
		return AdminView{}, err
	}
	view.Saved = saved
	return view, nil
}

func (e *Engine) targetUsers(ctx context.Context, courseID, username string) ([]string, error) {
	if username == "" {
		return nil, ErrMissingUsername
	}
	if username != AllUsers {
		return []string{username}, nil
	}
	users, err := e.Directory.RegisteredUsers(ctx, courseID, false)
	if err != nil {
		return nil, storeErr(err)
	}
	return users, nil
}

// AdminPage builds the admin view: registered students with their status,
// and the expected vs. received SEB hash for the admin's own request.
func (e *Engine) AdminPage(ctx context.Context, courseID string, id RequestIdentity) (AdminView, error) {
	cfg, err := e.config(ctx, courseID)
	if err != nil {
		return AdminView{}, err
	}
	users, err := e.Directory.RegisteredUsers(ctx, courseID, false)
	if err != nil {
		return AdminView{}, storeErr(err)
	}
	recs, err := e.Status.CourseRecords(ctx, courseID)
	if err != nil {
		return AdminView{}, err
	}
	byUser := make(map[string]ExamStatusRecord, len(recs))
	for _, rec := range recs {
		byUser[rec.Username] = rec
	}

	sort.Strings(users)
	rows := make([]AdminUserRow, 0, len(users))
	for _, username := range users {
		row := AdminUserRow{Username: username}
		if rec, ok := byUser[username]; ok {
			row.Finalized = true
			row.SebHash = rec.LockdownSecretAtFinalization
			if !rec.FinalizedAt.IsZero() {
				row.FinalizedAt = rec.FinalizedAt.UTC().Format("2006-01-02T15:04:05Z")
			}
		}
		rows = append(rows, row)
	}

	return AdminView{
		CourseID:     courseID,
		Config:       cfg,
		ExpectedHash: Fingerprint(id.HomeURL, id.RequestPath, cfg.LockdownSecret),
		ReceivedHash: id.SuppliedFingerprint,
		Users:        rows,
		Errors:       []string{},
	}, nil
}
