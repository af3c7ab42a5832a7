package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/middleware"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

// PageExamComplete is the page shown to finalized users and on entry errors.
const PageExamComplete = "exam_complete"

func currentUser(c *gin.Context) (models.User, bool) {
	uVal, ok := c.Get("user")
	if !ok {
		return models.User{}, false
	}
	return uVal.(models.User), true
}

// identityFor completes the request identity with the course-level staff flag.
func identityFor(c *gin.Context, engine *lockdown.Engine, courseID string) (lockdown.RequestIdentity, error) {
	id := middleware.Identity(c)
	if id.IsStaff || id.Username == "" {
		return id, nil
	}
	staff, err := engine.Directory.IsStaff(c.Request.Context(), courseID, id.Username)
	if err != nil {
		return id, err
	}
	id.IsStaff = staff
	return id, nil
}

// errorStatus maps engine errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, lockdown.ErrCourseNotFound):
		return http.StatusNotFound
	case errors.Is(err, lockdown.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, lockdown.ErrUnknownAction), errors.Is(err, lockdown.ErrMissingUsername):
		return http.StatusBadRequest
	case errors.Is(err, lockdown.ErrInvalidCredentials), errors.Is(err, lockdown.ErrFingerprintMismatch):
		return http.StatusForbidden
	case errors.Is(err, lockdown.ErrMissingWebcamArtifact):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// respondDenied renders a Deny verdict: finalized users get the exam
// complete page, everything else is an error banner.
func respondDenied(c *gin.Context, courseID string, reason error) {
	if errors.Is(reason, lockdown.ErrAlreadyFinalized) {
		c.JSON(http.StatusOK, gin.H{
			"page":      PageExamComplete,
			"course_id": courseID,
			"message":   "Your exam is complete. No further access is possible.",
		})
		return
	}
	if reason == nil {
		reason = lockdown.ErrFingerprintMismatch
	}
	c.JSON(errorStatus(reason), gin.H{"error": reason.Error()})
}
