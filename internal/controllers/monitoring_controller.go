package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/middleware"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

// MonitoringController gives course staff the student side of the admin exam
// page: who has handed in, and per-student finalize/cancel. Exam settings
// stay admin-only.
type MonitoringController struct {
	Engine *lockdown.Engine
}

type monitoringTargetRequest struct {
	Username string `json:"username" binding:"required"`
}

// requireStaff checks that the caller supervises courseID; admins always do.
func (mc *MonitoringController) requireStaff(c *gin.Context, courseID string) (lockdown.RequestIdentity, bool) {
	user, _ := currentUser(c)
	id := middleware.Identity(c)
	id.Username = user.Username
	id.IsStaff = true
	if user.Role == models.RoleAdmin {
		return id, true
	}
	staff, err := mc.Engine.Directory.IsStaff(c.Request.Context(), courseID, user.Username)
	if err != nil {
		respondError(c, err)
		return id, false
	}
	if !staff {
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed for this course"})
		return id, false
	}
	return id, true
}

// ListStudents returns the registered students of a course with their
// exam status.
func (mc *MonitoringController) ListStudents(c *gin.Context) {
	courseID := c.Param("course_id")
	id, ok := mc.requireStaff(c, courseID)
	if !ok {
		return
	}
	view, err := mc.Engine.AdminPage(c.Request.Context(), courseID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"course_id":   courseID,
		"exam_active": view.Config.Active,
		"data":        view.Users,
	})
}

// FinalizeStudent hands in the exam of one student on their behalf.
func (mc *MonitoringController) FinalizeStudent(c *gin.Context) {
	mc.apply(c, lockdown.AdminActionFinalize, "finalized")
}

// CancelStudent clears a student's finalization so they can take the exam
// again.
func (mc *MonitoringController) CancelStudent(c *gin.Context) {
	mc.apply(c, lockdown.AdminActionCancel, "cancelled")
}

func (mc *MonitoringController) apply(c *gin.Context, action, message string) {
	courseID := c.Param("course_id")
	id, ok := mc.requireStaff(c, courseID)
	if !ok {
		return
	}
	var req monitoringTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == lockdown.AllUsers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bulk actions are admin-only"})
		return
	}
	view, err := mc.Engine.HandleAdminAction(c.Request.Context(), courseID, action, lockdown.AdminParams{Username: username}, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "data": view.Users})
}
