package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

type SubmissionController struct {
	DB     *gorm.DB
	Engine *lockdown.Engine
}

type submissionRequest struct {
	TaskID  string          `json:"task_id" binding:"required"`
	Input   json.RawMessage `json:"input"`
	Picture string          `json:"@picture"`
}

// Submit stores a task answer. During an exam the request goes through the
// same admission as the course page, then the webcam gate.
func (sc *SubmissionController) Submit(c *gin.Context) {
	courseID := c.Param("course_id")
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	cfg, err := sc.Engine.Configs.GetConfig(ctx, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := identityFor(c, sc.Engine, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	verdict, err := sc.Engine.Decide(ctx, cfg, courseID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	switch verdict.Kind {
	case lockdown.Redirect:
		c.Redirect(http.StatusSeeOther, verdict.Location)
		return
	case lockdown.Deny:
		respondDenied(c, courseID, verdict.Reason)
		return
	}

	picture := strings.TrimSpace(req.Picture)
	if !lockdown.CheckWebcamPrecondition(cfg, picture != "") {
		respondError(c, lockdown.ErrMissingWebcamArtifact)
		return
	}

	input := req.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	sub := models.Submission{
		CourseIDRef: courseID,
		Username:    id.Username,
		TaskID:      strings.TrimSpace(req.TaskID),
		Input:       datatypes.JSON(input),
		Picture:     picture,
	}
	if err := sc.DB.Create(&sub).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         sub.ID,
		"course_id":  sub.CourseIDRef,
		"task_id":    sub.TaskID,
		"created_at": sub.CreatedAt,
	})
}

// ListMine returns the caller's submissions in a course, newest first,
// without the pictures.
func (sc *SubmissionController) ListMine(c *gin.Context) {
	user, _ := currentUser(c)
	var subs []models.Submission
	if err := sc.DB.Select("id", "course_id_ref", "username", "task_id", "input", "created_at").
		Where("course_id_ref = ? AND username = ?", c.Param("course_id"), user.Username).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(subs))
	for _, s := range subs {
		out = append(out, gin.H{
			"id":         s.ID,
			"task_id":    s.TaskID,
			"input":      s.Input,
			"created_at": s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
