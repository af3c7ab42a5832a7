package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/middleware"
	"github.com/zaqqye/seb_exam_gate/internal/models"
)

type ExamAdminController struct {
	DB     *gorm.DB
	Engine *lockdown.Engine
}

type examAdminRequest struct {
	Action   string         `json:"action" form:"action"`
	Username string         `json:"username" form:"username"`
	Password FlexibleString `json:"password" form:"password"`
	SebHash  string         `json:"seb_hash" form:"seb_hash"`
	Active   FlexibleString `json:"active" form:"active"`
	Webcam   FlexibleString `json:"webcam" form:"webcam"`
}

// Page serves GET /admin/:course_id/exam.
func (ac *ExamAdminController) Page(c *gin.Context) {
	courseID := c.Param("course_id")
	view, err := ac.Engine.AdminPage(c.Request.Context(), courseID, identityForAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Action serves POST /admin/:course_id/exam. Validation errors are reported
// inside the view so the page can show them next to the form.
func (ac *ExamAdminController) Action(c *gin.Context) {
	courseID := c.Param("course_id")
	var req examAdminRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action := strings.TrimSpace(req.Action)
	params := lockdown.AdminParams{
		Username: strings.TrimSpace(req.Username),
		Password: string(req.Password),
		SebHash:  strings.TrimSpace(req.SebHash),
		Active:   lockdown.ParseFormBool(string(req.Active)),
		Webcam:   lockdown.ParseFormBool(string(req.Webcam)),
	}
	id := identityForAdmin(c)

	view, err := ac.Engine.HandleAdminAction(c.Request.Context(), courseID, action, params, id)
	if err != nil {
		status := errorStatus(err)
		if status != http.StatusBadRequest {
			respondError(c, err)
			return
		}
		view, perr := ac.Engine.AdminPage(c.Request.Context(), courseID, id)
		if perr != nil {
			respondError(c, perr)
			return
		}
		view.Errors = append(view.Errors, err.Error())
		c.JSON(status, view)
		return
	}
	ac.audit(courseID, id.Username, action, params)
	c.JSON(http.StatusOK, view)
}

// Audit lists the admin actions recorded for a course, newest first.
func (ac *ExamAdminController) Audit(c *gin.Context) {
	courseID := c.Param("course_id")
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	var logs []models.ExamAuditLog
	if err := ac.DB.Where("course_id_ref = ?", courseID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(logs))
	for _, l := range logs {
		out = append(out, gin.H{
			"id":         l.ID,
			"actor":      l.Actor,
			"action":     l.Action,
			"params":     l.Params,
			"created_at": l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// audit is best effort: the action itself already succeeded.
func (ac *ExamAdminController) audit(courseID, actor, action string, params lockdown.AdminParams) {
	payload := map[string]interface{}{}
	switch action {
	case lockdown.AdminActionConfig:
		payload["active"] = params.Active
		payload["webcam"] = params.Webcam
		payload["seb_hash"] = params.SebHash
		payload["password_set"] = params.Password != ""
	default:
		payload["username"] = params.Username
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("audit %s/%s: %v", courseID, action, err)
		return
	}
	entry := models.ExamAuditLog{
		CourseIDRef: courseID,
		Actor:       actor,
		Action:      action,
		Params:      datatypes.JSON(raw),
	}
	if err := ac.DB.Create(&entry).Error; err != nil {
		log.Printf("audit %s/%s: %v", courseID, action, err)
	}
}

// identityForAdmin is the admin's own request identity, used for the
// expected/received hash display.
func identityForAdmin(c *gin.Context) lockdown.RequestIdentity {
	id := middleware.Identity(c)
	id.IsStaff = true
	return id
}
