package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
)

type ExamController struct {
	Engine *lockdown.Engine
}

type examEntryRequest struct {
	Password FlexibleString `json:"password" form:"password"`
	Action   string         `json:"action" form:"action"`
}

// Page serves GET /exam/:course_id.
func (ec *ExamController) Page(c *gin.Context) {
	courseID := c.Param("course_id")
	id, err := identityFor(c, ec.Engine, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := ec.Engine.ExamPage(c.Request.Context(), courseID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	ec.render(c, courseID, res)
}

// Enter serves POST /exam/:course_id with the entry password and an optional
// finalize action, as form fields or JSON.
func (ec *ExamController) Enter(c *gin.Context) {
	courseID := c.Param("course_id")
	var req examEntryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := identityFor(c, ec.Engine, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := ec.Engine.Enter(c.Request.Context(), courseID, id, lockdown.EntryForm{
		Password: string(req.Password),
		Action:   strings.TrimSpace(req.Action),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ec.render(c, courseID, res)
}

func (ec *ExamController) render(c *gin.Context, courseID string, res lockdown.EntryResult) {
	if !res.Complete {
		c.Redirect(http.StatusSeeOther, res.Redirect)
		return
	}
	body := gin.H{
		"page":      PageExamComplete,
		"course_id": courseID,
		"finalized": res.Finalized,
		"quit_url":  "/seb-quit",
	}
	status := http.StatusOK
	if res.Err != nil {
		body["error"] = res.Err.Error()
		status = errorStatus(res.Err)
	}
	c.JSON(status, body)
}
