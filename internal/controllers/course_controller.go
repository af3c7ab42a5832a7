package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/models"
	"github.com/zaqqye/seb_exam_gate/internal/repository"
)

type CourseController struct {
	DB        *gorm.DB
	Engine    *lockdown.Engine
	Directory *repository.Directory
}

type createCourseRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type updateCourseRequest struct {
	Name *string `json:"name"`
}

func (cc *CourseController) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" || strings.ContainsAny(id, "/?#") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	course := models.Course{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := cc.DB.Create(&course).Error; err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "course already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, courseJSON(course))
}

func (cc *CourseController) ListCourses(c *gin.Context) {
	all := strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1"
	limit := 20
	page := 1
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	sortBy := strings.ToLower(c.DefaultQuery("sort_by", "id"))
	sortDir := strings.ToUpper(c.DefaultQuery("sort_dir", "ASC"))
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "ASC"
	}
	allowedSorts := map[string]string{
		"id":          "id",
		"name":        "name",
		"created_at":  "created_at",
		"exam_active": "exam_active",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "id"
	}

	base := cc.DB.Model(&models.Course{})
	switch strings.ToLower(strings.TrimSpace(c.Query("exam_active"))) {
	case "":
	case "true", "1":
		base = base.Where("exam_active = ?", true)
	case "false", "0":
		base = base.Where("exam_active = ?", false)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam_active value"})
		return
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(fmt.Sprintf("%s %s", sortCol, sortDir))
	if !all {
		listQ = listQ.Offset((page - 1) * limit).Limit(limit)
	}
	var courses []models.Course
	if err := listQ.Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(courses))
	for _, course := range courses {
		out = append(out, courseJSON(course))
	}
	meta := gin.H{"total": total, "all": all}
	if !all {
		meta["limit"] = limit
		meta["page"] = page
		meta["sort_by"] = sortCol
		meta["sort_dir"] = sortDir
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

func (cc *CourseController) GetCourse(c *gin.Context) {
	var course models.Course
	if err := cc.DB.Where("id = ?", c.Param("course_id")).First(&course).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	c.JSON(http.StatusOK, courseJSON(course))
}

func (cc *CourseController) UpdateCourse(c *gin.Context) {
	var course models.Course
	if err := cc.DB.Where("id = ?", c.Param("course_id")).First(&course).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		course.Name = strings.TrimSpace(*req.Name)
	}
	if err := cc.DB.Model(&course).Update("name", course.Name).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// DeleteCourse drops the course with its registrations and exam statuses.
// Statuses go through the engine so the cache forgets them as well.
func (cc *CourseController) DeleteCourse(c *gin.Context) {
	courseID := c.Param("course_id")
	var course models.Course
	if err := cc.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	if err := cc.Engine.Status.CancelAll(c.Request.Context(), courseID); err != nil {
		respondError(c, err)
		return
	}
	err := cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id_ref = ?", courseID).Delete(&models.CourseRegistration{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", courseID).Delete(&models.Course{}).Error
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// MainMenu lists the caller's courses. Admins see all of them. The lockdown
// hooks of the main menu already ran in front of this handler.
func (cc *CourseController) MainMenu(c *gin.Context) {
	user, _ := currentUser(c)
	q := cc.DB.Model(&models.Course{}).Order("id ASC")
	if user.Role != models.RoleAdmin {
		sub := cc.DB.Model(&models.CourseRegistration{}).Select("course_id_ref").Where("username = ?", user.Username)
		q = q.Where("id IN (?)", sub)
	}
	var courses []models.Course
	if err := q.Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(courses))
	for _, course := range courses {
		out = append(out, courseMenuJSON(course))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// CoursePage admits the caller into a course according to its exam settings.
func (cc *CourseController) CoursePage(c *gin.Context) {
	courseID := c.Param("course_id")
	var course models.Course
	if err := cc.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	id, err := identityFor(c, cc.Engine, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	verdict, err := cc.Engine.Decide(c.Request.Context(), repository.ConfigOf(course), courseID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	switch verdict.Kind {
	case lockdown.Redirect:
		c.Redirect(http.StatusSeeOther, verdict.Location)
	case lockdown.Deny:
		respondDenied(c, courseID, verdict.Reason)
	default:
		c.JSON(http.StatusOK, courseMenuJSON(course))
	}
}

// Unregister removes the caller from a course, unless its exam is running.
func (cc *CourseController) Unregister(c *gin.Context) {
	courseID := c.Param("course_id")
	user, _ := currentUser(c)
	cfg, err := cc.Engine.Configs.GetConfig(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !lockdown.AllowUnregister(cfg) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot unregister while the exam is active"})
		return
	}
	if err := cc.Directory.Unregister(c.Request.Context(), courseID, user.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unregistered"})
}

func courseJSON(course models.Course) gin.H {
	return gin.H{
		"id":         course.ID,
		"name":       course.Name,
		"exam":       repository.ConfigOf(course),
		"created_at": course.CreatedAt,
		"updated_at": course.UpdatedAt,
	}
}

// courseMenuJSON never exposes the exam password or secret.
func courseMenuJSON(course models.Course) gin.H {
	entry := gin.H{
		"id":          course.ID,
		"name":        course.Name,
		"exam_active": course.ExamActive,
	}
	if course.ExamActive {
		entry["exam"] = gin.H{
			"url":               "/exam/" + course.ID,
			"password_required": course.ExamPassword != "",
			"webcam_required":   course.ExamWebcam,
		}
	}
	return entry
}
