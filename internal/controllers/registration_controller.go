package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/models"
	"github.com/zaqqye/seb_exam_gate/internal/repository"
)

type RegistrationController struct {
	DB        *gorm.DB
	Directory *repository.Directory
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Staff    bool   `json:"staff"`
}

// Register enrols a siswa as student or a pengawas as staff of the course.
func (rc *RegistrationController) Register(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("course_id"))
	var course models.Course
	if err := rc.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user models.User
	if err := rc.DB.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	ctx := c.Request.Context()
	var err error
	if req.Staff {
		if user.Role != models.RolePengawas {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is not pengawas"})
			return
		}
		err = rc.Directory.RegisterStaff(ctx, course.ID, user.Username)
	} else {
		if user.Role != models.RoleSiswa {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is not siswa"})
			return
		}
		err = rc.Directory.Register(ctx, course.ID, user.Username)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "registered"})
}

// Unregister removes a registration. Admins may do so while the exam runs.
func (rc *RegistrationController) Unregister(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("course_id"))
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if err := rc.Directory.Unregister(c.Request.Context(), courseID, username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unregistered"})
}

// ListRegistrations lists the members of a course with pagination/sort.
func (rc *RegistrationController) ListRegistrations(c *gin.Context) {
	courseID := strings.TrimSpace(c.Param("course_id"))
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
	sortBy := strings.ToLower(c.DefaultQuery("sort_by", "username"))
	sortDir := strings.ToUpper(c.DefaultQuery("sort_dir", "ASC"))
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "ASC"
	}
	allowedSorts := map[string]string{
		"username":   "cr.username",
		"full_name":  "u.full_name",
		"created_at": "cr.created_at",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "cr.username"
	}

	base := rc.DB.Table("course_registrations AS cr").Where("cr.course_id_ref = ?", courseID)
	switch strings.ToLower(c.Query("staff")) {
	case "true", "1":
		base = base.Where("cr.staff = ?", true)
	case "false", "0":
		base = base.Where("cr.staff = ?", false)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type row struct {
		Username  string `json:"username"`
		FullName  string `json:"full_name"`
		Staff     bool   `json:"staff"`
		Finalized bool   `json:"finalized"`
	}
	q := base.Session(&gorm.Session{}).
		Select("cr.username, u.full_name, cr.staff, CASE WHEN es.id IS NULL THEN 0 ELSE 1 END AS finalized").
		Joins("LEFT JOIN users u ON u.username = cr.username").
		Joins("LEFT JOIN exam_statuses es ON es.course_id_ref = cr.course_id_ref AND es.username = cr.username").
		Order(fmt.Sprintf("%s %s", sortCol, sortDir))
	if !all {
		q = q.Offset((page - 1) * limit).Limit(limit)
	}
	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	meta := gin.H{"total": total, "all": all}
	if !all {
		meta["limit"] = limit
		meta["page"] = page
		meta["sort_by"] = sortBy
		meta["sort_dir"] = sortDir
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "meta": meta})
}
