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
	"github.com/zaqqye/seb_exam_gate/internal/utils"
)

type AdminController struct {
	DB *gorm.DB
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`   // defaults to siswa
	Active   *bool  `json:"active"` // defaults to true
}

func (a *AdminController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleSiswa
	}
	if !IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		FullName: req.FullName,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: pw,
		Role:     role,
		Active:   active,
	}
	if err := a.DB.Create(&user).Error; err != nil {
		if repository.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, userJSON(user))
}

func (a *AdminController) ListUsers(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, role, active
	all := strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1"
	limit := 50
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
		"created_at": "created_at",
		"username":   "username",
		"full_name":  "full_name",
		"email":      "email",
		"role":       "role",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "username"
	}
	order := fmt.Sprintf("%s %s", sortCol, sortDir)

	qText := strings.ToLower(strings.TrimSpace(c.Query("q")))
	role := strings.ToLower(strings.TrimSpace(c.Query("role")))
	activeStr := strings.ToLower(strings.TrimSpace(c.Query("active")))

	base := a.DB.Model(&models.User{})
	if qText != "" {
		like := "%" + qText + "%"
		base = base.Where("LOWER(username) LIKE ? OR LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}
	if role != "" {
		if !IsValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		base = base.Where("role = ?", role)
	}
	switch activeStr {
	case "":
	case "true", "1":
		base = base.Where("active = ?", true)
	case "false", "0":
		base = base.Where("active = ?", false)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active value"})
		return
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(order)
	if !all {
		listQ = listQ.Offset((page - 1) * limit).Limit(limit)
	}
	var users []models.User
	if err := listQ.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
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

func (a *AdminController) GetUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var u models.User
	if err := a.DB.Where("id = ?", userID).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, userJSON(u))
}

type updateUserRequest struct {
	FullName *string         `json:"full_name"`
	Email    *string         `json:"email"`
	Password *FlexibleString `json:"password"`
	Role     *string         `json:"role"`
	Active   *bool           `json:"active"`
}

func (a *AdminController) UpdateUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var u models.User
	if err := a.DB.Where("id = ?", userID).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		if !IsValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		u.Role = *req.Role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if req.Password != nil {
		if raw := req.Password.Trimmed(); raw != "" {
			pw, err := utils.HashPassword(raw)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
				return
			}
			u.Password = pw
		}
	}

	if err := a.DB.Save(&u).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// DeleteUser removes the user and their registrations. Exam status rows are
// kept: they are the record that the exam was handed in.
func (a *AdminController) DeleteUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var u models.User
	if err := a.DB.Where("id = ?", userID).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", u.Username).Delete(&models.CourseRegistration{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", u.ID).Delete(&models.User{}).Error
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func userJSON(u models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"full_name":  u.FullName,
		"email":      u.Email,
		"role":       u.Role,
		"active":     u.Active,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}
