package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/middleware"
	"github.com/zaqqye/seb_exam_gate/internal/models"
	"github.com/zaqqye/seb_exam_gate/internal/utils"
)

type AuthController struct {
	DB        *gorm.DB
	JWTSecret string
	ExpiresIn time.Duration
}

type loginRequest struct {
	// Login accepts a username or an email.
	Login    string `json:"login" form:"login" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	login := strings.TrimSpace(req.Login)
	var user models.User
	if err := a.DB.Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := a.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}
	// SEB page loads cannot add headers, so the token also rides in a cookie.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(a.ExpiresIn.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(a.ExpiresIn.Seconds()),
		"role":         user.Role,
	})
}

func (a *AuthController) Me(c *gin.Context) {
	user, _ := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"full_name":  user.FullName,
		"role":       user.Role,
		"active":     user.Active,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	})
}

// Logout clears the cookie; bearer tokens stay valid until they expire.
func (a *AuthController) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (a *AuthController) issueToken(user models.User) (string, error) {
	now := time.Now().UTC()
	claims := middleware.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "seb_exam_gate",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ExpiresIn)),
			Subject:   user.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.JWTSecret))
}
