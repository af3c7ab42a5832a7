package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// userIDParam reads :user_id and rejects anything that is not a UUID before
// it reaches the uuid column.
func userIDParam(c *gin.Context) (string, bool) {
	raw := strings.TrimSpace(c.Param("user_id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return "", false
	}
	return id.String(), true
}
