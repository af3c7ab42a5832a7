package controllers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/middleware"
)

// SebQuit renders the page whose link SEB is configured to treat as its quit
// URL.
func SebQuit(publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		quit := middleware.HomeURL(c, publicBaseURL) + "/seb-quit"
		body := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Exam complete</title></head>
<body><p>Your exam is complete.</p><p><a href="%s">Quit Safe Exam Browser</a></p></body></html>`,
			html.EscapeString(quit))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
	}
}
