package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/config"
	"github.com/zaqqye/seb_exam_gate/internal/lockdown"
	"github.com/zaqqye/seb_exam_gate/internal/middleware"
)

// ConfigController publishes what an SEB configuration needs to point at
// this server.
type ConfigController struct {
	Cfg *config.Config
}

func (cc *ConfigController) Get(c *gin.Context) {
	home := middleware.HomeURL(c, cc.Cfg.PublicBaseURL)
	c.JSON(http.StatusOK, gin.H{
		"home_url":            home,
		"start_url":           home + "/courses",
		"quit_url":            home + "/seb-quit",
		"request_hash_header": lockdown.RequestHashHeader,
		"schema_version":      1,
	})
}
