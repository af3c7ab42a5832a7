package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; rely on JWT auth.
		return true
	},
}

// MonitoringHandler streams exam status events. Admins see every course,
// pengawas only the courses they supervise.
func MonitoringHandler(db *gorm.DB, hub *MonitoringHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		uVal, ok := c.Get("user")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user := uVal.(models.User)
		if user.Role != models.RoleAdmin && user.Role != models.RolePengawas {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		allowAll := user.Role == models.RoleAdmin
		allowed := map[string]struct{}{}
		if !allowAll {
			var regs []models.CourseRegistration
			if err := db.Where("username = ? AND staff = ?", user.Username, true).Find(&regs).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if len(regs) == 0 {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no courses assigned"})
				return
			}
			for _, r := range regs {
				allowed[r.CourseIDRef] = struct{}{}
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newMonitoringClient(hub, conn, allowed, allowAll)
		hub.register <- client

		go client.writePump()
		client.readPump()
	}
}
