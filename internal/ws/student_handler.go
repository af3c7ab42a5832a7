package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/seb_exam_gate/internal/models"
)

func StudentHandler(hubs *Hubs) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hubs == nil || hubs.Student == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "realtime not available"})
			return
		}
		uVal, ok := c.Get("user")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user := uVal.(models.User)
		if user.Role != models.RoleSiswa {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newStudentClient(hubs.Student, conn, user.Username)
		hubs.Student.register <- client

		go client.writePump()
		client.readPump()
	}
}
