package relay

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health is the liveness endpoint.
func (s *Service) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"instance_id": s.InstanceID.String(),
		"uptime":      time.Since(s.StartedAt).String(),
	})
}
