package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nashir/pushgate/fields"
)

// DeleteClient deregisters a client and drops its notification history.
// Deregistration is idempotent: deleting an absent client responds success.
func (s *Service) DeleteClient(c *gin.Context) {
	tenantID := s.tenantID(c)
	id := fields.NormalizeClientID(c.Param("id"))

	if err := s.Clients.Delete(c.Request.Context(), tenantID, id); err != nil {
		respondStoreError(c, err, "ClientNotFound")
		return
	}

	s.Logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"client_id": id,
	}).Info("deleted client")
	respondSuccess(c, http.StatusOK)
}
