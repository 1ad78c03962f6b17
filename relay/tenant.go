package relay

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	gateway "github.com/nashir/pushgate/apigateway"
	"github.com/nashir/pushgate/fields"
)

// GetTenantResponse is the tenant-info read model. APNS details only appear
// when APNS is in the tenant's enabled set.
type GetTenantResponse struct {
	URL              string               `json:"url"`
	EnabledProviders fields.ProviderKinds `json:"enabled_providers"`
	APNSTopic        string               `json:"apns_topic,omitempty"`
	APNSType         fields.APNSCertType  `json:"apns_type,omitempty"`
	Suspended        bool                 `json:"suspended"`
	SuspendedReason  string               `json:"suspended_reason,omitempty"`
}

// GetTenant reports a tenant's public configuration. Gated by the tenant
// admin token middleware in multi-tenant mode.
func (s *Service) GetTenant(c *gin.Context) {
	id := c.Param("tenant_id")

	tenant, err := s.Tenants.GetTenant(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "TenantNotFound")
		return
	}

	res := GetTenantResponse{
		URL:              fmt.Sprintf("%s/%s", s.Config.PublicURL, tenant.ID),
		EnabledProviders: tenant.Providers(),
		Suspended:        tenant.Suspended,
		SuspendedReason:  tenant.SuspendedReason,
	}
	if tenant.Providers().Contains(fields.ProviderAPNS) {
		res.APNSTopic = tenant.APNSTopic
		res.APNSType = tenant.APNSType
	}

	s.Logger.WithFields(logrus.Fields{
		"request_id": gateway.RequestIDFromCtx(c),
		"tenant_id":  id,
	}).Info("requested tenant")
	c.JSON(http.StatusOK, res)
}
