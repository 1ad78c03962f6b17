// Package relay contains the dispatch pipeline: the HTTP handlers that take a
// signed delivery request through client lookup, notification dedup, tenant
// resolution and the provider send.
package relay

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	gateway "github.com/nashir/pushgate/apigateway"
	"github.com/nashir/pushgate/fields"
	"github.com/nashir/pushgate/providers"
	"github.com/nashir/pushgate/store"
)

// Service carries the shared dependencies of every handler.
type Service struct {
	Clients       store.ClientStore
	Notifications store.NotificationStore
	Tenants       store.TenantStore
	Resolver      *providers.Resolver
	Redis         *redis.Client
	Logger        *logrus.Logger
	Config        fields.Config
	Metrics       *Metrics
	Analytics     Collector
	Auth          *gateway.JWTAuth

	InstanceID uuid.UUID
	StartedAt  time.Time
}

// tenantID resolves the tenant scope of a request: the path parameter in
// multi-tenant mode, the implicit default otherwise.
func (s *Service) tenantID(c *gin.Context) string {
	if id := c.Param("tenant_id"); id != "" {
		return id
	}
	return fields.DefaultTenantID
}

// Mount registers the HTTP surface. Single-tenant deployments expose the
// unscoped /clients routes; multi-tenant deployments scope everything under
// /tenants/:tenant_id and add the admin-gated tenant info endpoint.
func (s *Service) Mount(r *gin.Engine) {
	r.GET("/health", s.Health)

	sig := gateway.RequireValidSignature(s.Config.ValidateSignatures, s.Config.PublicURL)

	if s.Config.Multitenant {
		scoped := r.Group("/tenants/:tenant_id")
		scoped.POST("/clients", sig, s.RegisterClient)
		scoped.DELETE("/clients/:id", s.DeleteClient)
		scoped.POST("/clients/:id", sig, s.PushMessage)
		if s.Auth != nil {
			scoped.GET("", s.Auth.AuthMiddleware(), s.GetTenant)
		}
		return
	}

	r.POST("/clients", sig, s.RegisterClient)
	r.DELETE("/clients/:id", s.DeleteClient)
	r.POST("/clients/:id", sig, s.PushMessage)
}
