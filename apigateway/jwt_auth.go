package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nashir/pushgate/fields"
)

// JWTAuth validates tenant-management tokens in multi-tenant mode. These are
// symmetric (HS256) service tokens, a separate trust domain from the ed25519
// client signatures in signature.go.
type JWTAuth struct {
	Key []byte
}

// TenantClaims binds a management token to one tenant.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a management token for tenantID.
func (j *JWTAuth) GenerateJWT(tenantID string) (string, error) {
	if len(j.Key) == 0 {
		return "", errors.New("empty jwt key")
	}
	claims := TenantClaims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour).UTC()),
			Issuer:    "pushgate",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// VerifyJWT validates a management token and returns its claims.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TenantClaims, error) {
	claims := &TenantClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware gates tenant-management endpoints. The token's tenant claim
// must match the tenant named in the path; cross-tenant reads are rejected
// even with a valid token.
func (j *JWTAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, fields.NewFailureResponse(fields.ResponseError{
				Name:    "Unauthorized",
				Message: "empty authorization header was sent",
			}).WithField("Authorization", "tenant management token", fields.LocationHeader))
			return
		}
		claims, err := j.VerifyJWT(h)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, fields.NewFailureResponse(fields.ResponseError{
				Name:    "Unauthorized",
				Message: "invalid tenant management token",
			}))
			return
		}
		if tenantID := c.Param("tenant_id"); tenantID != "" && claims.TenantID != tenantID {
			c.AbortWithStatusJSON(http.StatusForbidden, fields.NewFailureResponse(fields.ResponseError{
				Name:    "Forbidden",
				Message: "token is not scoped to this tenant",
			}).WithField("tenant_id", "tenant identifier", fields.LocationPath))
			return
		}
		c.Set("tenant_claims", claims)
		c.Next()
	}
}
