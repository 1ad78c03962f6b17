package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	gateway "github.com/nashir/pushgate/apigateway"
	"github.com/nashir/pushgate/fields"
)

// RegisterBody is the client registration request.
type RegisterBody struct {
	ClientID  string `json:"client_id" binding:"required"`
	PushType  string `json:"push_type" binding:"required"`
	Token     string `json:"token" binding:"required"`
	AlwaysRaw bool   `json:"always_raw"`
}

// RegisterClient upserts a device registration. The signature middleware has
// already proven the caller holds the key behind the claimed identity; here
// we only check the claim targets the id being registered.
func (s *Service) RegisterClient(c *gin.Context) {
	var body RegisterBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, "client_id", err)
		return
	}
	s.Metrics.clientRegistration()

	tenantID := s.tenantID(c)
	id := fields.NormalizeClientID(body.ClientID)

	if verified := gateway.VerifiedClientID(c); verified != "" && verified != id {
		respondFailure(c, http.StatusUnauthorized, "SignatureInvalid", "signed token is not bound to this client id")
		return
	}

	pushType, err := fields.ParseProviderKind(body.PushType)
	if err != nil {
		c.JSON(http.StatusBadRequest, fields.NewFailureResponse(fields.ResponseError{
			Name:    "InvalidPushType",
			Message: err.Error(),
		}).WithField("push_type", "one of fcm, apns, noop", fields.LocationBody))
		return
	}

	client := fields.Client{
		PushType:    pushType,
		DeviceToken: body.Token,
		AlwaysRaw:   body.AlwaysRaw,
	}
	if err := s.Clients.Register(c.Request.Context(), tenantID, id, client); err != nil {
		respondStoreError(c, err, "ClientNotFound")
		return
	}

	s.Logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"client_id": id,
		"push_type": pushType,
	}).Info("registered client")
	respondSuccess(c, http.StatusOK)
}
