package relay

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nashir/pushgate/fields"
	"github.com/nashir/pushgate/store"
)

func respondSuccess(c *gin.Context, status int) {
	c.JSON(status, fields.NewSuccessResponse())
}

func respondFailure(c *gin.Context, status int, name, message string) {
	c.JSON(status, fields.NewFailureResponse(fields.ResponseError{Name: name, Message: message}))
}

func respondBindError(c *gin.Context, field string, err error) {
	c.JSON(http.StatusBadRequest, fields.NewFailureResponse(fields.ResponseError{
		Name:    "InvalidBody",
		Message: err.Error(),
	}).WithField(field, "request body", fields.LocationBody))
}

// respondStoreError translates a store failure once, at the handler boundary:
// missing records become 404s, everything else is a backend failure.
func respondStoreError(c *gin.Context, err error, notFoundName string) {
	if store.IsNotFound(err) {
		respondFailure(c, http.StatusNotFound, notFoundName, err.Error())
		return
	}
	respondFailure(c, http.StatusInternalServerError, "StoreError", err.Error())
}
