package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// Envelope is the body of every API response. Exactly one of Data and Error
// is set.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Meta       *Meta              `json:"meta,omitempty"`
}

// JSON writes a success envelope. Meta is attached when TrackMeta ran for
// the request.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Pagination: pagination, Meta: collectMeta(c)})
}

// Created responds with 201 and no pagination.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error converts err to the shared error shape and writes it with the
// error's status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: collectMeta(c)})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
