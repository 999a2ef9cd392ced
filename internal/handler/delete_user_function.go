package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/internal/dto"
	"github.com/noah-isme/bk-portal-api/internal/middleware"
	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

type userDeleter interface {
	Delete(ctx context.Context, callerID string, target interface{}, meta models.RequestMeta) (*models.DeleteUserResult, error)
}

// DeleteUserFunction serves POST /functions/v1/delete-user. It answers its own
// CORS preflight and always replies with the {ok, error} function contract.
type DeleteUserFunction struct {
	tokens  middleware.TokenValidator
	service userDeleter
	logger  *zap.Logger
}

// NewDeleteUserFunction constructs the function handler.
func NewDeleteUserFunction(tokens middleware.TokenValidator, svc userDeleter, logger *zap.Logger) *DeleteUserFunction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeleteUserFunction{tokens: tokens, service: svc, logger: logger}
}

func functionCORS(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

// Handle godoc
// @Summary Delete an account
// @Description Removes the auth identity and then the profile row. Admin only; self deletion is refused.
// @Tags Functions
// @Accept json
// @Produce json
// @Param payload body dto.DeleteUserRequest true "Target user"
// @Success 200 {object} dto.DeleteUserResponse
// @Failure 400 {object} dto.DeleteUserResponse
// @Failure 401 {object} dto.DeleteUserResponse
// @Failure 403 {object} dto.DeleteUserResponse
// @Failure 405 {object} dto.DeleteUserResponse
// @Router /functions/v1/delete-user [post]
func (h *DeleteUserFunction) Handle(c *gin.Context) {
	functionCORS(c)
	if c.Request.Method == http.MethodOptions {
		c.String(http.StatusOK, "ok")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("delete-user function panicked", zap.Any("panic", r))
			h.fail(c, http.StatusInternalServerError, "Internal error")
		}
	}()

	if c.Request.Method != http.MethodPost {
		h.fail(c, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		h.fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil || claims == nil {
		h.fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// A malformed body is reported by the service as a missing userId after the caller checks.
	var req dto.DeleteUserRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.Delete(c.Request.Context(), claims.UserID, req.UserID, requestMeta(c))
	if err != nil {
		appErr := appErrors.FromError(err)
		h.fail(c, appErr.Status, appErr.Message)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteUserResponse{OK: true, Outcome: result.Outcome, Warning: result.Warning})
}

func (h *DeleteUserFunction) fail(c *gin.Context, status int, message string) {
	c.JSON(status, dto.DeleteUserResponse{OK: false, Error: message})
}
