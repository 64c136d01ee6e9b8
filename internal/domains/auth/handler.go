package auth

import (
	"errors"
	"net/http"

	"carrental-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Login handles POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request payload")
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		var ve validation.Errors
		switch {
		case errors.As(err, &ve):
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid login payload", ve)
		case errors.Is(err, ErrInvalidCredentials):
			response.Unauthorized(c, err.Error())
		case errors.Is(err, ErrLoginDisabled):
			response.ErrorResponse(c, http.StatusServiceUnavailable, "LOGIN_DISABLED", err.Error())
		default:
			_ = c.Error(err)
			response.InternalServerError(c, "Login failed")
		}
		return
	}

	response.Success(c, http.StatusOK, "Login successful", result)
}
