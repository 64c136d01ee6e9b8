package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"carrental-backend/internal/domains/car/model"
	"carrental-backend/internal/domains/car/service"
	"carrental-backend/internal/shared/middleware"
	"carrental-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// CarHandler handles HTTP requests for the car domain
type CarHandler struct {
	service service.Service
	images  service.ImageService
}

// NewCarHandler creates a new car handler instance
func NewCarHandler(svc service.Service, images service.ImageService) *CarHandler {
	return &CarHandler{
		service: svc,
		images:  images,
	}
}

// ============================================
// PUBLIC
// ============================================

// ListFleet handles GET /cars/fleet
func (h *CarHandler) ListFleet(c *gin.Context) {
	cars, err := h.service.GetVisibleCarsForFleet(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, "Fleet retrieved successfully", cars, &response.Meta{Total: len(cars)})
}

// ListCategories handles GET /cars/categories
func (h *CarHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.GetCategories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// GetCarBySlug handles GET /cars/slug/:slug
// Hidden cars are not exposed publicly.
func (h *CarHandler) GetCarBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		handleError(c, model.ErrCarNotFound)
		return
	}

	car, err := h.service.GetCarBySlug(c.Request.Context(), slug)
	if err != nil {
		handleError(c, err)
		return
	}
	if car == nil || car.Hidden {
		handleError(c, model.ErrCarNotFound)
		return
	}
	response.Success(c, http.StatusOK, "Car retrieved successfully", car)
}

// GetRelatedCars handles GET /cars/:id/related?limit=
func (h *CarHandler) GetRelatedCars(c *gin.Context) {
	id, ok := parseCarID(c)
	if !ok {
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	cars, err := h.service.GetRelatedCars(c.Request.Context(), id, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Related cars retrieved successfully", cars)
}

// ============================================
// ADMIN
// ============================================

// ListAdminCars handles GET /admin/cars
func (h *CarHandler) ListAdminCars(c *gin.Context) {
	cars, err := h.service.ListAdminCars(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, "Cars retrieved successfully", cars, &response.Meta{Total: len(cars)})
}

// GetCar handles GET /admin/cars/:id
func (h *CarHandler) GetCar(c *gin.Context) {
	id, ok := parseCarID(c)
	if !ok {
		return
	}

	car, err := h.service.GetCarByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	if car == nil {
		handleError(c, model.ErrCarNotFound)
		return
	}
	response.Success(c, http.StatusOK, "Car retrieved successfully", car)
}

// CreateCar handles POST /admin/cars
func (h *CarHandler) CreateCar(c *gin.Context) {
	var req model.CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.CodeValidationError, "Invalid request payload: "+err.Error())
		return
	}
	if userID, ok := middleware.UserIDFromContext(c); ok {
		req.CreatedBy = &userID
	}

	car, err := h.service.CreateCar(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Car created successfully", car)
}

// UpdateCar handles PATCH /admin/cars/:id
func (h *CarHandler) UpdateCar(c *gin.Context) {
	id, ok := parseCarID(c)
	if !ok {
		return
	}

	var req model.UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, model.CodeValidationError, "Invalid request payload: "+err.Error())
		return
	}

	car, err := h.service.UpdateCar(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Car updated successfully", car)
}

// DeleteCar handles DELETE /admin/cars/:id
func (h *CarHandler) DeleteCar(c *gin.Context) {
	id, ok := parseCarID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteCar(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Car deleted successfully", nil)
}

// UploadImage handles POST /admin/cars/images (multipart field "file")
func (h *CarHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return
	}

	uploaded, err := h.images.UploadImage(c.Request.Context(), file.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Image uploaded successfully", uploaded)
}

// ============================================
// HELPERS
// ============================================

func parseCarID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, model.ErrInvalidCarID)
		return uuid.Nil, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	_ = c.Error(err)
	statusCode, message, code := model.GetErrorResponse(err)

	switch details := model.ErrorDetails(err).(type) {
	case validation.Errors:
		response.ErrorWithDetails(c, statusCode, code, message, details)
	case error:
		var ve validation.Errors
		if errors.As(details, &ve) {
			response.ErrorWithDetails(c, statusCode, code, message, ve)
			return
		}
		response.ErrorWithDetails(c, statusCode, code, message, details.Error())
	default:
		response.ErrorResponse(c, statusCode, code, message)
	}
}
