package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
	"github.com/noah-isme/tutor-moderation-api/pkg/response"
)

type ratingService interface {
	Attach(ctx context.Context, sessionID string, req dto.AttachRatingRequest, actor models.Actor) (*models.Rating, error)
	ListForUser(ctx context.Context, userID string, includeHidden bool) ([]models.Rating, error)
	SetVisibility(ctx context.Context, ratingID string, req dto.SetRatingVisibilityRequest, actor models.Actor) (*models.Rating, error)
}

// RatingHandler exposes peer rating endpoints.
type RatingHandler struct {
	service ratingService
}

// NewRatingHandler builds a new handler.
func NewRatingHandler(service ratingService) *RatingHandler {
	return &RatingHandler{service: service}
}

// Attach godoc
// @Summary Attach a rating to a closed session
// @Tags Ratings
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.AttachRatingRequest true "Rating payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/ratings [post]
func (h *RatingHandler) Attach(c *gin.Context) {
	var req dto.AttachRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rating payload"))
		return
	}
	rating, err := h.service.Attach(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rating)
}

// ListForUser godoc
// @Summary List ratings targeting a user
// @Tags Ratings
// @Produce json
// @Param id path string true "User ID"
// @Param include_hidden query bool false "Include hidden ratings"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/ratings [get]
func (h *RatingHandler) ListForUser(c *gin.Context) {
	includeHidden, _ := strconv.ParseBool(c.DefaultQuery("include_hidden", "false"))
	ratings, err := h.service.ListForUser(c.Request.Context(), c.Param("id"), includeHidden)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ratings, nil)
}

// SetVisibility godoc
// @Summary Hide or restore a rating
// @Tags Ratings
// @Accept json
// @Produce json
// @Param id path string true "Rating ID"
// @Param payload body dto.SetRatingVisibilityRequest true "Visibility"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ratings/{id}/visibility [patch]
func (h *RatingHandler) SetVisibility(c *gin.Context) {
	var req dto.SetRatingVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid visibility payload"))
		return
	}
	rating, err := h.service.SetVisibility(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}
