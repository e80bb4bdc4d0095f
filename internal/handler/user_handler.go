package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
	"github.com/noah-isme/tutor-moderation-api/pkg/response"
)

type accountService interface {
	Get(ctx context.Context, id string) (*models.User, error)
	SoftDelete(ctx context.Context, id string, actor models.Actor) (*dto.SoftDeleteResult, error)
}

type reputationService interface {
	ComputeWeightedScore(ctx context.Context, userID string) (*models.WeightedScore, error)
	SubmitOverride(ctx context.Context, userID string, req dto.SubmitOverrideRequest, actor models.Actor) (*models.AdminOverride, error)
}

// UserHandler exposes account and reputation endpoints.
type UserHandler struct {
	accounts   accountService
	reputation reputationService
}

// NewUserHandler builds a new handler.
func NewUserHandler(accounts accountService, reputation reputationService) *UserHandler {
	return &UserHandler{accounts: accounts, reputation: reputation}
}

// Get godoc
// @Summary Get user account
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Reputation godoc
// @Summary Compute weighted reputation
// @Description Blends the mean of visible peer ratings with the administrator override when one exists.
// @Tags Reputation
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/reputation [get]
func (h *UserHandler) Reputation(c *gin.Context) {
	score, err := h.reputation.ComputeWeightedScore(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// SubmitOverride godoc
// @Summary Set administrator override score
// @Tags Reputation
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.SubmitOverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/override [put]
func (h *UserHandler) SubmitOverride(c *gin.Context) {
	var req dto.SubmitOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	override, err := h.reputation.SubmitOverride(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// SoftDelete godoc
// @Summary Soft delete and anonymize a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) SoftDelete(c *gin.Context) {
	result, err := h.accounts.SoftDelete(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
