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

type ticketService interface {
	Create(ctx context.Context, req dto.CreateTicketRequest, actor models.Actor) (*models.SupportTicket, error)
	Get(ctx context.Context, id string) (*models.SupportTicket, error)
	List(ctx context.Context, filter models.TicketFilter) ([]models.SupportTicket, *models.Pagination, error)
	Transition(ctx context.Context, id string, req dto.TransitionTicketRequest, actor models.Actor) (*dto.TicketTransitionResult, error)
}

// TicketHandler exposes support ticket endpoints.
type TicketHandler struct {
	service ticketService
}

// NewTicketHandler builds a new handler.
func NewTicketHandler(service ticketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// Create godoc
// @Summary Open a support ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param payload body dto.CreateTicketRequest true "Ticket payload"
// @Success 201 {object} response.Envelope
// @Router /tickets [post]
func (h *TicketHandler) Create(c *gin.Context) {
	var req dto.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid ticket payload"))
		return
	}
	ticket, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ticket)
}

// List godoc
// @Summary List support tickets
// @Tags Tickets
// @Produce json
// @Param status query string false "pending, in_progress or resolved"
// @Param user_id query string false "Ticket owner"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tickets [get]
func (h *TicketHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.TicketFilter{UserID: c.Query("user_id"), Page: page, PageSize: pageSize}
	if status := c.Query("status"); status != "" {
		s := models.TicketStatus(status)
		filter.Status = &s
	}
	tickets, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tickets, pagination)
}

// Get godoc
// @Summary Get support ticket
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ticket, nil)
}

// Transition godoc
// @Summary Transition support ticket
// @Description Any status may move to any other. Resolving without a response succeeds with a policy warning.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param payload body dto.TransitionTicketRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tickets/{id}/transitions [post]
func (h *TicketHandler) Transition(c *gin.Context) {
	var req dto.TransitionTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	result, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if result.PolicyWarning {
		meta = map[string]interface{}{"warnings": result.Warnings}
	}
	response.JSON(c, http.StatusOK, result, nil, meta)
}
