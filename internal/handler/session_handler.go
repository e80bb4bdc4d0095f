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

type sessionService interface {
	Create(ctx context.Context, req dto.CreateSessionRequest, actor models.Actor) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error)
	Transition(ctx context.Context, id string, req dto.TransitionSessionRequest, actor models.Actor) (*models.Session, error)
	Acknowledge(ctx context.Context, id string, req dto.SessionPartyRequest, actor models.Actor) (*models.Session, error)
	MarkComplete(ctx context.Context, id string, req dto.SessionPartyRequest, actor models.Actor) (*models.Session, error)
}

// SessionHandler exposes tutoring session lifecycle endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create godoc
// @Summary Book a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param status query string false "Session status, e.g. DISPUTED"
// @Param user_id query string false "Participant user ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := models.SessionFilter{UserID: c.Query("user_id"), Page: page, PageSize: pageSize}
	if status := c.Query("status"); status != "" {
		s := models.SessionStatus(status)
		filter.Status = &s
	}
	sessions, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Get godoc
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Transition godoc
// @Summary Transition session state
// @Description DISPUTED requires a reason. DISPUTED, CLOSED and CANCELLED are terminal.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.TransitionSessionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/transitions [post]
func (h *SessionHandler) Transition(c *gin.Context) {
	var req dto.TransitionSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}
	session, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Acknowledge godoc
// @Summary Record a party acknowledgement
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SessionPartyRequest true "Party"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/acknowledgements [post]
func (h *SessionHandler) Acknowledge(c *gin.Context) {
	h.partyAction(c, h.service.Acknowledge)
}

// Complete godoc
// @Summary Record a party completion confirmation
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SessionPartyRequest true "Party"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/completions [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	h.partyAction(c, h.service.MarkComplete)
}

func (h *SessionHandler) partyAction(c *gin.Context, action func(context.Context, string, dto.SessionPartyRequest, models.Actor) (*models.Session, error)) {
	var req dto.SessionPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid party payload"))
		return
	}
	session, err := action(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
