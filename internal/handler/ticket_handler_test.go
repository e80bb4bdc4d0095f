package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

type ticketServiceMock struct {
	ticket     *models.SupportTicket
	result     *dto.TicketTransitionResult
	err        error
	lastFilter models.TicketFilter
}

func (m *ticketServiceMock) Create(ctx context.Context, req dto.CreateTicketRequest, actor models.Actor) (*models.SupportTicket, error) {
	return m.ticket, m.err
}

func (m *ticketServiceMock) Get(ctx context.Context, id string) (*models.SupportTicket, error) {
	return m.ticket, m.err
}

func (m *ticketServiceMock) List(ctx context.Context, filter models.TicketFilter) ([]models.SupportTicket, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, &models.Pagination{Page: 1, PageSize: 20}, m.err
}

func (m *ticketServiceMock) Transition(ctx context.Context, id string, req dto.TransitionTicketRequest, actor models.Actor) (*dto.TicketTransitionResult, error) {
	return m.result, m.err
}

func TestTicketHandlerTransitionWithWarning(t *testing.T) {
	mockSvc := &ticketServiceMock{result: &dto.TicketTransitionResult{
		Ticket:        &models.SupportTicket{ID: "tk-1", Status: models.TicketResolved},
		PolicyWarning: true,
		Warnings:      []string{models.WarningResolvedWithoutResponse},
	}}
	handler := NewTicketHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/tickets/tk-1/transitions", `{"status":"resolved"}`, gin.Params{{Key: "id", Value: "tk-1"}})
	handler.Transition(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"policy_warning":true`)
	assert.Equal(t, []interface{}{models.WarningResolvedWithoutResponse}, env.Meta["warnings"])
}

func TestTicketHandlerTransitionNotFound(t *testing.T) {
	handler := NewTicketHandler(&ticketServiceMock{err: appErrors.ErrTicketNotFound})

	c, w := newTestContext(http.MethodPost, "/tickets/missing/transitions", `{"status":"in_progress"}`, gin.Params{{Key: "id", Value: "missing"}})
	handler.Transition(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TICKET_NOT_FOUND", decodeEnvelope(t, w).Error.Code)
}

func TestTicketHandlerListStatusFilter(t *testing.T) {
	mockSvc := &ticketServiceMock{}
	handler := NewTicketHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/tickets?status=pending", "", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.Status)
	assert.Equal(t, models.TicketPending, *mockSvc.lastFilter.Status)
}
