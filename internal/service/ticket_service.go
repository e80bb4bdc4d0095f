package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	"github.com/noah-isme/tutor-moderation-api/internal/repository"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

const ticketResource = "support_tickets"

type ticketStore interface {
	Create(ctx context.Context, ticket *models.SupportTicket) error
	FindByID(ctx context.Context, id string) (*models.SupportTicket, error)
	List(ctx context.Context, filter models.TicketFilter) ([]models.SupportTicket, int, error)
	Transition(ctx context.Context, id string, status models.TicketStatus, response *string, at time.Time) (*models.SupportTicket, error)
}

// TicketService handles support ticket intake and resolution.
type TicketService struct {
	tickets   ticketStore
	users     userReader
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTicketService constructs a TicketService.
func NewTicketService(tickets ticketStore, users userReader, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TicketService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:   tickets,
		users:     users,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create opens a pending ticket for a user.
func (s *TicketService) Create(ctx context.Context, req dto.CreateTicketRequest, actor models.Actor) (*models.SupportTicket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	ticket := &models.SupportTicket{
		UserID:    req.UserID,
		Category:  req.Category,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.TicketPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to create ticket")
	}

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionTicketCreate,
		resource:   ticketResource,
		resourceID: ticket.ID,
		newValues:  ticket,
	})
	return ticket, nil
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, id string) (*models.SupportTicket, error) {
	ticket, err := s.tickets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTicketNotFound
		}
		return nil, appErrors.Internal(err, "failed to load ticket")
	}
	return ticket, nil
}

// List returns tickets for the support queue.
func (s *TicketService) List(ctx context.Context, filter models.TicketFilter) ([]models.SupportTicket, *models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown ticket status")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list tickets")
	}
	return tickets, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Transition moves a ticket to any status. A non-blank response replaces the stored one.
// Resolving a ticket that ends up without any response is allowed but flagged.
func (s *TicketService) Transition(ctx context.Context, id string, req dto.TransitionTicketRequest, actor models.Actor) (*dto.TicketTransitionResult, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown ticket status "+string(req.Status))
	}

	ticket, err := s.tickets.Transition(ctx, id, req.Status, normalizeOptional(req.Response), s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrTicketNotFound
		}
		return nil, appErrors.Internal(err, "failed to update ticket")
	}

	result := &dto.TicketTransitionResult{Ticket: ticket}
	if ticket.Status == models.TicketResolved && !ticket.HasResponse() {
		result.PolicyWarning = true
		result.Warnings = append(result.Warnings, models.WarningResolvedWithoutResponse)
		s.metrics.RecordTicketPolicyWarning()
		s.logger.Warn("ticket resolved without response", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actor.UserID))
	}

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionTicketTransition,
		resource:   ticketResource,
		resourceID: ticket.ID,
		newValues: map[string]interface{}{
			"status":         ticket.Status,
			"admin_response": ticket.AdminResponse,
			"policy_warning": result.PolicyWarning,
		},
	})
	return result, nil
}
