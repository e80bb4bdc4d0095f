package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

const ticketColumns = `id, user_id, category, subject, message, status, admin_response, created_at, updated_at`

// TicketRepository persists support tickets.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository constructs a TicketRepository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create inserts a ticket.
func (r *TicketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	ticket.UpdatedAt = ticket.CreatedAt
	if ticket.Status == "" {
		ticket.Status = models.TicketPending
	}

	const query = `INSERT INTO support_tickets (id, user_id, category, subject, message, status, admin_response, created_at, updated_at)
		VALUES (:id, :user_id, :category, :subject, :message, :status, :admin_response, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ticket); err != nil {
		return translate(err, "create ticket")
	}
	return nil
}

// FindByID returns a ticket by identifier.
func (r *TicketRepository) FindByID(ctx context.Context, id string) (*models.SupportTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM support_tickets WHERE id = $1 LIMIT 1`
	var ticket models.SupportTicket
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find ticket by id: %w", err)
	}
	return &ticket, nil
}

// List returns tickets matching the filter, newest first, with the total count.
func (r *TicketRepository) List(ctx context.Context, filter models.TicketFilter) ([]models.SupportTicket, int, error) {
	baseQuery := `FROM support_tickets WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", ticketColumns, baseQuery, pageSize, offset)

	var tickets []models.SupportTicket
	if err := r.db.SelectContext(ctx, &tickets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	return tickets, total, nil
}

// Transition sets the ticket status, replaces the response when one is given, and bumps
// updated_at in a single statement. It returns sql.ErrNoRows for unknown tickets.
func (r *TicketRepository) Transition(ctx context.Context, id string, status models.TicketStatus, response *string, at time.Time) (*models.SupportTicket, error) {
	query := `UPDATE support_tickets SET status = $2, admin_response = COALESCE($3, admin_response), updated_at = $4 WHERE id = $1 RETURNING ` + ticketColumns
	var ticket models.SupportTicket
	if err := r.db.QueryRowxContext(ctx, query, id, status, response, at).StructScan(&ticket); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("transition ticket: %w", err)
	}
	return &ticket, nil
}
