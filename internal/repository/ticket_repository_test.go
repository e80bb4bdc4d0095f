package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

var ticketRowColumns = []string{"id", "user_id", "category", "subject", "message", "status", "admin_response", "created_at", "updated_at"}

func TestTicketRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTicketRepository(db)

	mock.ExpectExec("INSERT INTO support_tickets").WillReturnResult(sqlmock.NewResult(1, 1))

	ticket := &models.SupportTicket{UserID: "u-1", Category: "billing", Subject: "Refund", Message: "Charged twice"}
	require.NoError(t, repo.Create(context.Background(), ticket))
	assert.Equal(t, models.TicketPending, ticket.Status)
	assert.NotEmpty(t, ticket.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositoryTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTicketRepository(db)

	at := time.Now().UTC()
	created := at.Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE support_tickets SET status = $2, admin_response = COALESCE($3, admin_response), updated_at = $4 WHERE id = $1 RETURNING")).
		WithArgs("tk-1", models.TicketResolved, nil, at).
		WillReturnRows(sqlmock.NewRows(ticketRowColumns).
			AddRow("tk-1", "u-1", "billing", "Refund", "Charged twice", "resolved", nil, created, at))

	ticket, err := repo.Transition(context.Background(), "tk-1", models.TicketResolved, nil, at)
	require.NoError(t, err)
	assert.Equal(t, models.TicketResolved, ticket.Status)
	assert.Equal(t, at, ticket.UpdatedAt)
	assert.False(t, ticket.HasResponse())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositoryTransitionNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTicketRepository(db)

	mock.ExpectQuery("UPDATE support_tickets").WillReturnError(sql.ErrNoRows)

	_, err := repo.Transition(context.Background(), "missing", models.TicketInProgress, nil, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTicketRepository(db)

	now := time.Now()
	status := models.TicketPending
	mock.ExpectQuery(regexp.QuoteMeta("FROM support_tickets WHERE 1=1 AND status = $1 ORDER BY created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows(ticketRowColumns).
			AddRow("tk-2", "u-1", "account", "Locked out", "Cannot sign in", "pending", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM support_tickets WHERE 1=1 AND status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	tickets, total, err := repo.List(context.Background(), models.TicketFilter{Status: &status, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
