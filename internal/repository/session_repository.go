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
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

const sessionColumns = `id, student_id, tutor_id, subject, scheduled_start, scheduled_end, status, student_acknowledged, tutor_acknowledged, student_completed, tutor_completed, reason, created_at, updated_at`

// SessionFlag names one of the per-party boolean columns on a session.
type SessionFlag string

const (
	FlagAcknowledged SessionFlag = "acknowledged"
	FlagCompleted    SessionFlag = "completed"
)

var sessionFlagColumns = map[SessionFlag]map[models.SessionParty]string{
	FlagAcknowledged: {
		models.PartyStudent: "student_acknowledged",
		models.PartyTutor:   "tutor_acknowledged",
	},
	FlagCompleted: {
		models.PartyStudent: "student_completed",
		models.PartyTutor:   "tutor_completed",
	},
}

// SessionRepository persists tutoring sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session in its initial state.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = session.CreatedAt
	if session.Status == "" {
		session.Status = models.SessionPending
	}

	const query = `INSERT INTO sessions (id, student_id, tutor_id, subject, scheduled_start, scheduled_end, status, created_at, updated_at)
		VALUES (:id, :student_id, :tutor_id, :subject, :scheduled_start, :scheduled_end, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return translate(err, "create session")
	}
	return nil
}

// FindByID returns a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 LIMIT 1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &session, nil
}

// List returns sessions matching the filter, newest first, with the total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	baseQuery := `FROM sessions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("(student_id = $%d OR tutor_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.UserID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	_, pageSize, offset := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", sessionColumns, baseQuery, pageSize, offset)

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// UpdateStatus moves a session from one status to another with a compare-and-set on the
// current status. It reports false when the row was not in the expected status.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, from, to models.SessionStatus, reason *string, at time.Time) (bool, error) {
	const query = `UPDATE sessions SET status = $3, reason = COALESCE($4, reason), updated_at = $5 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, reason, at)
	if err != nil {
		return false, fmt.Errorf("update session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update session status rows affected: %w", err)
	}
	return affected == 1, nil
}

// SetPartyFlag raises an acknowledgement or completion flag for one party while the
// session is in one of the allowed statuses. It reports false when no row qualified.
func (r *SessionRepository) SetPartyFlag(ctx context.Context, id string, flag SessionFlag, party models.SessionParty, allowed []models.SessionStatus, at time.Time) (bool, error) {
	column, ok := sessionFlagColumns[flag][party]
	if !ok {
		return false, fmt.Errorf("set session flag: unknown flag %q for party %q", flag, party)
	}
	statuses := make([]string, len(allowed))
	for i, status := range allowed {
		statuses[i] = string(status)
	}

	query := fmt.Sprintf(`UPDATE sessions SET %s = TRUE, updated_at = $2 WHERE id = $1 AND status = ANY($3)`, column)
	res, err := r.db.ExecContext(ctx, query, id, at, pq.Array(statuses))
	if err != nil {
		return false, fmt.Errorf("set session flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set session flag rows affected: %w", err)
	}
	return affected == 1, nil
}
