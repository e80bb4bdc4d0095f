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

const sessionResource = "sessions"

type sessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	UpdateStatus(ctx context.Context, id string, from, to models.SessionStatus, reason *string, at time.Time) (bool, error)
	SetPartyFlag(ctx context.Context, id string, flag repository.SessionFlag, party models.SessionParty, allowed []models.SessionStatus, at time.Time) (bool, error)
}

var (
	acknowledgeStatuses = []models.SessionStatus{models.SessionPending}
	completionStatuses  = []models.SessionStatus{models.SessionConfirmed, models.SessionPendingRating}
)

// SessionService owns the tutoring session lifecycle.
type SessionService struct {
	sessions   sessionStore
	users      userReader
	audit      auditLogger
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	closeGrace time.Duration
	now        func() time.Time
}

// NewSessionService constructs a SessionService. A non-positive closeGrace uses DefaultSessionCloseGrace.
func NewSessionService(sessions sessionStore, users userReader, audit auditLogger, metrics *MetricsService, closeGrace time.Duration, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if closeGrace <= 0 {
		closeGrace = DefaultSessionCloseGrace
	}
	return &SessionService{
		sessions:   sessions,
		users:      users,
		audit:      audit,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		closeGrace: closeGrace,
		now:        time.Now,
	}
}

// Create books a new session in the PENDING state.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest, actor models.Actor) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	for _, id := range []string{req.StudentID, req.TutorID} {
		if err := s.ensureActiveUser(ctx, id); err != nil {
			return nil, err
		}
	}

	session := &models.Session{
		StudentID:      req.StudentID,
		TutorID:        req.TutorID,
		Subject:        req.Subject,
		ScheduledStart: req.ScheduledStart.UTC(),
		ScheduledEnd:   req.ScheduledEnd.UTC(),
		Status:         models.SessionPending,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to create session")
	}

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionSessionCreate,
		resource:   sessionResource,
		resourceID: session.ID,
		newValues:  session,
	})
	return session, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	return session, nil
}

// List returns sessions for the moderation queue.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown session status")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list sessions")
	}
	return sessions, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Transition moves a session to target. The write is a compare-and-set on the status the
// decision was made against, so a concurrent transition makes this one fail cleanly.
func (s *SessionService) Transition(ctx context.Context, id string, req dto.TransitionSessionRequest, actor models.Actor) (*models.Session, error) {
	if err := validateTransitionInput(req.Status, req.Reason); err != nil {
		return nil, err
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := session.Status
	now := s.now().UTC()
	if err := CheckSessionTransition(session, req.Status, req.Reason, now, s.closeGrace); err != nil {
		s.metrics.RecordSessionTransition(from, req.Status, resultRejected)
		return nil, err
	}

	var reason *string
	if req.Status == models.SessionDisputed || req.Status == models.SessionCancelled {
		reason = normalizeOptional(req.Reason)
	}
	ok, err := s.sessions.UpdateStatus(ctx, session.ID, from, req.Status, reason, now)
	if err != nil {
		s.metrics.RecordSessionTransition(from, req.Status, resultError)
		return nil, appErrors.Internal(err, "failed to update session")
	}
	if !ok {
		s.metrics.RecordSessionTransition(from, req.Status, resultRejected)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session changed state concurrently")
	}

	s.metrics.RecordSessionTransition(from, req.Status, resultOK)
	updated := *session
	updated.Status = req.Status
	if reason != nil {
		updated.Reason = reason
	}
	updated.UpdatedAt = now

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionSessionTransition,
		resource:   sessionResource,
		resourceID: session.ID,
		oldValues:  map[string]interface{}{"status": from},
		newValues:  map[string]interface{}{"status": updated.Status, "reason": updated.Reason},
	})
	s.logger.Info("session transitioned",
		zap.String("session_id", session.ID),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
	)
	return &updated, nil
}

// Acknowledge records that one party accepted a pending session.
func (s *SessionService) Acknowledge(ctx context.Context, id string, req dto.SessionPartyRequest, actor models.Actor) (*models.Session, error) {
	return s.raiseFlag(ctx, id, repository.FlagAcknowledged, req, acknowledgeStatuses, actor)
}

// MarkComplete records that one party confirmed the session took place.
func (s *SessionService) MarkComplete(ctx context.Context, id string, req dto.SessionPartyRequest, actor models.Actor) (*models.Session, error) {
	return s.raiseFlag(ctx, id, repository.FlagCompleted, req, completionStatuses, actor)
}

func (s *SessionService) raiseFlag(ctx context.Context, id string, flag repository.SessionFlag, req dto.SessionPartyRequest, allowed []models.SessionStatus, actor models.Actor) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	ok, err := s.sessions.SetPartyFlag(ctx, id, flag, req.Party, allowed, s.now().UTC())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update session")
	}
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session is "+string(session.Status)+" and cannot be "+string(flag))
	}

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionSessionFlag,
		resource:   sessionResource,
		resourceID: session.ID,
		newValues:  map[string]interface{}{"flag": flag, "party": req.Party},
	})
	return session, nil
}

func (s *SessionService) ensureActiveUser(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.Internal(err, "failed to load user")
	}
	if user.IsDeleted() || !user.Active {
		return appErrors.Clone(appErrors.ErrValidation, "user "+id+" is not active")
	}
	return nil
}
