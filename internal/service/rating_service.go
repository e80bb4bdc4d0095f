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

const ratingResource = "ratings"

type ratingStore interface {
	Create(ctx context.Context, rating *models.Rating) error
	ListByTarget(ctx context.Context, targetUserID string, includeHidden bool) ([]models.Rating, error)
	SetVisibility(ctx context.Context, id string, visible bool, at time.Time) (*models.Rating, error)
}

type sessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

// RatingService attaches peer ratings to closed sessions and moderates their visibility.
type RatingService struct {
	ratings   ratingStore
	sessions  sessionReader
	users     userReader
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRatingService constructs a RatingService.
func NewRatingService(ratings ratingStore, sessions sessionReader, users userReader, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RatingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{
		ratings:   ratings,
		sessions:  sessions,
		users:     users,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Attach records one participant's rating of the other for a closed session. Each rater
// may rate a given target once per session; a second attempt is a conflict, never an update.
func (s *RatingService) Attach(ctx context.Context, sessionID string, req dto.AttachRatingRequest, actor models.Actor) (*models.Rating, error) {
	if !models.ScoreInRange(req.Score) {
		s.metrics.RecordRatingAttach(resultRejected)
		return nil, appErrors.ErrInvalidScore
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if session.Status != models.SessionClosed {
		s.metrics.RecordRatingAttach(resultRejected)
		return nil, appErrors.Clone(appErrors.ErrSessionNotRatable, "session is "+string(session.Status)+"; only CLOSED sessions can be rated")
	}
	if req.RaterID == req.TargetID || !session.HasParticipant(req.RaterID) || !session.HasParticipant(req.TargetID) {
		s.metrics.RecordRatingAttach(resultRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "rater and target must be the two participants of the session")
	}

	rater, err := s.users.FindByID(ctx, req.RaterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to load rater")
	}
	if rater.IsDeleted() {
		s.metrics.RecordRatingAttach(resultRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "rater account has been deleted")
	}

	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	rating := &models.Rating{
		SessionID:    session.ID,
		RaterID:      req.RaterID,
		TargetUserID: req.TargetID,
		Score:        req.Score,
		Comment:      normalizeOptional(req.Comment),
		Visible:      visible,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.metrics.RecordRatingAttach(resultRejected)
			return nil, appErrors.ErrDuplicateRating
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.ErrUserNotFound
		}
		s.metrics.RecordRatingAttach(resultError)
		return nil, appErrors.Internal(err, "failed to save rating")
	}

	s.metrics.RecordRatingAttach(resultOK)
	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionRatingAttach,
		resource:   ratingResource,
		resourceID: rating.ID,
		newValues:  rating,
	})
	return rating, nil
}

// ListForUser returns ratings targeting a user. Hidden ratings are included only on request.
func (s *RatingService) ListForUser(ctx context.Context, userID string, includeHidden bool) ([]models.Rating, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	ratings, err := s.ratings.ListByTarget(ctx, userID, includeHidden)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list ratings")
	}
	return ratings, nil
}

// SetVisibility hides or restores a rating. Hidden ratings stop counting toward reputation.
func (s *RatingService) SetVisibility(ctx context.Context, ratingID string, req dto.SetRatingVisibilityRequest, actor models.Actor) (*models.Rating, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	rating, err := s.ratings.SetVisibility(ctx, ratingID, *req.Visible, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRatingNotFound
		}
		return nil, appErrors.Internal(err, "failed to update rating")
	}

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionRatingVisibility,
		resource:   ratingResource,
		resourceID: rating.ID,
		newValues:  map[string]interface{}{"visible": rating.Visible},
	})
	return rating, nil
}
