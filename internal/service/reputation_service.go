package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	"github.com/noah-isme/tutor-moderation-api/internal/repository"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

const (
	overrideResource = "admin_overrides"
	overrideWeight   = 0.5
)

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type ratingSummaryReader interface {
	SummaryForTarget(ctx context.Context, targetUserID string) (*models.RatingSummary, error)
}

type overrideStore interface {
	FindByTarget(ctx context.Context, targetUserID string) (*models.AdminOverride, error)
	Upsert(ctx context.Context, override *models.AdminOverride) error
}

// BlendScore combines the peer average with an optional administrator override.
// Without an override the peer average passes through unchanged.
func BlendScore(peerAverage float64, override *int) float64 {
	if override == nil {
		return peerAverage
	}
	return overrideWeight*float64(*override) + (1-overrideWeight)*peerAverage
}

// ReputationService computes weighted reputation and accepts administrator overrides.
type ReputationService struct {
	users     userReader
	ratings   ratingSummaryReader
	overrides overrideStore
	audit     auditLogger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReputationService wires the aggregator dependencies.
func NewReputationService(users userReader, ratings ratingSummaryReader, overrides overrideStore, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReputationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReputationService{
		users:     users,
		ratings:   ratings,
		overrides: overrides,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// ComputeWeightedScore derives the current reputation of a user from committed ratings and
// the committed override. Nothing is cached; two reads with no writes in between agree.
func (s *ReputationService) ComputeWeightedScore(ctx context.Context, userID string) (*models.WeightedScore, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, appErrors.ErrUserNotFound
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}

	summary, err := s.ratings.SummaryForTarget(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarize ratings")
	}

	var overrideScore *int
	override, err := s.overrides.FindByTarget(ctx, userID)
	switch {
	case err == nil:
		score := override.Score
		overrideScore = &score
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Internal(err, "failed to load override")
	}

	s.metrics.RecordReputationComputation()
	return &models.WeightedScore{
		UserID:        userID,
		PeerAverage:   summary.Average,
		RatingCount:   summary.Count,
		OverrideScore: overrideScore,
		FinalScore:    BlendScore(summary.Average, overrideScore),
	}, nil
}

// SubmitOverride creates or replaces the administrator score for a user. Concurrent
// submissions for the same user leave exactly one override; the last committed write wins.
func (s *ReputationService) SubmitOverride(ctx context.Context, userID string, req dto.SubmitOverrideRequest, actor models.Actor) (*models.AdminOverride, error) {
	if !models.ScoreInRange(req.Score) {
		return nil, appErrors.ErrInvalidScore
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, appErrors.ErrUserNotFound
	}

	override := &models.AdminOverride{
		TargetUserID: userID,
		Score:        req.Score,
		Comment:      normalizeOptional(req.Comment),
		UpdatedAt:    s.now().UTC(),
	}
	if actor.UserID != "" {
		createdBy := actor.UserID
		override.CreatedBy = &createdBy
	}

	if err := s.overrides.Upsert(ctx, override); err != nil {
		if errors.Is(err, repository.ErrMissingReference) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to save override")
	}

	s.metrics.RecordOverrideUpsert()
	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionOverrideSubmit,
		resource:   overrideResource,
		resourceID: userID,
		newValues: map[string]interface{}{
			"score":   override.Score,
			"comment": override.Comment,
		},
	})
	s.logger.Info("override submitted", zap.String("target_user_id", userID), zap.Int("score", override.Score))
	return override, nil
}
