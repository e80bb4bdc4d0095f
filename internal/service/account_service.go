package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

const userResource = "users"

type accountStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	SoftDelete(ctx context.Context, id string, identity models.AnonymizedIdentity, at time.Time) (bool, error)
}

// AnonymizedIdentityFor derives the placeholder identity written over a deleted account.
// The same id always yields the same placeholders and distinct ids yield distinct emails.
func AnonymizedIdentityFor(userID string) models.AnonymizedIdentity {
	digest := blake2b.Sum256([]byte(userID))
	token := "anon-" + hex.EncodeToString(digest[:8])
	return models.AnonymizedIdentity{
		FullName: "Deleted User " + token,
		Email:    token + "@deleted.invalid",
		Role:     models.DefaultRole,
	}
}

// AccountService manages the user account lifecycle.
type AccountService struct {
	users  accountStore
	audit  auditLogger
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(users accountStore, audit auditLogger, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{users: users, audit: audit, logger: logger, now: time.Now}
}

// Get returns a user by id, including soft-deleted accounts.
func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// SoftDelete deactivates and anonymizes an account without touching its sessions, ratings
// or overrides. Deleting an already deleted account succeeds without changing anything.
func (s *AccountService) SoftDelete(ctx context.Context, id string, actor models.Actor) (*dto.SoftDeleteResult, error) {
	identity := AnonymizedIdentityFor(id)
	changed, err := s.users.SoftDelete(ctx, id, identity, s.now().UTC())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to delete user")
	}
	if !changed {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return &dto.SoftDeleteResult{UserID: id, AlreadyDeleted: true}, nil
	}

	writeAudit(ctx, s.audit, s.logger, actor, auditEntry{
		action:     models.AuditActionUserSoftDelete,
		resource:   userResource,
		resourceID: id,
		newValues: map[string]interface{}{
			"full_name": identity.FullName,
			"email":     identity.Email,
			"role":      identity.Role,
			"active":    false,
		},
	})
	s.logger.Info("user soft deleted", zap.String("user_id", id), zap.String("actor_id", actor.UserID))
	return &dto.SoftDeleteResult{UserID: id}, nil
}
