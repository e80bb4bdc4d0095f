package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditEntry struct {
	action     string
	resource   string
	resourceID string
	oldValues  interface{}
	newValues  interface{}
}

// writeAudit stores an audit row for a committed mutation. Failures are logged and swallowed.
func writeAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, actor models.Actor, entry auditEntry) {
	if audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:    entry.action,
		Resource:  entry.resource,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		log.UserID = &userID
	}
	if entry.resourceID != "" {
		resourceID := entry.resourceID
		log.ResourceID = &resourceID
	}
	if entry.oldValues != nil {
		log.OldValues, _ = json.Marshal(entry.oldValues)
	}
	if entry.newValues != nil {
		log.NewValues, _ = json.Marshal(entry.newValues)
	}
	if err := audit.CreateAuditLog(ctx, log); err != nil && logger != nil {
		logger.Warn("failed to record audit log",
			zap.String("action", entry.action),
			zap.String("resource_id", entry.resourceID),
			zap.Error(err),
		)
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
