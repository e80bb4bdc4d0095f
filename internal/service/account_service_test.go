package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

func TestAnonymizedIdentityFor(t *testing.T) {
	first := AnonymizedIdentityFor("user-1")
	again := AnonymizedIdentityFor("user-1")
	other := AnonymizedIdentityFor("user-2")

	assert.Equal(t, first, again)
	assert.NotEqual(t, first.Email, other.Email)
	assert.Equal(t, models.RoleStudent, first.Role)
	assert.Regexp(t, `^anon-[0-9a-f]{16}@deleted\.invalid$`, first.Email)
	assert.NotContains(t, first.FullName, "user-1")
}

func TestAccountServiceSoftDelete(t *testing.T) {
	tutor := activeUser("tutor-1", models.RoleTutor)
	users := newFakeUsers(tutor)
	audit := &auditRecorder{}
	svc := NewAccountService(users, audit, nil)
	svc.now = fixedClock

	result, err := svc.SoftDelete(context.Background(), "tutor-1", staffActor)
	require.NoError(t, err)
	assert.False(t, result.AlreadyDeleted)

	stored := users.users["tutor-1"]
	assert.False(t, stored.Active)
	assert.Equal(t, models.RoleStudent, stored.Role)
	require.NotNil(t, stored.DeletedAt)
	assert.Equal(t, fixedNow, *stored.DeletedAt)
	assert.NotEqual(t, tutor.Email, stored.Email)
	assert.NotEqual(t, tutor.FullName, stored.FullName)
	assert.Equal(t, []string{models.AuditActionUserSoftDelete}, audit.actions())

	snapshot := *stored
	result, err = svc.SoftDelete(context.Background(), "tutor-1", staffActor)
	require.NoError(t, err)
	assert.True(t, result.AlreadyDeleted)
	assert.Equal(t, snapshot, *users.users["tutor-1"])
	assert.Len(t, audit.actions(), 1)
}

func TestAccountServiceSoftDeleteUnknownUser(t *testing.T) {
	svc := NewAccountService(newFakeUsers(), nil, nil)

	_, err := svc.SoftDelete(context.Background(), "ghost", staffActor)
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)

	_, err = svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
}

func TestAccountServiceSoftDeleteStoreFailure(t *testing.T) {
	users := newFakeUsers(activeUser("tutor-1", models.RoleTutor))
	users.err = errors.New("database is down")
	svc := NewAccountService(users, nil, nil)

	_, err := svc.SoftDelete(context.Background(), "tutor-1", staffActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Status, appErrors.FromError(err).Status)
}
