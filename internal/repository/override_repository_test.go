package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

func TestOverrideRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	created := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	comment := "verified credentials"
	actor := "staff-1"

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (target_user_id) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "t-1", 2, &comment, &actor, updated).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("ovr-existing", created, updated))

	override := &models.AdminOverride{TargetUserID: "t-1", Score: 2, Comment: &comment, CreatedBy: &actor, UpdatedAt: updated}
	require.NoError(t, repo.Upsert(context.Background(), override))
	assert.Equal(t, "ovr-existing", override.ID)
	assert.Equal(t, created, override.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryUpsertUnknownUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectQuery("INSERT INTO admin_overrides").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "admin_overrides_target_user_id_fkey"})

	err := repo.Upsert(context.Background(), &models.AdminOverride{TargetUserID: "ghost", Score: 3})
	assert.ErrorIs(t, err, ErrMissingReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryFindByTarget(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM admin_overrides WHERE target_user_id = $1")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "target_user_id", "score", "comment", "created_by", "created_at", "updated_at"}).
			AddRow("ovr-1", "t-1", 4, nil, "staff-1", now, now))

	override, err := repo.FindByTarget(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, 4, override.Score)
	assert.Nil(t, override.Comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}
