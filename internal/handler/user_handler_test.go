package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-moderation-api/internal/dto"
	"github.com/noah-isme/tutor-moderation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-moderation-api/pkg/errors"
)

type accountServiceMock struct {
	user      *models.User
	deleteRes *dto.SoftDeleteResult
	err       error
	lastActor models.Actor
}

func (m *accountServiceMock) Get(ctx context.Context, id string) (*models.User, error) {
	return m.user, m.err
}

func (m *accountServiceMock) SoftDelete(ctx context.Context, id string, actor models.Actor) (*dto.SoftDeleteResult, error) {
	m.lastActor = actor
	return m.deleteRes, m.err
}

type reputationServiceMock struct {
	score       *models.WeightedScore
	override    *models.AdminOverride
	err         error
	lastRequest dto.SubmitOverrideRequest
	called      bool
}

func (m *reputationServiceMock) ComputeWeightedScore(ctx context.Context, userID string) (*models.WeightedScore, error) {
	m.called = true
	return m.score, m.err
}

func (m *reputationServiceMock) SubmitOverride(ctx context.Context, userID string, req dto.SubmitOverrideRequest, actor models.Actor) (*models.AdminOverride, error) {
	m.called = true
	m.lastRequest = req
	return m.override, m.err
}

func TestUserHandlerReputation(t *testing.T) {
	two := 2
	rep := &reputationServiceMock{score: &models.WeightedScore{UserID: "tutor-1", PeerAverage: 4, RatingCount: 3, OverrideScore: &two, FinalScore: 3}}
	handler := NewUserHandler(&accountServiceMock{}, rep)

	c, w := newTestContext(http.MethodGet, "/users/tutor-1/reputation", "", gin.Params{{Key: "id", Value: "tutor-1"}})
	handler.Reputation(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"final_score":3`)
	assert.Contains(t, w.Body.String(), `"override_score":2`)
}

func TestUserHandlerReputationUnknownUser(t *testing.T) {
	handler := NewUserHandler(&accountServiceMock{}, &reputationServiceMock{err: appErrors.ErrUserNotFound})

	c, w := newTestContext(http.MethodGet, "/users/ghost/reputation", "", gin.Params{{Key: "id", Value: "ghost"}})
	handler.Reputation(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeEnvelope(t, w).Error.Code)
}

func TestUserHandlerSubmitOverride(t *testing.T) {
	rep := &reputationServiceMock{override: &models.AdminOverride{ID: "ovr-1", TargetUserID: "tutor-1", Score: 4}}
	handler := NewUserHandler(&accountServiceMock{}, rep)

	c, w := newTestContext(http.MethodPut, "/users/tutor-1/override", `{"score":4,"comment":"verified"}`, gin.Params{{Key: "id", Value: "tutor-1"}})
	handler.SubmitOverride(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, rep.lastRequest.Score)
	require.NotNil(t, rep.lastRequest.Comment)
	assert.Equal(t, "verified", *rep.lastRequest.Comment)
}

func TestUserHandlerSubmitOverrideErrors(t *testing.T) {
	rep := &reputationServiceMock{}
	handler := NewUserHandler(&accountServiceMock{}, rep)

	c, w := newTestContext(http.MethodPut, "/users/tutor-1/override", `{"score":`, gin.Params{{Key: "id", Value: "tutor-1"}})
	handler.SubmitOverride(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, rep.called)

	rep.err = appErrors.ErrInvalidScore
	c, w = newTestContext(http.MethodPut, "/users/tutor-1/override", `{"score":9}`, gin.Params{{Key: "id", Value: "tutor-1"}})
	handler.SubmitOverride(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SCORE", decodeEnvelope(t, w).Error.Code)
}

func TestUserHandlerSoftDelete(t *testing.T) {
	accounts := &accountServiceMock{deleteRes: &dto.SoftDeleteResult{UserID: "tutor-1", AlreadyDeleted: true}}
	handler := NewUserHandler(accounts, &reputationServiceMock{})

	c, w := newTestContext(http.MethodDelete, "/users/tutor-1", "", gin.Params{{Key: "id", Value: "tutor-1"}})
	handler.SoftDelete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"already_deleted":true`)
	assert.Equal(t, "staff-1", accounts.lastActor.UserID)
	assert.Equal(t, "handler-test", accounts.lastActor.UserAgent)
}

func TestUserHandlerGetInternalErrorIsRecorded(t *testing.T) {
	handler := NewUserHandler(&accountServiceMock{err: appErrors.Internal(assert.AnError, "failed to load user")}, &reputationServiceMock{})

	c, w := newTestContext(http.MethodGet, "/users/tutor-1", "", gin.Params{{Key: "id", Value: "tutor-1"}})
	handler.Get(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)
}
