package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
	"github.com/noah-isme/tutor-moderation-api/internal/repository"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
	calls int
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for i := range users {
		user := users[i]
		f.users[user.ID] = &user
	}
	return f
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUsers) SoftDelete(ctx context.Context, id string, identity models.AnonymizedIdentity, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	user, ok := f.users[id]
	if !ok || user.DeletedAt != nil {
		return false, nil
	}
	user.FullName = identity.FullName
	user.Email = identity.Email
	user.Role = identity.Role
	user.Active = false
	user.DeletedAt = &at
	user.UpdatedAt = at
	return true, nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	calls    int
	// beforeUpdate runs inside UpdateStatus before the compare-and-set, simulating a racing writer.
	beforeUpdate func(session *models.Session)
}

func newFakeSessions(sessions ...models.Session) *fakeSessions {
	f := &fakeSessions{sessions: map[string]*models.Session{}}
	for i := range sessions {
		session := sessions[i]
		f.sessions[session.ID] = &session
	}
	return f
}

func (f *fakeSessions) Create(ctx context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.UpdatedAt = session.CreatedAt
	clone := *session
	f.sessions[session.ID] = &clone
	return nil
}

func (f *fakeSessions) FindByID(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	session, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *session
	return &clone, nil
}

func (f *fakeSessions) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []models.Session
	for _, session := range f.sessions {
		if filter.Status != nil && session.Status != *filter.Status {
			continue
		}
		out = append(out, *session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeSessions) UpdateStatus(ctx context.Context, id string, from, to models.SessionStatus, reason *string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	session, ok := f.sessions[id]
	if !ok {
		return false, nil
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(session)
	}
	if session.Status != from {
		return false, nil
	}
	session.Status = to
	if reason != nil {
		session.Reason = reason
	}
	session.UpdatedAt = at
	return true, nil
}

func (f *fakeSessions) SetPartyFlag(ctx context.Context, id string, flag repository.SessionFlag, party models.SessionParty, allowed []models.SessionStatus, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	session, ok := f.sessions[id]
	if !ok {
		return false, nil
	}
	permitted := false
	for _, status := range allowed {
		if session.Status == status {
			permitted = true
		}
	}
	if !permitted {
		return false, nil
	}
	switch {
	case flag == repository.FlagAcknowledged && party == models.PartyStudent:
		session.StudentAcknowledged = true
	case flag == repository.FlagAcknowledged && party == models.PartyTutor:
		session.TutorAcknowledged = true
	case flag == repository.FlagCompleted && party == models.PartyStudent:
		session.StudentCompleted = true
	case flag == repository.FlagCompleted && party == models.PartyTutor:
		session.TutorCompleted = true
	default:
		return false, fmt.Errorf("unknown flag %s/%s", flag, party)
	}
	session.UpdatedAt = at
	return true, nil
}

type fakeRatings struct {
	mu      sync.Mutex
	ratings []models.Rating
	calls   int
	err     error
}

func (f *fakeRatings) Create(ctx context.Context, rating *models.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.ratings {
		if existing.RaterID == rating.RaterID && existing.TargetUserID == rating.TargetUserID && existing.SessionID == rating.SessionID {
			return fmt.Errorf("create rating: %w", repository.ErrDuplicate)
		}
	}
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	rating.UpdatedAt = rating.CreatedAt
	f.ratings = append(f.ratings, *rating)
	return nil
}

func (f *fakeRatings) SummaryForTarget(ctx context.Context, targetUserID string) (*models.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var summary models.RatingSummary
	total := 0
	for _, rating := range f.ratings {
		if rating.TargetUserID == targetUserID && rating.Visible {
			summary.Count++
			total += rating.Score
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return &summary, nil
}

func (f *fakeRatings) ListByTarget(ctx context.Context, targetUserID string, includeHidden bool) ([]models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []models.Rating
	for _, rating := range f.ratings {
		if rating.TargetUserID == targetUserID && (includeHidden || rating.Visible) {
			out = append(out, rating)
		}
	}
	return out, nil
}

func (f *fakeRatings) SetVisibility(ctx context.Context, id string, visible bool, at time.Time) (*models.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for i := range f.ratings {
		if f.ratings[i].ID == id {
			f.ratings[i].Visible = visible
			f.ratings[i].UpdatedAt = at
			clone := f.ratings[i]
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeOverrides struct {
	mu        sync.Mutex
	overrides map[string]*models.AdminOverride
	users     *fakeUsers
	calls     int
}

func newFakeOverrides(users *fakeUsers) *fakeOverrides {
	return &fakeOverrides{overrides: map[string]*models.AdminOverride{}, users: users}
}

func (f *fakeOverrides) FindByTarget(ctx context.Context, targetUserID string) (*models.AdminOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	override, ok := f.overrides[targetUserID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *override
	return &clone, nil
}

func (f *fakeOverrides) Upsert(ctx context.Context, override *models.AdminOverride) error {
	if f.users != nil {
		if _, err := f.users.FindByID(ctx, override.TargetUserID); err != nil {
			return fmt.Errorf("upsert override: %w", repository.ErrMissingReference)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if existing, ok := f.overrides[override.TargetUserID]; ok {
		existing.Score = override.Score
		existing.Comment = override.Comment
		existing.CreatedBy = override.CreatedBy
		existing.UpdatedAt = override.UpdatedAt
		override.ID = existing.ID
		override.CreatedAt = existing.CreatedAt
		return nil
	}
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	override.CreatedAt = override.UpdatedAt
	clone := *override
	f.overrides[override.TargetUserID] = &clone
	return nil
}

func (f *fakeOverrides) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.overrides)
}

type fakeTickets struct {
	mu      sync.Mutex
	tickets map[string]*models.SupportTicket
	calls   int
}

func newFakeTickets(tickets ...models.SupportTicket) *fakeTickets {
	f := &fakeTickets{tickets: map[string]*models.SupportTicket{}}
	for i := range tickets {
		ticket := tickets[i]
		f.tickets[ticket.ID] = &ticket
	}
	return f
}

func (f *fakeTickets) Create(ctx context.Context, ticket *models.SupportTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	return nil
}

func (f *fakeTickets) FindByID(ctx context.Context, id string) (*models.SupportTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (f *fakeTickets) List(ctx context.Context, filter models.TicketFilter) ([]models.SupportTicket, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []models.SupportTicket
	for _, ticket := range f.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		out = append(out, *ticket)
	}
	return out, len(out), nil
}

func (f *fakeTickets) Transition(ctx context.Context, id string, status models.TicketStatus, response *string, at time.Time) (*models.SupportTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	ticket.Status = status
	if response != nil {
		ticket.AdminResponse = response
	}
	ticket.UpdatedAt = at
	clone := *ticket
	return &clone, nil
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

func (a *auditRecorder) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.logs))
	for i, log := range a.logs {
		out[i] = log.Action
	}
	return out
}

func strPtr(s string) *string { return &s }

func activeUser(id string, role models.UserRole) models.User {
	return models.User{ID: id, Email: id + "@example.com", FullName: id, Role: role, Active: true, CreatedAt: fixedNow.Add(-30 * 24 * time.Hour)}
}

var staffActor = models.Actor{UserID: "staff-1", IP: "203.0.113.7", UserAgent: "moderation-test"}
