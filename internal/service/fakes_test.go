package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/lock"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
)

var testLog = zerolog.New(io.Discard)

var errStoreDown = errors.New("connection refused")

// memSessions mirrors SurveySessionRepository, including its status filters.
type memSessions struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.SurveySession
	clock   time.Time
	failAll bool
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[uuid.UUID]*model.SurveySession), clock: time.Unix(1700000000, 0)}
}

func cloneSession(s *model.SurveySession) *model.SurveySession {
	c := *s
	c.Responses = append([]model.Response(nil), s.Responses...)
	if s.TimeConsumed != nil {
		tc := *s.TimeConsumed
		c.TimeConsumed = &tc
	}
	if s.Metrics != nil {
		m := *s.Metrics
		c.Metrics = &m
	}
	return &c
}

func (m *memSessions) find(id, userID uuid.UUID, inProgressOnly bool) (*model.SurveySession, error) {
	if m.failAll {
		return nil, errStoreDown
	}
	s, ok := m.rows[id]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if inProgressOnly && s.Status != model.SessionStatusInProgress {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) GetByUser(_ context.Context, userID uuid.UUID) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errStoreDown
	}
	for _, s := range m.rows {
		if s.UserID == userID {
			return cloneSession(s), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memSessions) GetByID(_ context.Context, id, userID uuid.UUID) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.find(id, userID, false)
	if err != nil {
		return nil, err
	}
	return cloneSession(s), nil
}

func (m *memSessions) GetInProgress(_ context.Context, id, userID uuid.UUID) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	return cloneSession(s), nil
}

func (m *memSessions) ListByUser(_ context.Context, userID uuid.UUID) ([]model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SurveySession
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, *cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memSessions) ListAll(_ context.Context) ([]model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SurveySession
	for _, s := range m.rows {
		out = append(out, *cloneSession(s))
	}
	return out, nil
}

func (m *memSessions) Create(_ context.Context, s *model.SurveySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errStoreDown
	}
	for _, existing := range m.rows {
		if existing.UserID == s.UserID {
			return repository.ErrDuplicate
		}
	}
	m.clock = m.clock.Add(time.Second)
	s.ID = uuid.New()
	s.CreatedAt = m.clock
	s.UpdatedAt = m.clock
	m.rows[s.ID] = cloneSession(s)
	return nil
}

func (m *memSessions) Patch(_ context.Context, id, userID uuid.UUID, patch model.SessionPatch) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	if patch.Responses != nil {
		s.Responses = append([]model.Response(nil), patch.Responses...)
	}
	if patch.TimeConsumed != nil {
		tc := *patch.TimeConsumed
		s.TimeConsumed = &tc
	}
	return cloneSession(s), nil
}

func (m *memSessions) SaveResponses(_ context.Context, id, userID uuid.UUID, responses []model.Response) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	s.Responses = append([]model.Response(nil), responses...)
	return cloneSession(s), nil
}

func (m *memSessions) UpdateTimeConsumed(_ context.Context, id, userID uuid.UUID, tc model.TimeConsumed, avg float64) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.find(id, userID, false)
	if err != nil {
		return nil, err
	}
	s.TimeConsumed = &tc
	if s.Metrics == nil {
		s.Metrics = &model.ResponseMetrics{}
	}
	s.Metrics.AvgResponseTime = avg
	return cloneSession(s), nil
}

func (m *memSessions) Complete(_ context.Context, id, userID uuid.UUID, metrics model.ResponseMetrics) (*model.SurveySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	s.Status = model.SessionStatusCompleted
	s.Metrics = &metrics
	return cloneSession(s), nil
}

func (m *memSessions) Delete(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(id, userID, false); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

// stored returns the row as persisted, bypassing the owner filter.
func (m *memSessions) stored(id uuid.UUID) *model.SurveySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[id]; ok {
		return cloneSession(s)
	}
	return nil
}

// memEvaluations mirrors SurveyEvaluationRepository.
type memEvaluations struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*model.SurveyEvaluation
	clock time.Time
}

func newMemEvaluations() *memEvaluations {
	return &memEvaluations{rows: make(map[uuid.UUID]*model.SurveyEvaluation), clock: time.Unix(1700000000, 0)}
}

func cloneEvaluation(e *model.SurveyEvaluation) *model.SurveyEvaluation {
	c := *e
	c.Answers = make(map[string]any, len(e.Answers))
	for k, v := range e.Answers {
		c.Answers[k] = v
	}
	return &c
}

func (m *memEvaluations) find(id, userID uuid.UUID, openOnly bool) (*model.SurveyEvaluation, error) {
	e, ok := m.rows[id]
	if !ok || e.UserID != userID || (openOnly && e.Completed) {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (m *memEvaluations) Create(_ context.Context, e *model.SurveyEvaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.SessionID != nil {
		for _, existing := range m.rows {
			if existing.SessionID != nil && *existing.SessionID == *e.SessionID {
				return repository.ErrDuplicate
			}
		}
	}
	m.clock = m.clock.Add(time.Second)
	e.ID = uuid.New()
	e.CreatedAt = m.clock
	m.rows[e.ID] = cloneEvaluation(e)
	return nil
}

func (m *memEvaluations) GetByID(_ context.Context, id, userID uuid.UUID) (*model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.find(id, userID, false)
	if err != nil {
		return nil, err
	}
	return cloneEvaluation(e), nil
}

func (m *memEvaluations) GetOpen(_ context.Context, id, userID uuid.UUID) (*model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	return cloneEvaluation(e), nil
}

func (m *memEvaluations) GetBySessionID(_ context.Context, sessionID uuid.UUID) (*model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.rows {
		if e.SessionID != nil && *e.SessionID == sessionID {
			return cloneEvaluation(e), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memEvaluations) GetBySessionIDForUser(ctx context.Context, sessionID, userID uuid.UUID) (*model.SurveyEvaluation, error) {
	e, err := m.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (m *memEvaluations) ListByUser(_ context.Context, userID uuid.UUID) ([]model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SurveyEvaluation
	for _, e := range m.rows {
		if e.UserID == userID {
			out = append(out, *cloneEvaluation(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memEvaluations) ListFirstPerUser(_ context.Context) ([]model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := make(map[uuid.UUID]*model.SurveyEvaluation)
	for _, e := range m.rows {
		if cur, ok := first[e.UserID]; !ok || e.CreatedAt.Before(cur.CreatedAt) {
			first[e.UserID] = e
		}
	}
	out := make([]model.SurveyEvaluation, 0, len(first))
	for _, e := range first {
		out = append(out, *cloneEvaluation(e))
	}
	return out, nil
}

func (m *memEvaluations) Patch(_ context.Context, id, userID uuid.UUID, patch model.EvaluationPatch) (*model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	if patch.Answers != nil {
		e.Answers = patch.Answers
	}
	if patch.Completed != nil {
		e.Completed = *patch.Completed
	}
	return cloneEvaluation(e), nil
}

func (m *memEvaluations) SaveAnswers(_ context.Context, id, userID uuid.UUID, answers map[string]any, completed bool) (*model.SurveyEvaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.find(id, userID, true)
	if err != nil {
		return nil, err
	}
	e.Answers = answers
	e.Completed = completed
	return cloneEvaluation(e), nil
}

func (m *memEvaluations) Delete(_ context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.find(id, userID, false); err != nil {
		return err
	}
	delete(m.rows, id)
	return nil
}

// memUsers holds accounts and the active back-references.
type memUsers struct {
	mu                sync.Mutex
	users             []model.User
	activeSession     map[uuid.UUID]*uuid.UUID
	activeEvaluation  map[uuid.UUID]*uuid.UUID
	failActivePointer bool
}

func newMemUsers(users ...model.User) *memUsers {
	return &memUsers{
		users:            users,
		activeSession:    make(map[uuid.UUID]*uuid.UUID),
		activeEvaluation: make(map[uuid.UUID]*uuid.UUID),
	}
}

func (m *memUsers) SetActiveSurveySession(_ context.Context, userID uuid.UUID, sessionID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failActivePointer {
		return errStoreDown
	}
	m.activeSession[userID] = sessionID
	return nil
}

func (m *memUsers) SetActiveEvaluation(_ context.Context, userID uuid.UUID, evaluationID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failActivePointer {
		return errStoreDown
	}
	m.activeEvaluation[userID] = evaluationID
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) ListAll(_ context.Context) ([]model.User, error) {
	return append([]model.User(nil), m.users...), nil
}

func (m *memUsers) sessionPointer(userID uuid.UUID) *uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeSession[userID]
}

func (m *memUsers) evaluationPointer(userID uuid.UUID) *uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeEvaluation[userID]
}

// memCodes mirrors UniqueCodeRepository.
type memCodes struct {
	mu      sync.Mutex
	rows    map[string]model.UniqueSurveyCode
	lookups int
}

func newMemCodes() *memCodes {
	return &memCodes{rows: make(map[string]model.UniqueSurveyCode)}
}

func (m *memCodes) Create(_ context.Context, c *model.UniqueSurveyCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.KodeUnik]; ok {
		return repository.ErrDuplicate
	}
	c.ID = uuid.New()
	m.rows[c.KodeUnik] = *c
	return nil
}

func (m *memCodes) CreateMany(ctx context.Context, codes []model.UniqueSurveyCode) (*model.BulkInsertResult, error) {
	result := &model.BulkInsertResult{Inserted: []model.UniqueSurveyCode{}}
	for _, c := range codes {
		c := c
		if err := m.Create(ctx, &c); err != nil {
			result.Duplicates = append(result.Duplicates, c.KodeUnik)
			continue
		}
		result.Inserted = append(result.Inserted, c)
	}
	return result, nil
}

func (m *memCodes) GetByCode(_ context.Context, kodeUnik string) (*model.UniqueSurveyCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	c, ok := m.rows[kodeUnik]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memCodes) DeleteByCode(_ context.Context, kodeUnik string) (*model.UniqueSurveyCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[kodeUnik]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.rows, kodeUnik)
	return &c, nil
}

// failingLocker never grants a lock.
type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, lock.ErrTimeout
}

type sessionFixture struct {
	svc      *SurveySessionService
	sessions *memSessions
	users    *memUsers
}

func newSessionFixture() *sessionFixture {
	sessions := newMemSessions()
	users := newMemUsers()
	return &sessionFixture{
		svc:      NewSurveySessionService(sessions, users, lock.NewLocalLocker(time.Second), testLog),
		sessions: sessions,
		users:    users,
	}
}

func int64Ptr(v int64) *int64 { return &v }
