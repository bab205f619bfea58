package progress

import (
	"context"
	"sync"
	"time"
)

// Store persists per-user lesson progress and badge grants.
//
// ApplyAttempt, EnsureUnlocked, and GrantBadge are individually atomic
// read-modify-write operations; Atomic groups them so one recorded attempt
// commits (or fails) as a unit.
type Store interface {
	// GetProgress returns the record for (user, lesson); found is false when
	// no record exists, which callers treat as LOCKED.
	GetProgress(ctx context.Context, userID, lessonID string) (p LessonProgress, found bool, err error)
	// ListProgress returns all records for a user.
	ListProgress(ctx context.Context, userID string) ([]LessonProgress, error)
	// ApplyAttempt folds a graded attempt into the record (creating it if
	// absent) and returns the updated row.
	ApplyAttempt(ctx context.Context, userID, lessonID string, score int, passed bool, now time.Time) (LessonProgress, error)
	// EnsureUnlocked creates an UNLOCKED record if none exists. It never
	// touches an existing record; created reports whether it wrote one.
	EnsureUnlocked(ctx context.Context, userID, lessonID string, now time.Time) (created bool, err error)
	// GrantBadge records a badge. Granting a held badge is a no-op;
	// granted reports whether the badge is newly earned.
	GrantBadge(ctx context.Context, userID string, code BadgeCode, now time.Time) (granted bool, err error)
	// Badges returns the user's badges ordered by earn time.
	Badges(ctx context.Context, userID string) ([]UserBadge, error)
	// Atomic runs fn against a transactional view of the store. All writes
	// inside fn commit together or not at all.
	Atomic(ctx context.Context, fn func(Store) error) error
}

// memState is the locking-free core shared by MemoryStore and its
// transactional view.
type memState struct {
	progress map[string]map[string]LessonProgress // userID -> lessonID -> record
	badges   map[string][]UserBadge               // userID -> grants in earn order
}

func newMemState() *memState {
	return &memState{
		progress: make(map[string]map[string]LessonProgress),
		badges:   make(map[string][]UserBadge),
	}
}

func (s *memState) get(userID, lessonID string) (LessonProgress, bool) {
	p, ok := s.progress[userID][lessonID]
	return p, ok
}

func (s *memState) put(p LessonProgress) {
	rows, ok := s.progress[p.UserID]
	if !ok {
		rows = make(map[string]LessonProgress)
		s.progress[p.UserID] = rows
	}
	rows[p.LessonID] = p
}

func (s *memState) applyAttempt(userID, lessonID string, score int, passed bool, now time.Time) LessonProgress {
	p, ok := s.get(userID, lessonID)
	if !ok {
		p = LessonProgress{UserID: userID, LessonID: lessonID, Status: StatusLocked}
	}
	p = p.WithAttempt(score, passed, now)
	s.put(p)
	return p
}

func (s *memState) ensureUnlocked(userID, lessonID string, now time.Time) bool {
	if _, ok := s.get(userID, lessonID); ok {
		return false
	}
	unlockedAt := now
	s.put(LessonProgress{
		UserID:     userID,
		LessonID:   lessonID,
		Status:     StatusUnlocked,
		UnlockedAt: &unlockedAt,
	})
	return true
}

func (s *memState) grantBadge(userID string, code BadgeCode, now time.Time) bool {
	for _, b := range s.badges[userID] {
		if b.Code == code {
			return false
		}
	}
	s.badges[userID] = append(s.badges[userID], UserBadge{
		UserID:   userID,
		Code:     code,
		EarnedAt: now,
	})
	return true
}

// MemoryStore is an in-memory Store implementation for tests and local
// development.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) GetProgress(_ context.Context, userID, lessonID string) (LessonProgress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.get(userID, lessonID)
	return p, ok, nil
}

func (s *MemoryStore) ListProgress(_ context.Context, userID string) ([]LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listProgress(s.state, userID), nil
}

func (s *MemoryStore) ApplyAttempt(_ context.Context, userID, lessonID string, score int, passed bool, now time.Time) (LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.applyAttempt(userID, lessonID, score, passed, now), nil
}

func (s *MemoryStore) EnsureUnlocked(_ context.Context, userID, lessonID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ensureUnlocked(userID, lessonID, now), nil
}

func (s *MemoryStore) GrantBadge(_ context.Context, userID string, code BadgeCode, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.grantBadge(userID, code, now), nil
}

func (s *MemoryStore) Badges(_ context.Context, userID string) ([]UserBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listBadges(s.state, userID), nil
}

// Atomic holds the store lock for the whole of fn, so concurrent attempts
// for the same user serialize.
func (s *MemoryStore) Atomic(_ context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{state: s.state})
}

// memTx is the view handed to Atomic callbacks. The MemoryStore lock is
// already held, so it operates on the shared state directly.
type memTx struct {
	state *memState
}

func (t *memTx) GetProgress(_ context.Context, userID, lessonID string) (LessonProgress, bool, error) {
	p, ok := t.state.get(userID, lessonID)
	return p, ok, nil
}

func (t *memTx) ListProgress(_ context.Context, userID string) ([]LessonProgress, error) {
	return listProgress(t.state, userID), nil
}

func (t *memTx) ApplyAttempt(_ context.Context, userID, lessonID string, score int, passed bool, now time.Time) (LessonProgress, error) {
	return t.state.applyAttempt(userID, lessonID, score, passed, now), nil
}

func (t *memTx) EnsureUnlocked(_ context.Context, userID, lessonID string, now time.Time) (bool, error) {
	return t.state.ensureUnlocked(userID, lessonID, now), nil
}

func (t *memTx) GrantBadge(_ context.Context, userID string, code BadgeCode, now time.Time) (bool, error) {
	return t.state.grantBadge(userID, code, now), nil
}

func (t *memTx) Badges(_ context.Context, userID string) ([]UserBadge, error) {
	return listBadges(t.state, userID), nil
}

func (t *memTx) Atomic(_ context.Context, fn func(Store) error) error {
	return fn(t)
}

func listProgress(state *memState, userID string) []LessonProgress {
	rows := state.progress[userID]
	out := make([]LessonProgress, 0, len(rows))
	for _, p := range rows {
		out = append(out, p)
	}
	return out
}

func listBadges(state *memState, userID string) []UserBadge {
	out := make([]UserBadge, len(state.badges[userID]))
	copy(out, state.badges[userID])
	return out
}
