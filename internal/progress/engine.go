package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ai-academy/academy-server/internal/catalog"
	"github.com/ai-academy/academy-server/internal/platform/cache"
)

// UserDirectory answers whether a user identifier references a real user.
// identity.Resolver satisfies it.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// EngineConfig holds dependencies for the progress engine.
type EngineConfig struct {
	Catalog    *catalog.Catalog
	Store      Store
	Users      UserDirectory
	Cache      *cache.Cache  // optional; summary invalidation only
	SummaryTTL time.Duration // used by Queries sharing this cache
	Now        func() time.Time
}

// Engine decides, per graded quiz attempt, the new lesson state, whether
// the next lesson unlocks, and which badges to grant. It is safe for
// concurrent use; all mutable state lives in the Store.
type Engine struct {
	catalog *catalog.Catalog
	store   Store
	users   UserDirectory
	cache   *cache.Cache
	rules   badgeRules
	now     func() time.Time
}

// NewEngine creates a progress engine. The badge rule table is derived once
// from the catalog's module-closing lessons; the catalog is immutable after
// load, so the table is stable for the life of the process.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if cfg.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		catalog: cfg.Catalog,
		store:   store,
		users:   cfg.Users,
		cache:   cfg.Cache,
		rules:   newBadgeRules(cfg.Catalog.TerminalLessons()),
		now:     now,
	}, nil
}

// AttemptResult reports the outcome of a recorded attempt to the caller.
type AttemptResult struct {
	LessonOrderIndex int         `json:"lesson_order_index"`
	Score            int         `json:"score"`
	Passed           bool        `json:"passed"`
	Status           Status      `json:"status"`
	BestScore        int         `json:"best_score"`
	Attempts         int         `json:"attempts"`
	UnlockedNext     bool        `json:"unlocked_next"`
	NextOrderIndex   int         `json:"next_order_index,omitempty"`
	BadgesGranted    []BadgeCode `json:"badges_granted,omitempty"`
}

// RecordAttempt grades a quiz submission against the catalog and folds it
// into the user's progress. answers maps question order index to the
// selected choice order index; score and pass are always recomputed
// server-side, never taken from the client.
//
// The progress update, the next-lesson unlock, and any badge grants commit
// in one store transaction. Nothing is written when the user or lesson is
// unknown or the lesson is still locked.
func (e *Engine) RecordAttempt(ctx context.Context, userID string, lessonOrderIndex int, answers map[int]int) (AttemptResult, error) {
	lesson, ok := e.catalog.LessonByOrder(lessonOrderIndex)
	if !ok {
		return AttemptResult{}, fmt.Errorf("%w: order index %d", ErrLessonNotFound, lessonOrderIndex)
	}

	known, err := e.users.Exists(ctx, userID)
	if err != nil {
		return AttemptResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !known {
		return AttemptResult{}, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	score, passed := lesson.Quiz.Grade(answers)
	now := e.now()

	result := AttemptResult{
		LessonOrderIndex: lessonOrderIndex,
		Score:            score,
		Passed:           passed,
	}

	err = e.store.Atomic(ctx, func(tx Store) error {
		current, found, err := tx.GetProgress(ctx, userID, lesson.ID)
		if err != nil {
			return err
		}
		if !found || current.Status == StatusLocked {
			return fmt.Errorf("%w: lesson %d", ErrLessonLocked, lessonOrderIndex)
		}

		// The authoritative progress row is written last (spec order for
		// stores without multi-row transactions); inside a transaction the
		// order is moot but harmless.
		if passed {
			if next := lessonOrderIndex + 1; next <= e.catalog.LessonCount() {
				nextLesson, ok := e.catalog.LessonByOrder(next)
				if !ok {
					return fmt.Errorf("catalog has no lesson %d", next)
				}
				created, err := tx.EnsureUnlocked(ctx, userID, nextLesson.ID, now)
				if err != nil {
					return err
				}
				result.UnlockedNext = created
				if created {
					result.NextOrderIndex = next
				}
			}

			if code, ok := e.rules[lessonOrderIndex]; ok {
				granted, err := tx.GrantBadge(ctx, userID, code, now)
				if err != nil {
					return err
				}
				if granted {
					result.BadgesGranted = append(result.BadgesGranted, code)
				}
			}
			if lessonOrderIndex == e.catalog.LessonCount() {
				granted, err := tx.GrantBadge(ctx, userID, BadgeCourseComplete, now)
				if err != nil {
					return err
				}
				if granted {
					result.BadgesGranted = append(result.BadgesGranted, BadgeCourseComplete)
				}
			}
		}

		updated, err := tx.ApplyAttempt(ctx, userID, lesson.ID, score, passed, now)
		if err != nil {
			return err
		}
		result.Status = updated.Status
		result.BestScore = updated.BestScore
		result.Attempts = updated.Attempts
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLessonLocked) {
			return AttemptResult{}, err
		}
		return AttemptResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.invalidateSummary(ctx, userID)

	slog.Info("attempt recorded",
		"user_id", userID,
		"lesson", lessonOrderIndex,
		"score", score,
		"passed", passed,
		"attempts", result.Attempts,
		"badges", len(result.BadgesGranted),
	)
	return result, nil
}

// InitUser unlocks the first lesson for a newly created user. Safe to call
// more than once; an existing record is left untouched.
func (e *Engine) InitUser(ctx context.Context, userID string) error {
	first, ok := e.catalog.LessonByOrder(1)
	if !ok {
		return fmt.Errorf("%w: order index 1", ErrLessonNotFound)
	}
	if _, err := e.store.EnsureUnlocked(ctx, userID, first.ID, e.now()); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (e *Engine) invalidateSummary(ctx context.Context, userID string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(ctx, summaryKey(userID)); err != nil {
		slog.Warn("summary cache invalidation failed", "user_id", userID, "error", err)
	}
}
