// Package progress implements the quiz-gated unlock state machine: given a
// graded quiz attempt it decides whether a lesson counts as passed, whether
// the next lesson opens, and which badges to grant.
package progress

import (
	"errors"
	"time"
)

// Status is the per-user, per-lesson state. It only moves forward:
// LOCKED -> UNLOCKED -> COMPLETED.
type Status string

const (
	StatusLocked    Status = "LOCKED"
	StatusUnlocked  Status = "UNLOCKED"
	StatusCompleted Status = "COMPLETED"
)

// Engine error taxonomy. The HTTP layer maps these to status codes.
var (
	ErrUserNotFound     = errors.New("progress: user not found")
	ErrLessonNotFound   = errors.New("progress: lesson not found")
	ErrLessonLocked     = errors.New("progress: lesson is locked")
	ErrStoreUnavailable = errors.New("progress: store unavailable")
)

// LessonProgress is the durable (user, lesson) record. An absent record is
// equivalent to StatusLocked.
type LessonProgress struct {
	UserID      string     `json:"user_id"`
	LessonID    string     `json:"lesson_id"`
	Status      Status     `json:"status"`
	Passed      bool       `json:"passed"`
	BestScore   int        `json:"best_score"`
	LastScore   int        `json:"last_score"`
	Attempts    int        `json:"attempts"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UserBadge is one earned badge. Rows are append-only and unique per
// (user, code).
type UserBadge struct {
	UserID   string    `json:"user_id"`
	Code     BadgeCode `json:"code"`
	EarnedAt time.Time `json:"earned_at"`
}

// WithAttempt folds one graded attempt into the record: best score is
// monotonic, attempts count every submission, passed is sticky, and status
// never regresses. The zero-value record (status "") is treated as LOCKED.
func (p LessonProgress) WithAttempt(score int, passed bool, now time.Time) LessonProgress {
	if p.Status == "" {
		p.Status = StatusLocked
	}

	p.LastScore = score
	if score > p.BestScore {
		p.BestScore = score
	}
	p.Attempts++

	if passed {
		p.Passed = true
		p.Status = StatusCompleted
		p.CompletedAt = &now
		return p
	}
	if p.Status == StatusLocked {
		p.Status = StatusUnlocked
	}
	return p
}

// Unlocked reports whether the lesson content is accessible.
func (p LessonProgress) Unlocked() bool {
	return p.Status == StatusUnlocked || p.Status == StatusCompleted
}

// Completed reports whether the lesson counts toward course completion.
func (p LessonProgress) Completed() bool {
	return p.Status == StatusCompleted && p.Passed
}
