package progress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ai-academy/academy-server/internal/progress"
)

func TestEngineRecordAttempt_FirstLessonPass(t *testing.T) {
	env, user := newTestEnv(t)

	result, err := env.engine.RecordAttempt(context.Background(), user.ID, 1, answers(5))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	if result.Score != 100 || !result.Passed {
		t.Errorf("result score/passed = %d/%v, want 100/true", result.Score, result.Passed)
	}
	if result.Status != progress.StatusCompleted {
		t.Errorf("result.Status = %q, want %q", result.Status, progress.StatusCompleted)
	}
	if result.Attempts != 1 || result.BestScore != 100 {
		t.Errorf("attempts/best = %d/%d, want 1/100", result.Attempts, result.BestScore)
	}
	if !result.UnlockedNext || result.NextOrderIndex != 2 {
		t.Errorf("unlocked next = %v/%d, want true/2", result.UnlockedNext, result.NextOrderIndex)
	}
	if len(result.BadgesGranted) != 0 {
		t.Errorf("BadgesGranted = %v, want none for a mid-module lesson", result.BadgesGranted)
	}

	unlocked, err := env.queries.IsUnlocked(context.Background(), user.ID, 2)
	if err != nil {
		t.Fatalf("IsUnlocked() error = %v", err)
	}
	if !unlocked {
		t.Error("lesson 2 not unlocked after passing lesson 1")
	}
}

func TestEngineRecordAttempt_FailKeepsLessonLocked(t *testing.T) {
	env, user := newTestEnv(t)

	result, err := env.engine.RecordAttempt(context.Background(), user.ID, 1, answers(3))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	if result.Score != 60 || result.Passed {
		t.Errorf("result score/passed = %d/%v, want 60/false", result.Score, result.Passed)
	}
	if result.Status != progress.StatusUnlocked {
		t.Errorf("result.Status = %q, want %q", result.Status, progress.StatusUnlocked)
	}
	if result.Attempts != 1 || result.BestScore != 60 {
		t.Errorf("attempts/best = %d/%d, want 1/60", result.Attempts, result.BestScore)
	}
	if result.UnlockedNext {
		t.Error("failed attempt must not unlock the next lesson")
	}

	unlocked, err := env.queries.IsUnlocked(context.Background(), user.ID, 2)
	if err != nil {
		t.Fatalf("IsUnlocked() error = %v", err)
	}
	if unlocked {
		t.Error("lesson 2 unlocked after a failed attempt on lesson 1")
	}
}

func TestEngineRecordAttempt_RetakeGrantsModuleBadge(t *testing.T) {
	env, user := newTestEnv(t)
	passLessons(t, env, user.ID, 3)

	// Fail the module-closing lesson first, then pass on the retake.
	failed, err := env.engine.RecordAttempt(context.Background(), user.ID, 4, answers(3))
	if err != nil {
		t.Fatalf("RecordAttempt(fail) error = %v", err)
	}
	if len(failed.BadgesGranted) != 0 {
		t.Errorf("failed attempt granted badges %v", failed.BadgesGranted)
	}

	result, err := env.engine.RecordAttempt(context.Background(), user.ID, 4, answers(4))
	if err != nil {
		t.Fatalf("RecordAttempt(retake) error = %v", err)
	}

	if result.Score != 80 || !result.Passed {
		t.Errorf("result score/passed = %d/%v, want 80/true", result.Score, result.Passed)
	}
	if result.Attempts != 2 {
		t.Errorf("result.Attempts = %d, want 2", result.Attempts)
	}
	if result.BestScore != 80 {
		t.Errorf("result.BestScore = %d, want 80", result.BestScore)
	}
	if len(result.BadgesGranted) != 1 || result.BadgesGranted[0] != progress.BadgeModule1Complete {
		t.Errorf("BadgesGranted = %v, want [%s]", result.BadgesGranted, progress.BadgeModule1Complete)
	}
}

func TestEngineRecordAttempt_CourseCompletion(t *testing.T) {
	env, user := newTestEnv(t)
	passLessons(t, env, user.ID, 19)

	result, err := env.engine.RecordAttempt(context.Background(), user.ID, 20, answers(5))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	if result.UnlockedNext {
		t.Error("passing the final lesson must not unlock anything")
	}
	want := []progress.BadgeCode{progress.BadgeModule6Complete, progress.BadgeCourseComplete}
	if len(result.BadgesGranted) != len(want) {
		t.Fatalf("BadgesGranted = %v, want %v", result.BadgesGranted, want)
	}
	for i, code := range want {
		if result.BadgesGranted[i] != code {
			t.Errorf("BadgesGranted[%d] = %s, want %s", i, result.BadgesGranted[i], code)
		}
	}

	next, err := env.queries.NextUnlockedLesson(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("NextUnlockedLesson() error = %v", err)
	}
	if next != 0 {
		t.Errorf("NextUnlockedLesson() = %d, want 0 after completing the course", next)
	}

	badges, err := env.queries.Badges(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Badges() error = %v", err)
	}
	if len(badges) != 7 {
		t.Errorf("badge count = %d, want 6 module badges plus course badge", len(badges))
	}
}

func TestEngineRecordAttempt_LockedLessonRejectedWithoutWrites(t *testing.T) {
	env, user := newTestEnv(t)

	_, err := env.engine.RecordAttempt(context.Background(), user.ID, 3, answers(5))
	if !errors.Is(err, progress.ErrLessonLocked) {
		t.Fatalf("RecordAttempt() error = %v, want ErrLessonLocked", err)
	}

	rows, err := env.queries.ProgressByOrder(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ProgressByOrder() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("progress rows = %d, want only the initial lesson 1 record", len(rows))
	}
	if _, ok := rows[3]; ok {
		t.Error("rejected attempt wrote a progress record for lesson 3")
	}
}

func TestEngineRecordAttempt_BadgeAndUnlockIdempotent(t *testing.T) {
	env, user := newTestEnv(t)
	passLessons(t, env, user.ID, 4)

	result, err := env.engine.RecordAttempt(context.Background(), user.ID, 4, answers(5))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	if len(result.BadgesGranted) != 0 {
		t.Errorf("retake granted badges %v, want none", result.BadgesGranted)
	}
	if result.UnlockedNext {
		t.Error("retake reported an unlock for an already unlocked lesson")
	}

	badges, err := env.queries.Badges(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Badges() error = %v", err)
	}
	if len(badges) != 1 {
		t.Errorf("badge count = %d, want 1", len(badges))
	}
}

func TestEngineRecordAttempt_FailedRetakeKeepsCompletion(t *testing.T) {
	env, user := newTestEnv(t)
	passLessons(t, env, user.ID, 2)

	result, err := env.engine.RecordAttempt(context.Background(), user.ID, 1, answers(3))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	if result.Status != progress.StatusCompleted {
		t.Errorf("result.Status = %q, want %q", result.Status, progress.StatusCompleted)
	}
	if result.BestScore != 100 {
		t.Errorf("result.BestScore = %d, want 100", result.BestScore)
	}
	if result.Attempts != 2 {
		t.Errorf("result.Attempts = %d, want 2", result.Attempts)
	}

	rows, err := env.queries.ProgressByOrder(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ProgressByOrder() error = %v", err)
	}
	p := rows[1]
	if !p.Passed || p.CompletedAt == nil {
		t.Errorf("lesson 1 after failed retake: passed=%v completedAt=%v, want sticky completion", p.Passed, p.CompletedAt)
	}
	if p.LastScore != 60 {
		t.Errorf("lesson 1 LastScore = %d, want 60", p.LastScore)
	}
}

func TestEngineRecordAttempt_UnknownUser(t *testing.T) {
	env, _ := newTestEnv(t)

	_, err := env.engine.RecordAttempt(context.Background(), "nobody", 1, answers(5))
	if !errors.Is(err, progress.ErrUserNotFound) {
		t.Errorf("RecordAttempt() error = %v, want ErrUserNotFound", err)
	}
}

func TestEngineRecordAttempt_UnknownLesson(t *testing.T) {
	env, user := newTestEnv(t)

	for _, order := range []int{0, 21, -5} {
		_, err := env.engine.RecordAttempt(context.Background(), user.ID, order, answers(5))
		if !errors.Is(err, progress.ErrLessonNotFound) {
			t.Errorf("RecordAttempt(order %d) error = %v, want ErrLessonNotFound", order, err)
		}
	}
}

func TestEngineInitUser_Idempotent(t *testing.T) {
	env, user := newTestEnv(t)
	passLessons(t, env, user.ID, 1)

	// A repeated init must not reset the completed first lesson.
	if err := env.engine.InitUser(context.Background(), user.ID); err != nil {
		t.Fatalf("InitUser() error = %v", err)
	}

	rows, err := env.queries.ProgressByOrder(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ProgressByOrder() error = %v", err)
	}
	if rows[1].Status != progress.StatusCompleted {
		t.Errorf("lesson 1 status = %q after re-init, want %q", rows[1].Status, progress.StatusCompleted)
	}
}
