package progress_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ai-academy/academy-server/internal/catalog"
	"github.com/ai-academy/academy-server/internal/identity"
	"github.com/ai-academy/academy-server/internal/progress"
)

// moduleOf mirrors the course layout: module 1 ends at lesson 4, then
// 7, 11, 15, 18, 20.
func moduleOf(lessonOrder int) int {
	switch {
	case lessonOrder <= 4:
		return 1
	case lessonOrder <= 7:
		return 2
	case lessonOrder <= 11:
		return 3
	case lessonOrder <= 15:
		return 4
	case lessonOrder <= 18:
		return 5
	default:
		return 6
	}
}

// testCatalog builds a 6-module, 20-lesson course. Every quiz has five
// questions with choice 1 correct and a pass score of 80, so four correct
// answers (score 80) pass and three (score 60) fail.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	course := catalog.Course{Title: "Test Academy"}
	for m := 1; m <= 6; m++ {
		course.Modules = append(course.Modules, catalog.Module{
			OrderIndex: m,
			Title:      fmt.Sprintf("Module %d", m),
		})
	}
	for l := 1; l <= 20; l++ {
		lesson := catalog.Lesson{
			OrderIndex:       l,
			ModuleOrderIndex: moduleOf(l),
			Title:            fmt.Sprintf("Lesson %d", l),
			TimeMinutes:      5,
			Quiz:             catalog.Quiz{PassScore: 80},
		}
		for q := 1; q <= 5; q++ {
			lesson.Quiz.Questions = append(lesson.Quiz.Questions, catalog.Question{
				OrderIndex: q,
				Prompt:     fmt.Sprintf("Question %d", q),
				Choices: []catalog.Choice{
					{OrderIndex: 1, Text: "right", IsCorrect: true},
					{OrderIndex: 2, Text: "wrong"},
				},
			})
		}
		course.Lessons = append(course.Lessons, lesson)
	}

	cat, err := catalog.New(course)
	if err != nil {
		t.Fatalf("building test catalog: %v", err)
	}
	return cat
}

// answers returns a submission with the first n of five questions correct,
// i.e. a score of n*20.
func answers(n int) map[int]int {
	out := make(map[int]int, 5)
	for q := 1; q <= 5; q++ {
		if q <= n {
			out[q] = 1
		} else {
			out[q] = 2
		}
	}
	return out
}

type testEnv struct {
	engine  *progress.Engine
	queries *progress.Queries
	store   *progress.MemoryStore
	users   *identity.MemoryResolver
}

// newTestEnv wires an engine over the memory store and creates one user
// with lesson 1 unlocked.
func newTestEnv(t *testing.T) (*testEnv, identity.User) {
	t.Helper()

	cat := testCatalog(t)
	store := progress.NewMemoryStore()
	users := identity.NewMemoryResolver()

	engine, err := progress.NewEngine(progress.EngineConfig{
		Catalog: cat,
		Store:   store,
		Users:   users,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	user, err := users.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := engine.InitUser(context.Background(), user.ID); err != nil {
		t.Fatalf("InitUser() error = %v", err)
	}

	return &testEnv{
		engine:  engine,
		queries: progress.NewQueries(cat, store, nil, 0),
		store:   store,
		users:   users,
	}, user
}

// passLessons walks the user through passing lessons 1..n in order.
func passLessons(t *testing.T, env *testEnv, userID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if _, err := env.engine.RecordAttempt(context.Background(), userID, i, answers(5)); err != nil {
			t.Fatalf("RecordAttempt(lesson %d) error = %v", i, err)
		}
	}
}
