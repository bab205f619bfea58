package httpapi

import (
	"time"

	"github.com/ai-academy/academy-server/internal/catalog"
	"github.com/ai-academy/academy-server/internal/progress"
)

type errorResponse struct {
	Error string `json:"error"`
}

type lessonSummary struct {
	OrderIndex  int    `json:"order_index"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Status      string `json:"status"`
	BestScore   int    `json:"best_score"`
	Attempts    int    `json:"attempts"`
}

type moduleItem struct {
	OrderIndex  int             `json:"order_index"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Lessons     []lessonSummary `json:"lessons"`
}

type courseResponse struct {
	Title          string       `json:"title"`
	LessonCount    int          `json:"lesson_count"`
	CompletedCount int          `json:"completed_count"`
	NextOrderIndex int          `json:"next_order_index"`
	Modules        []moduleItem `json:"modules"`
}

// lessonResponse carries the full lesson body. Quiz choices omit the
// correct flag at the type level, so a locked answer key cannot leak here.
type lessonResponse struct {
	Lesson   catalog.Lesson `json:"lesson"`
	Status   string         `json:"status"`
	Progress lessonProgress `json:"progress"`
}

type lessonProgress struct {
	Passed    bool       `json:"passed"`
	BestScore int        `json:"best_score"`
	LastScore int        `json:"last_score"`
	Attempts  int        `json:"attempts"`
	Completed *time.Time `json:"completed_at,omitempty"`
}

type attemptRequest struct {
	Answers map[int]int `json:"answers"`
}

type badgeItem struct {
	Code     string    `json:"code"`
	EarnedAt time.Time `json:"earned_at"`
}

type badgesResponse struct {
	Badges []badgeItem `json:"badges"`
}

type progressResponse struct {
	Summary progress.Summary          `json:"summary"`
	Lessons map[int]lessonProgressRow `json:"lessons"`
}

type lessonProgressRow struct {
	Status      string     `json:"status"`
	Passed      bool       `json:"passed"`
	BestScore   int        `json:"best_score"`
	LastScore   int        `json:"last_score"`
	Attempts    int        `json:"attempts"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
