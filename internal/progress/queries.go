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

const defaultSummaryTTL = 30 * time.Second

// Queries are the read-only progress helpers that drive navigation and
// dashboards.
type Queries struct {
	catalog *catalog.Catalog
	store   Store
	cache   *cache.Cache // optional
	ttl     time.Duration
}

// NewQueries creates the query helpers. Cache may be nil, in which case
// every summary read hits the store.
func NewQueries(cat *catalog.Catalog, store Store, c *cache.Cache, ttl time.Duration) *Queries {
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &Queries{catalog: cat, store: store, cache: c, ttl: ttl}
}

// NextUnlockedLesson returns the order index of the first lesson that is
// unlocked but not completed. A user with no usable progress gets lesson 1;
// 0 means the whole course is completed.
func (q *Queries) NextUnlockedLesson(ctx context.Context, userID string) (int, error) {
	byLesson, err := q.progressByLessonID(ctx, userID)
	if err != nil {
		return 0, err
	}

	completed := 0
	next := 0
	for _, lesson := range q.catalog.Lessons() {
		p, ok := byLesson[lesson.ID]
		if !ok {
			continue
		}
		if p.Completed() {
			completed++
			continue
		}
		if p.Status == StatusUnlocked && next == 0 {
			next = lesson.OrderIndex
		}
	}

	if next == 0 && completed < q.catalog.LessonCount() {
		return 1, nil
	}
	return next, nil
}

// CompletedCount returns how many lessons the user has completed.
func (q *Queries) CompletedCount(ctx context.Context, userID string) (int, error) {
	rows, err := q.store.ListProgress(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	count := 0
	for _, p := range rows {
		if p.Completed() {
			count++
		}
	}
	return count, nil
}

// IsUnlocked reports whether the lesson at the given order index is
// accessible to the user. A lesson with no progress record is locked.
func (q *Queries) IsUnlocked(ctx context.Context, userID string, lessonOrderIndex int) (bool, error) {
	lesson, ok := q.catalog.LessonByOrder(lessonOrderIndex)
	if !ok {
		return false, fmt.Errorf("%w: order index %d", ErrLessonNotFound, lessonOrderIndex)
	}
	p, found, err := q.store.GetProgress(ctx, userID, lesson.ID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return found && p.Unlocked(), nil
}

// Progress returns the record for one lesson by order index; found is
// false when the lesson has no record yet.
func (q *Queries) Progress(ctx context.Context, userID string, lessonOrderIndex int) (LessonProgress, bool, error) {
	lesson, ok := q.catalog.LessonByOrder(lessonOrderIndex)
	if !ok {
		return LessonProgress{}, false, fmt.Errorf("%w: order index %d", ErrLessonNotFound, lessonOrderIndex)
	}
	p, found, err := q.store.GetProgress(ctx, userID, lesson.ID)
	if err != nil {
		return LessonProgress{}, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return p, found, nil
}

// Badges returns the user's badges ordered by earn time.
func (q *Queries) Badges(ctx context.Context, userID string) ([]UserBadge, error) {
	badges, err := q.store.Badges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return badges, nil
}

// ProgressByOrder returns the user's progress keyed by lesson order index.
// Lessons without a record are absent (LOCKED).
func (q *Queries) ProgressByOrder(ctx context.Context, userID string) (map[int]LessonProgress, error) {
	byLesson, err := q.progressByLessonID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[int]LessonProgress, len(byLesson))
	for _, lesson := range q.catalog.Lessons() {
		if p, ok := byLesson[lesson.ID]; ok {
			out[lesson.OrderIndex] = p
		}
	}
	return out, nil
}

// ModuleSummary is per-module completion for dashboards.
type ModuleSummary struct {
	OrderIndex int    `json:"order_index"`
	Title      string `json:"title"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

// Summary is the aggregated progress view for one user.
type Summary struct {
	CompletedCount int             `json:"completed_count"`
	LessonCount    int             `json:"lesson_count"`
	NextOrderIndex int             `json:"next_order_index"` // 0 when the course is complete
	Modules        []ModuleSummary `json:"modules"`
}

// Summary aggregates overall and per-module completion. Results are cached
// per user for a short TTL; the engine invalidates on every recorded
// attempt, so the cache only smooths repeated dashboard reads.
func (q *Queries) Summary(ctx context.Context, userID string) (Summary, error) {
	if q.cache != nil {
		var cached Summary
		err := q.cache.GetJSON(ctx, summaryKey(userID), &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("summary cache read failed", "user_id", userID, "error", err)
		}
	}

	byLesson, err := q.progressByLessonID(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{LessonCount: q.catalog.LessonCount()}
	perModule := make(map[int]*ModuleSummary)
	for _, m := range q.catalog.Modules() {
		perModule[m.OrderIndex] = &ModuleSummary{OrderIndex: m.OrderIndex, Title: m.Title}
	}

	for _, lesson := range q.catalog.Lessons() {
		ms := perModule[lesson.ModuleOrderIndex]
		ms.Total++
		p, ok := byLesson[lesson.ID]
		if !ok {
			continue
		}
		if p.Completed() {
			ms.Completed++
			s.CompletedCount++
			continue
		}
		if p.Status == StatusUnlocked && s.NextOrderIndex == 0 {
			s.NextOrderIndex = lesson.OrderIndex
		}
	}
	if s.NextOrderIndex == 0 && s.CompletedCount < s.LessonCount {
		s.NextOrderIndex = 1
	}

	for _, m := range q.catalog.Modules() {
		s.Modules = append(s.Modules, *perModule[m.OrderIndex])
	}

	if q.cache != nil {
		if err := q.cache.SetJSON(ctx, summaryKey(userID), s, q.ttl); err != nil {
			slog.Warn("summary cache write failed", "user_id", userID, "error", err)
		}
	}
	return s, nil
}

func (q *Queries) progressByLessonID(ctx context.Context, userID string) (map[string]LessonProgress, error) {
	rows, err := q.store.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	out := make(map[string]LessonProgress, len(rows))
	for _, p := range rows {
		out[p.LessonID] = p
	}
	return out, nil
}

func summaryKey(userID string) string {
	return "academy:progress:summary:" + userID
}
