package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ai-academy/academy-server/internal/platform/database"
)

// querier is the subset of pgx shared by a pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a PostgreSQL-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
	q    querier
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, q: pool}, nil
}

// EnsureSchema creates the progress tables if they do not exist. The users
// table (see identity.PostgresResolver) must exist first.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lesson_progress (
			user_id      TEXT NOT NULL REFERENCES users(id),
			lesson_id    TEXT NOT NULL,
			status       TEXT NOT NULL CHECK (status IN ('LOCKED', 'UNLOCKED', 'COMPLETED')),
			passed       BOOLEAN NOT NULL DEFAULT FALSE,
			best_score   INTEGER NOT NULL DEFAULT 0,
			last_score   INTEGER NOT NULL DEFAULT 0,
			attempts     INTEGER NOT NULL DEFAULT 0,
			unlocked_at  TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, lesson_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id   TEXT NOT NULL REFERENCES users(id),
			code      TEXT NOT NULL,
			earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, code)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating progress tables: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetProgress(ctx context.Context, userID, lessonID string) (LessonProgress, bool, error) {
	return getProgress(ctx, s.q, userID, lessonID)
}

func (s *PostgresStore) ListProgress(ctx context.Context, userID string) ([]LessonProgress, error) {
	return queryProgress(ctx, s.q, userID)
}

func (s *PostgresStore) ApplyAttempt(ctx context.Context, userID, lessonID string, score int, passed bool, now time.Time) (LessonProgress, error) {
	return applyAttempt(ctx, s.q, userID, lessonID, score, passed, now)
}

func (s *PostgresStore) EnsureUnlocked(ctx context.Context, userID, lessonID string, now time.Time) (bool, error) {
	return ensureUnlocked(ctx, s.q, userID, lessonID, now)
}

func (s *PostgresStore) GrantBadge(ctx context.Context, userID string, code BadgeCode, now time.Time) (bool, error) {
	return grantBadge(ctx, s.q, userID, code, now)
}

func (s *PostgresStore) Badges(ctx context.Context, userID string) ([]UserBadge, error) {
	return queryBadges(ctx, s.q, userID)
}

// Atomic runs fn in a single database transaction.
func (s *PostgresStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{q: tx})
	})
}

// pgTx is the transactional view handed to Atomic callbacks.
type pgTx struct {
	q pgx.Tx
}

func (t *pgTx) GetProgress(ctx context.Context, userID, lessonID string) (LessonProgress, bool, error) {
	return getProgress(ctx, t.q, userID, lessonID)
}

func (t *pgTx) ListProgress(ctx context.Context, userID string) ([]LessonProgress, error) {
	return queryProgress(ctx, t.q, userID)
}

func (t *pgTx) ApplyAttempt(ctx context.Context, userID, lessonID string, score int, passed bool, now time.Time) (LessonProgress, error) {
	return applyAttempt(ctx, t.q, userID, lessonID, score, passed, now)
}

func (t *pgTx) EnsureUnlocked(ctx context.Context, userID, lessonID string, now time.Time) (bool, error) {
	return ensureUnlocked(ctx, t.q, userID, lessonID, now)
}

func (t *pgTx) GrantBadge(ctx context.Context, userID string, code BadgeCode, now time.Time) (bool, error) {
	return grantBadge(ctx, t.q, userID, code, now)
}

func (t *pgTx) Badges(ctx context.Context, userID string) ([]UserBadge, error) {
	return queryBadges(ctx, t.q, userID)
}

func (t *pgTx) Atomic(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

const progressColumns = `user_id, lesson_id, status, passed, best_score, last_score, attempts, unlocked_at, completed_at`

func getProgress(ctx context.Context, q querier, userID, lessonID string) (LessonProgress, bool, error) {
	row := q.QueryRow(ctx,
		`SELECT `+progressColumns+`
		 FROM lesson_progress
		 WHERE user_id = $1 AND lesson_id = $2`,
		userID, lessonID,
	)
	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LessonProgress{}, false, nil
		}
		return LessonProgress{}, false, fmt.Errorf("get progress: %w", err)
	}
	return p, true, nil
}

func queryProgress(ctx context.Context, q querier, userID string) ([]LessonProgress, error) {
	rows, err := q.Query(ctx,
		`SELECT `+progressColumns+`
		 FROM lesson_progress
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []LessonProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}

// applyAttempt folds one attempt into the row in SQL, mirroring
// LessonProgress.WithAttempt: GREATEST keeps best_score monotonic, attempts
// always increments, passed is sticky, and status never leaves COMPLETED.
// Doing the fold in the upsert means two racing submissions both count.
func applyAttempt(ctx context.Context, q querier, userID, lessonID string, score int, passed bool, now time.Time) (LessonProgress, error) {
	status := StatusUnlocked
	var completedAt *time.Time
	if passed {
		status = StatusCompleted
		completedAt = &now
	}

	row := q.QueryRow(ctx,
		`INSERT INTO lesson_progress (`+progressColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $5, 1, NULL, $6)
		 ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			best_score   = GREATEST(lesson_progress.best_score, EXCLUDED.best_score),
			last_score   = EXCLUDED.last_score,
			attempts     = lesson_progress.attempts + 1,
			passed       = lesson_progress.passed OR EXCLUDED.passed,
			status       = CASE
				WHEN lesson_progress.status = 'COMPLETED' OR EXCLUDED.status = 'COMPLETED' THEN 'COMPLETED'
				ELSE 'UNLOCKED'
			END,
			completed_at = CASE
				WHEN EXCLUDED.status = 'COMPLETED' THEN EXCLUDED.completed_at
				ELSE lesson_progress.completed_at
			END
		 RETURNING `+progressColumns,
		userID, lessonID, string(status), passed, score, completedAt,
	)
	p, err := scanProgress(row)
	if err != nil {
		return LessonProgress{}, fmt.Errorf("apply attempt: %w", err)
	}
	return p, nil
}

func ensureUnlocked(ctx context.Context, q querier, userID, lessonID string, now time.Time) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO lesson_progress (user_id, lesson_id, status, unlocked_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		userID, lessonID, string(StatusUnlocked), now,
	)
	if err != nil {
		return false, fmt.Errorf("ensure unlocked: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func grantBadge(ctx context.Context, q querier, userID string, code BadgeCode, now time.Time) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO user_badges (user_id, code, earned_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, code) DO NOTHING`,
		userID, string(code), now,
	)
	if err != nil {
		return false, fmt.Errorf("grant badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func queryBadges(ctx context.Context, q querier, userID string) ([]UserBadge, error) {
	rows, err := q.Query(ctx,
		`SELECT user_id, code, earned_at
		 FROM user_badges
		 WHERE user_id = $1
		 ORDER BY earned_at ASC, code ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	var out []UserBadge
	for rows.Next() {
		var b UserBadge
		var code string
		if err := rows.Scan(&b.UserID, &code, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		b.Code = BadgeCode(code)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}
	return out, nil
}

func scanProgress(row pgx.Row) (LessonProgress, error) {
	var p LessonProgress
	var status string
	err := row.Scan(
		&p.UserID,
		&p.LessonID,
		&status,
		&p.Passed,
		&p.BestScore,
		&p.LastScore,
		&p.Attempts,
		&p.UnlockedAt,
		&p.CompletedAt,
	)
	if err != nil {
		return LessonProgress{}, err
	}
	p.Status = Status(status)
	return p, nil
}
