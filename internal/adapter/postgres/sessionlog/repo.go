// Package sessionlog implements the append-only completed-session log using
// PostgreSQL.
package sessionlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aparasochka/greektutor/internal/adapter/postgres"
	"github.com/aparasochka/greektutor/internal/domain"
)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSessionDatesSQL = `
SELECT DISTINCT session_date
FROM quiz_sessions
WHERE user_id = $1
ORDER BY session_date DESC`

// Create appends one completed-session row. Rows are never updated.
func (r *Repo) Create(ctx context.Context, s domain.CompletedSession) error {
	sql, args, err := postgres.Builder.
		Insert("quiz_sessions").
		Columns("id", "user_id", "session_date", "completed_at", "correct_answers", "total_questions").
		Values(s.ID, s.UserID, s.SessionDate, s.CompletedAt, s.CorrectAnswers, s.TotalQuestions).
		ToSql()
	if err != nil {
		return fmt.Errorf("build quiz_session insert: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "quiz_session", s.ID.String())
	}

	return nil
}

// GetSessionDates returns the distinct calendar days with at least one
// completed session, newest first.
func (r *Repo) GetSessionDates(ctx context.Context, userID int64) ([]time.Time, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getSessionDatesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("get session dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan session date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session dates: %w", err)
	}

	if dates == nil {
		dates = []time.Time{}
	}

	return dates, nil
}
