// Package answerlog implements the append-only raw answer audit log using
// PostgreSQL. Windowed aggregates (StatsSince) are computed entirely in SQL.
package answerlog

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
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

const insertSQL = `
INSERT INTO answers (id, user_id, session_id, topic, question_type, correct, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const statsSinceSQL = `
SELECT
    topic,
    count(*) FILTER (WHERE correct) AS correct,
    count(*) AS total,
    max(created_at) AS last_seen
FROM answers
WHERE user_id = $1 AND created_at >= $2
GROUP BY topic`

const listRecentWrongSQL = `
SELECT id, session_id, topic, question_type, correct
FROM answers
WHERE user_id = $1 AND NOT correct
ORDER BY created_at DESC
LIMIT $2`

// CreateBatch appends the entries in one round trip.
func (r *Repo) CreateBatch(ctx context.Context, entries []domain.AnswerLogEntry, createdAt time.Time) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertSQL, e.ID, e.UserID, e.SessionID, e.Topic, e.Type, e.Correct, createdAt)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	results := querier.SendBatch(ctx, batch)
	defer results.Close()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "answers", fmt.Sprintf("user %d", entries[0].UserID))
		}
	}

	return results.Close()
}

// StatsSince aggregates per-topic accuracy over answers recorded at or after
// the cutoff.
func (r *Repo) StatsSince(ctx context.Context, userID int64, since time.Time) (map[domain.Topic]domain.TopicStat, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, statsSinceSQL, userID, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate answers: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.Topic]domain.TopicStat)
	for rows.Next() {
		var st domain.TopicStat
		if err := rows.Scan(&st.Topic, &st.Correct, &st.Total, &st.LastSeen); err != nil {
			return nil, fmt.Errorf("scan answer aggregate: %w", err)
		}
		stats[st.Topic] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer aggregates: %w", err)
	}

	return stats, nil
}

// ListRecentWrong returns the user's latest incorrect answers, newest first.
func (r *Repo) ListRecentWrong(ctx context.Context, userID int64, limit int) ([]domain.AnswerLogEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listRecentWrongSQL, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list wrong answers: %w", err)
	}
	defer rows.Close()

	var entries []domain.AnswerLogEntry
	for rows.Next() {
		e := domain.AnswerLogEntry{UserID: userID}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Topic, &e.Type, &e.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}

	if entries == nil {
		entries = []domain.AnswerLogEntry{}
	}

	return entries, nil
}
