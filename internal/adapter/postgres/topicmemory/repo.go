// Package topicmemory implements the per-topic spaced-repetition state using
// PostgreSQL.
package topicmemory

import (
	"context"
	"fmt"
	"sort"

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

const getByUserSQL = `
SELECT topic, mastery, stability, due_at, last_seen, review_count, lapses
FROM topic_memory
WHERE user_id = $1`

// GetByUser returns the memory rows for the user, keyed by topic. Topics
// without a row have simply never been observed.
func (r *Repo) GetByUser(ctx context.Context, userID int64) (map[domain.Topic]domain.TopicMemory, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("get topic_memory: %w", err)
	}
	defer rows.Close()

	memories := make(map[domain.Topic]domain.TopicMemory)
	for rows.Next() {
		var m domain.TopicMemory
		if err := rows.Scan(&m.Topic, &m.Mastery, &m.Stability, &m.DueAt,
			&m.LastSeen, &m.ReviewCount, &m.Lapses); err != nil {
			return nil, fmt.Errorf("scan topic_memory: %w", err)
		}
		memories[m.Topic] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic_memory: %w", err)
	}

	return memories, nil
}

// Upsert writes the given memory states, replacing existing rows per topic.
func (r *Repo) Upsert(ctx context.Context, userID int64, memories []domain.TopicMemory) error {
	if len(memories) == 0 {
		return nil
	}

	ordered := make([]domain.TopicMemory, len(memories))
	copy(ordered, memories)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Topic < ordered[j].Topic })

	insert := postgres.Builder.
		Insert("topic_memory").
		Columns("user_id", "topic", "mastery", "stability", "due_at", "last_seen", "review_count", "lapses").
		Suffix(`ON CONFLICT (user_id, topic) DO UPDATE SET
			mastery = EXCLUDED.mastery,
			stability = EXCLUDED.stability,
			due_at = EXCLUDED.due_at,
			last_seen = EXCLUDED.last_seen,
			review_count = EXCLUDED.review_count,
			lapses = EXCLUDED.lapses`)

	for _, m := range ordered {
		insert = insert.Values(userID, m.Topic, m.Mastery, m.Stability, m.DueAt,
			m.LastSeen, m.ReviewCount, m.Lapses)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build topic_memory upsert: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "topic_memory", fmt.Sprintf("user %d", userID))
	}

	return nil
}
