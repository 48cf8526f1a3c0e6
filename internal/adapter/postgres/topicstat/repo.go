// Package topicstat implements the cumulative per-topic accuracy counters
// using PostgreSQL.
package topicstat

import (
	"context"
	"fmt"
	"sort"
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

const getByUserSQL = `
SELECT topic, correct, total, last_seen
FROM topic_stats
WHERE user_id = $1`

// GetByUser returns every stat row for the user, keyed by topic. Users with
// no history get an empty map.
func (r *Repo) GetByUser(ctx context.Context, userID int64) (map[domain.Topic]domain.TopicStat, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, getByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("get topic_stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.Topic]domain.TopicStat)
	for rows.Next() {
		var st domain.TopicStat
		if err := rows.Scan(&st.Topic, &st.Correct, &st.Total, &st.LastSeen); err != nil {
			return nil, fmt.Errorf("scan topic_stat: %w", err)
		}
		stats[st.Topic] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic_stats: %w", err)
	}

	return stats, nil
}

// Apply adds the per-topic deltas to the counters, creating rows as needed.
// last_seen moves forward to seenAt for every touched topic.
func (r *Repo) Apply(ctx context.Context, userID int64, deltas map[domain.Topic]domain.StatDelta, seenAt time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	insert := postgres.Builder.
		Insert("topic_stats").
		Columns("user_id", "topic", "correct", "total", "last_seen").
		Suffix(`ON CONFLICT (user_id, topic) DO UPDATE SET
			correct = topic_stats.correct + EXCLUDED.correct,
			total = topic_stats.total + EXCLUDED.total,
			last_seen = EXCLUDED.last_seen`)

	// Fixed topic order keeps the statement deterministic for tests and logs.
	topics := make([]domain.Topic, 0, len(deltas))
	for t := range deltas {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i] < topics[j] })

	for _, t := range topics {
		d := deltas[t]
		insert = insert.Values(userID, t, d.Correct, d.Total, seenAt)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build topic_stats upsert: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "topic_stats", fmt.Sprintf("user %d", userID))
	}

	return nil
}
