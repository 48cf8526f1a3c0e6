// Package pausedsession persists in-progress quiz sessions as one JSONB
// payload per user. The durable row is the authoritative copy of a session;
// any in-memory cache is an optimization.
package pausedsession

import (
	"context"
	"encoding/json"
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

const getSQL = `
SELECT payload, expires_at
FROM paused_sessions
WHERE user_id = $1`

const upsertSQL = `
INSERT INTO paused_sessions (user_id, payload, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id) DO UPDATE SET
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()`

const deleteSQL = `DELETE FROM paused_sessions WHERE user_id = $1`

// Save writes the session, replacing any previous one for the user.
func (r *Repo) Save(ctx context.Context, s *domain.QuizSession) error {
	payload, err := marshalSession(s)
	if err != nil {
		return fmt.Errorf("paused_session user %d: %w", s.UserID, err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, upsertSQL, s.UserID, payload, s.ExpiresAt); err != nil {
		return postgres.MapError(err, "paused_session", fmt.Sprintf("user %d", s.UserID))
	}

	return nil
}

// Get returns the stored session for the user.
// Returns domain.ErrNotFound when no session is stored.
func (r *Repo) Get(ctx context.Context, userID int64) (*domain.QuizSession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		payload   []byte
		expiresAt time.Time
	)
	err := querier.QueryRow(ctx, getSQL, userID).Scan(&payload, &expiresAt)
	if err != nil {
		return nil, postgres.MapError(err, "paused_session", fmt.Sprintf("user %d", userID))
	}

	s, err := unmarshalSession(payload)
	if err != nil {
		return nil, fmt.Errorf("paused_session user %d: %w", userID, err)
	}
	s.UserID = userID
	s.ExpiresAt = expiresAt

	return s, nil
}

// Delete removes the stored session. Deleting a missing session is a no-op.
func (r *Repo) Delete(ctx context.Context, userID int64) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := querier.Exec(ctx, deleteSQL, userID); err != nil {
		return postgres.MapError(err, "paused_session", fmt.Sprintf("user %d", userID))
	}
	return nil
}

// ---------------------------------------------------------------------------
// JSONB serialization
// ---------------------------------------------------------------------------

// Domain types carry no json tags; the repo owns the wire shape.

type questionJSON struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Topic        string   `json:"topic"`
	Type         string   `json:"type"`
}

type answerJSON struct {
	Topic   string `json:"topic"`
	Type    string `json:"type"`
	Correct bool   `json:"correct"`
}

type sessionJSON struct {
	Questions    []questionJSON `json:"questions"`
	CurrentIndex int            `json:"current_index"`
	Answers      []answerJSON   `json:"answers"`
	SessionDates []string       `json:"session_dates"`
	State        string         `json:"state"`
}

func marshalSession(s *domain.QuizSession) ([]byte, error) {
	j := sessionJSON{
		CurrentIndex: s.CurrentIndex,
		State:        string(s.State),
		Questions:    make([]questionJSON, len(s.Questions)),
		Answers:      make([]answerJSON, len(s.Answers)),
		SessionDates: make([]string, len(s.SessionDates)),
	}

	for i, q := range s.Questions {
		j.Questions[i] = questionJSON{
			Text:         q.Text,
			Options:      q.Options[:],
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
			Topic:        string(q.Topic),
			Type:         string(q.Type),
		}
	}
	for i, a := range s.Answers {
		j.Answers[i] = answerJSON{Topic: string(a.Topic), Type: string(a.Type), Correct: a.Correct}
	}
	for i, d := range s.SessionDates {
		j.SessionDates[i] = d.UTC().Format(time.RFC3339)
	}

	return json.Marshal(j)
}

func unmarshalSession(data []byte) (*domain.QuizSession, error) {
	var j sessionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	s := &domain.QuizSession{
		CurrentIndex: j.CurrentIndex,
		State:        domain.SessionState(j.State),
		Questions:    make([]domain.Question, len(j.Questions)),
		Answers:      make([]domain.AnswerRecord, len(j.Answers)),
		SessionDates: make([]time.Time, len(j.SessionDates)),
	}

	for i, q := range j.Questions {
		if len(q.Options) != domain.OptionCount {
			return nil, fmt.Errorf("question %d: expected %d options, got %d", i, domain.OptionCount, len(q.Options))
		}
		dq := domain.Question{
			Text:         q.Text,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
			Topic:        domain.Topic(q.Topic),
			Type:         domain.QuestionType(q.Type),
		}
		copy(dq.Options[:], q.Options)
		s.Questions[i] = dq
	}
	for i, a := range j.Answers {
		s.Answers[i] = domain.AnswerRecord{
			Topic:   domain.Topic(a.Topic),
			Type:    domain.QuestionType(a.Type),
			Correct: a.Correct,
		}
	}
	for i, d := range j.SessionDates {
		t, err := time.Parse(time.RFC3339, d)
		if err != nil {
			return nil, fmt.Errorf("parse session date %q: %w", d, err)
		}
		s.SessionDates[i] = t
	}

	return s, nil
}
