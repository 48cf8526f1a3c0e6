package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of an in-progress quiz.
type SessionState string

const (
	// SessionStateAwaiting means the session is waiting for an answer to the
	// question at CurrentIndex.
	SessionStateAwaiting SessionState = "AWAITING"
	// SessionStateLocked means an answer is being processed; a second event
	// for the same index is stale.
	SessionStateLocked SessionState = "LOCKED"
	// SessionStateCompleted means every question has been answered.
	SessionStateCompleted SessionState = "COMPLETED"
)

func (s SessionState) IsValid() bool {
	switch s {
	case SessionStateAwaiting, SessionStateLocked, SessionStateCompleted:
		return true
	}
	return false
}

// AnswerRecord is one scored answer inside a session.
type AnswerRecord struct {
	Topic   Topic
	Type    QuestionType
	Correct bool
}

// QuizSession is one in-progress quiz for one user. At most one unexpired
// session exists per user; the durable store is authoritative and the session
// is re-persisted after every transition.
type QuizSession struct {
	UserID int64
	// Questions is the full validated batch, fixed at generation time.
	Questions []Question
	// CurrentIndex is the next question awaiting an answer.
	// Invariant: len(Answers) == CurrentIndex.
	CurrentIndex int
	Answers      []AnswerRecord
	// SessionDates is a read-only snapshot of the user's historical session
	// dates taken at session start.
	SessionDates []time.Time
	State        SessionState
	ExpiresAt    time.Time
}

// Current returns the question at CurrentIndex, or false when the quiz is done.
func (s *QuizSession) Current() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Completed reports whether every question has been answered.
func (s *QuizSession) Completed() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// Expired reports whether the session's TTL has elapsed at the given time.
// Expired sessions are treated as absent on next access (lazy deletion).
func (s *QuizSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// CorrectCount returns the number of correct answers so far.
func (s *QuizSession) CorrectCount() int {
	n := 0
	for _, a := range s.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// StatDeltas aggregates the session's answers into per-topic stat increments.
func (s *QuizSession) StatDeltas() map[Topic]StatDelta {
	deltas := make(map[Topic]StatDelta, len(s.Answers))
	for _, a := range s.Answers {
		d := deltas[a.Topic]
		d.Total++
		if a.Correct {
			d.Correct++
		}
		deltas[a.Topic] = d
	}
	return deltas
}

// CompletedSession is one row of the append-only completed-session log.
type CompletedSession struct {
	ID             uuid.UUID
	UserID         int64
	SessionDate    time.Time
	CompletedAt    time.Time
	CorrectAnswers int
	TotalQuestions int
}

// AnswerLogEntry is one row of the append-only raw answer audit log.
type AnswerLogEntry struct {
	ID        uuid.UUID
	UserID    int64
	SessionID uuid.UUID
	Topic     Topic
	Type      QuestionType
	Correct   bool
}
