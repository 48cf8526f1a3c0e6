package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aparasochka/greektutor/internal/content"
	"github.com/aparasochka/greektutor/internal/domain"
	"github.com/aparasochka/greektutor/internal/scheduler"
)

// StartOutcome is the result of a Start call. When ResumePrompt is set an
// unfinished quiz exists and the caller should ask the user whether to resume
// or restart; View is then the question the paused session is waiting on.
type StartOutcome struct {
	Session      *domain.QuizSession
	View         QuestionView
	ResumePrompt bool
}

// Start begins a quiz for the user. If an unexpired paused session exists it
// is NOT discarded; the outcome asks the caller to resolve resume-vs-restart.
func (s *Service) Start(ctx context.Context, userID int64) (*StartOutcome, error) {
	defer s.locks.lock(userID)()

	session, err := s.loadActive(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if session != nil {
		return &StartOutcome{
			Session:      session,
			View:         viewFor(session),
			ResumePrompt: true,
		}, nil
	}

	return s.startNew(ctx, userID)
}

// Resume continues the paused session. When none exists, or it has expired
// since the resume prompt was shown, a fresh quiz is started instead.
func (s *Service) Resume(ctx context.Context, userID int64) (*StartOutcome, error) {
	defer s.locks.lock(userID)()

	session, err := s.loadActive(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.startNew(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	return &StartOutcome{Session: session, View: viewFor(session)}, nil
}

// Restart discards any paused session and generates a fresh quiz.
func (s *Service) Restart(ctx context.Context, userID int64) (*StartOutcome, error) {
	defer s.locks.lock(userID)()

	if err := s.paused.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("discard paused session: %w", err)
	}

	return s.startNew(ctx, userID)
}

// Answer scores the option picked for the question at questionIndex. An index
// other than the session's current one is a stale duplicate and changes
// nothing. On the final question the whole session result is committed; if
// that commit fails, the outcome is still returned alongside the error so the
// user sees their result.
func (s *Service) Answer(ctx context.Context, userID int64, questionIndex, optionIndex int) (*AnswerOutcome, error) {
	defer s.locks.lock(userID)()

	session, err := s.loadActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if questionIndex != session.CurrentIndex || session.State != domain.SessionStateAwaiting {
		s.log.Debug("stale answer ignored",
			slog.Int64("user_id", userID),
			slog.Int("got_index", questionIndex),
			slog.Int("current_index", session.CurrentIndex),
			slog.String("state", string(session.State)),
		)
		return &AnswerOutcome{Stale: true}, nil
	}
	if optionIndex < 0 || optionIndex >= domain.OptionCount {
		return nil, fmt.Errorf("option index %d: %w", optionIndex, domain.ErrValidation)
	}

	question, ok := session.Current()
	if !ok {
		return nil, fmt.Errorf("session for user %d has no current question: %w", userID, domain.ErrConflict)
	}

	// Locked while the answer is being scored; back to awaiting before the
	// next question is persisted.
	session.State = domain.SessionStateLocked

	correct := optionIndex == question.CorrectIndex
	session.Answers = append(session.Answers, domain.AnswerRecord{
		Topic:   question.Topic,
		Type:    question.Type,
		Correct: correct,
	})
	session.CurrentIndex++

	outcome := &AnswerOutcome{
		Correct:       correct,
		CorrectOption: question.CorrectOption(),
		Explanation:   question.Explanation,
	}

	if session.Completed() {
		session.State = domain.SessionStateCompleted
		outcome.Result = resultFor(session)
		if err := s.commit(ctx, session); err != nil {
			// The result still reaches the user; the caller decides how to
			// report the persistence failure.
			return outcome, err
		}
		return outcome, nil
	}

	session.State = domain.SessionStateAwaiting
	if err := s.paused.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	next := viewFor(session)
	outcome.Next = &next
	return outcome, nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// loadActive returns the user's paused session, lazily deleting it when the
// TTL has elapsed. The durable store is authoritative.
func (s *Service) loadActive(ctx context.Context, userID int64) (*domain.QuizSession, error) {
	session, err := s.paused.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		s.log.Info("expiring stale session", slog.Int64("user_id", userID))
		if err := s.paused.Delete(ctx, userID); err != nil {
			return nil, fmt.Errorf("expire session: %w", err)
		}
		return nil, fmt.Errorf("session for user %d expired: %w", userID, domain.ErrNotFound)
	}

	return session, nil
}

func (s *Service) startNew(ctx context.Context, userID int64) (*StartOutcome, error) {
	stats, err := s.stats.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	memory, err := s.memory.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	dates, err := s.sessions.GetSessionDates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session dates: %w", err)
	}

	plan := s.planner.Plan(scheduler.Inputs{
		Stats:        stats,
		Memory:       memory,
		SessionDates: dates,
		Today:        s.today(),
	}, s.cfg.QuestionCount)

	profile, err := s.buildProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	questions, err := s.generator.Generate(ctx, plan, profile)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	session := &domain.QuizSession{
		UserID:       userID,
		Questions:    questions,
		SessionDates: dates,
		State:        domain.SessionStateAwaiting,
		ExpiresAt:    s.now().Add(s.cfg.SessionTTL),
	}

	if err := s.paused.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.log.Info("quiz started", slog.Int64("user_id", userID), slog.Int("questions", len(questions)))

	return &StartOutcome{Session: session, View: viewFor(session)}, nil
}

// buildProfile summarizes the recent answer history for generation prompts.
func (s *Service) buildProfile(ctx context.Context, userID int64) (content.UserContext, error) {
	var profile content.UserContext

	recent, err := s.answers.StatsSince(ctx, userID, s.now().Add(-s.cfg.ProfileWindow))
	if err != nil {
		return profile, fmt.Errorf("load recent stats: %w", err)
	}
	for topic, st := range recent {
		switch {
		case st.Accuracy() < 0.60:
			profile.WeakTopics = append(profile.WeakTopics, topic)
		case st.Accuracy() >= 0.85:
			profile.StrongTopics = append(profile.StrongTopics, topic)
		}
	}

	if s.cfg.RecentMistakes > 0 {
		wrong, err := s.answers.ListRecentWrong(ctx, userID, s.cfg.RecentMistakes)
		if err != nil {
			return profile, fmt.Errorf("load recent mistakes: %w", err)
		}
		for _, e := range wrong {
			profile.RecentMistakes = append(profile.RecentMistakes,
				fmt.Sprintf("%s (%s)", e.Topic, e.Type))
		}
	}

	return profile, nil
}

// commit atomically persists the finished session: cumulative stats, memory
// model updates, the session log row and the raw answers, and removes the
// paused row. All or nothing.
func (s *Service) commit(ctx context.Context, session *domain.QuizSession) error {
	userID := session.UserID
	now := s.now()
	today := s.today()

	completed := domain.CompletedSession{
		ID:             uuid.New(),
		UserID:         userID,
		SessionDate:    today,
		CompletedAt:    now,
		CorrectAnswers: session.CorrectCount(),
		TotalQuestions: len(session.Questions),
	}

	entries := make([]domain.AnswerLogEntry, len(session.Answers))
	for i, a := range session.Answers {
		entries[i] = domain.AnswerLogEntry{
			ID:        uuid.New(),
			UserID:    userID,
			SessionID: completed.ID,
			Topic:     a.Topic,
			Type:      a.Type,
			Correct:   a.Correct,
		}
	}

	memories, err := s.observeAnswers(ctx, session, today)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.stats.Apply(ctx, userID, session.StatDeltas(), now); err != nil {
			return fmt.Errorf("apply stat deltas: %w", err)
		}
		if err := s.memory.Upsert(ctx, userID, memories); err != nil {
			return fmt.Errorf("upsert memory: %w", err)
		}
		if err := s.sessions.Create(ctx, completed); err != nil {
			return fmt.Errorf("log session: %w", err)
		}
		if err := s.answers.CreateBatch(ctx, entries, now); err != nil {
			return fmt.Errorf("log answers: %w", err)
		}
		if err := s.paused.Delete(ctx, userID); err != nil {
			return fmt.Errorf("clear paused session: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit session for user %d: %w", userID, err)
	}

	s.log.Info("quiz committed",
		slog.Int64("user_id", userID),
		slog.Int("correct", completed.CorrectAnswers),
		slog.Int("total", completed.TotalQuestions),
	)
	return nil
}

// observeAnswers folds the session's answers into the memory model, in answer
// order so repeated topics compound within one session.
func (s *Service) observeAnswers(ctx context.Context, session *domain.QuizSession, today time.Time) ([]domain.TopicMemory, error) {
	current, err := s.memory.GetByUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("load memory for commit: %w", err)
	}

	touched := make(map[domain.Topic]struct{}, len(session.Answers))
	for _, a := range session.Answers {
		m, ok := current[a.Topic]
		if !ok {
			m = domain.NewTopicMemory(a.Topic)
		}
		current[a.Topic] = m.Observe(a.Correct, today)
		touched[a.Topic] = struct{}{}
	}

	memories := make([]domain.TopicMemory, 0, len(touched))
	for topic := range touched {
		memories = append(memories, current[topic])
	}
	return memories, nil
}
