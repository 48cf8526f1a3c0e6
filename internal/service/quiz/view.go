package quiz

import "github.com/aparasochka/greektutor/internal/domain"

// QuestionView is the render boundary: what a question looks like to the
// chat layer. It never carries the correct index.
type QuestionView struct {
	// Index is the zero-based position the answer must quote back.
	Index   int
	Total   int
	Text    string
	Options [domain.OptionCount]string
}

// AnswerOutcome is what one Answer call produced. Exactly one of Next and
// Result is set for a scored answer; a stale duplicate sets neither.
type AnswerOutcome struct {
	// Stale means the answer referenced an already-scored question and was
	// ignored.
	Stale         bool
	Correct       bool
	CorrectOption string
	Explanation   string
	Next          *QuestionView
	Result        *QuizResult
}

// QuizResult summarizes a finished quiz.
type QuizResult struct {
	Correct int
	Total   int
	// Topics is the per-topic breakdown of this session's answers.
	Topics map[domain.Topic]domain.StatDelta
}

func viewFor(s *domain.QuizSession) QuestionView {
	q, ok := s.Current()
	if !ok {
		return QuestionView{Index: s.CurrentIndex, Total: len(s.Questions)}
	}
	return QuestionView{
		Index:   s.CurrentIndex,
		Total:   len(s.Questions),
		Text:    q.Text,
		Options: q.Options,
	}
}

func resultFor(s *domain.QuizSession) *QuizResult {
	return &QuizResult{
		Correct: s.CorrectCount(),
		Total:   len(s.Questions),
		Topics:  s.StatDeltas(),
	}
}
