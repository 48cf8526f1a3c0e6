package domain

// QuestionType represents the answer-selection format of a quiz question.
type QuestionType string

const (
	QuestionTypeRuToGr     QuestionType = "ru_to_gr"
	QuestionTypeGrToRu     QuestionType = "gr_to_ru"
	QuestionTypeChooseForm QuestionType = "choose_form"
	QuestionTypeFillBlank  QuestionType = "fill_blank"
)

func (t QuestionType) String() string { return string(t) }

func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeRuToGr, QuestionTypeGrToRu, QuestionTypeChooseForm, QuestionTypeFillBlank:
		return true
	}
	return false
}

// OptionCount is the fixed number of answer options per question.
// The chat keyboard renders exactly four buttons (А/Б/В/Г).
const OptionCount = 4

// Question is one validated multiple-choice quiz item. Immutable after
// validation; owned by value by the session that generated it.
type Question struct {
	Text         string
	Options      [OptionCount]string
	CorrectIndex int
	Explanation  string
	Topic        Topic
	Type         QuestionType
}

// CorrectOption returns the text of the correct answer.
func (q Question) CorrectOption() string {
	return q.Options[q.CorrectIndex]
}
