package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aparasochka/greektutor/internal/content"
	"github.com/aparasochka/greektutor/internal/domain"
)

const schemaNote = `Каждый объект в массиве:
{
  "question": "текст вопроса на русском языке",
  "options": ["вариант1", "вариант2", "вариант3", "вариант4"],
  "correctIndex": 0,
  "explanation": "пояснение почему этот вариант правильный, 1-2 предложения на русском языке",
  "topic": "название темы",
  "type": "ru_to_gr | gr_to_ru | choose_form | fill_blank"
}

Требования:
- Только стандартный современный греческий язык, никакого кипрского диалекта.
- Все вопросы с четырьмя вариантами ответа, без ввода текста.
- Пояснения полными словами, без грамматических сокращений.
- Неправильные варианты должны быть правдоподобными: похожие формы, близкие слова, частые ошибки.
- Типы вопросов вперемешку, примерно поровну.`

// buildBatchPrompt asks for one question per plan slot, with the learner
// profile folded in so distractors can target known confusions.
func buildBatchPrompt(plan []domain.Topic, profile content.UserContext) string {
	var b strings.Builder
	b.WriteString("Ты генератор вопросов для ежедневного квиза по греческому языку уровней A1-A2.\n")
	b.WriteString("Ученик готовится к официальному экзамену A2 по современному греческому языку. Родной язык: русский.\n\n")

	writeProfile(&b, profile)

	fmt.Fprintf(&b, "Сгенерируй СТРОГО %d вопросов, по одному на каждую тему из списка, в этом порядке:\n", len(plan))
	for i, topic := range plan {
		fmt.Fprintf(&b, "%d. %s\n", i+1, topic)
	}
	b.WriteString("\nВерни ТОЛЬКО валидный JSON-массив без markdown и пояснений вне JSON.\n\n")
	b.WriteString(schemaNote)
	return b.String()
}

// buildRepairPrompt asks for replacements for rejected questions only.
func buildRepairPrompt(reqs []content.RepairRequest, profile content.UserContext) string {
	var b strings.Builder
	b.WriteString("Ты генератор вопросов для квиза по греческому языку уровней A1-A2.\n")
	b.WriteString("Следующие вопросы были отклонены. Сгенерируй замену для КАЖДОГО, в том же порядке.\n\n")

	writeProfile(&b, profile)

	for i, req := range reqs {
		original, _ := json.Marshal(req.Original)
		fmt.Fprintf(&b, "Вопрос %d (тема: %s)\nПричина отклонения: %s\nОригинал: %s\n\n",
			i+1, req.Topic, req.Reason, original)
	}

	fmt.Fprintf(&b, "Верни ТОЛЬКО валидный JSON-массив из %d объектов без markdown.\n\n", len(reqs))
	b.WriteString(schemaNote)
	return b.String()
}

func writeProfile(b *strings.Builder, profile content.UserContext) {
	if len(profile.WeakTopics) > 0 {
		fmt.Fprintf(b, "Слабые темы ученика (чаще всего ошибается): %s.\n", joinTopics(profile.WeakTopics))
	}
	if len(profile.StrongTopics) > 0 {
		fmt.Fprintf(b, "Сильные темы ученика: %s.\n", joinTopics(profile.StrongTopics))
	}
	if len(profile.RecentMistakes) > 0 {
		b.WriteString("Недавние ошибки ученика:\n")
		for _, m := range profile.RecentMistakes {
			fmt.Fprintf(b, "- %s\n", m)
		}
	}
	if len(profile.WeakTopics)+len(profile.StrongTopics)+len(profile.RecentMistakes) > 0 {
		b.WriteString("\n")
	}
}

func joinTopics(topics []domain.Topic) string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
