package domain

import (
	"github.com/agnivade/levenshtein"
)

// Topic is a canonical curriculum topic label. Labels are Russian because the
// learner-facing language of the quiz is Russian; the learned language is Greek.
type Topic string

func (t Topic) String() string { return string(t) }

// MasterTopics is the fixed A1-A2 curriculum. The scheduler only ever emits
// members of this list; everything else is normalized onto it at the boundary.
var MasterTopics = []Topic{
	"Глаголы",
	"Прошедшее время",
	"Будущее время",
	"Отрицание",
	"Местоимения",
	"Артикли",
	"Существительные",
	"Прилагательные",
	"Указательные местоимения",
	"Числа",
	"Вопросительные слова",
	"Предлоги и союзы",
	"Бытовые ситуации",
	"Время и дата",
	"Семья",
	"Части тела",
	"Погода",
	"Дом и квартира",
	"Еда и продукты",
	"Одежда",
	"Наречия",
}

// IsMaster reports whether t is a member of MasterTopics.
func (t Topic) IsMaster() bool {
	for _, m := range MasterTopics {
		if t == m {
			return true
		}
	}
	return false
}

// normalizeCutoff is the minimum similarity ratio for a fuzzy topic match.
const normalizeCutoff = 0.6

// NormalizeTopic maps a generator-returned topic label onto the nearest
// canonical MasterTopics entry. Exact matches pass through; otherwise the
// closest label by Levenshtein similarity wins, provided it clears the cutoff.
// Labels with no close match are returned unchanged so the caller can reject
// them explicitly.
func NormalizeTopic(raw string) Topic {
	t := Topic(raw)
	if t.IsMaster() {
		return t
	}

	best := t
	bestRatio := 0.0
	for _, m := range MasterTopics {
		r := similarity(raw, string(m))
		if r > bestRatio {
			bestRatio = r
			best = m
		}
	}
	if bestRatio >= normalizeCutoff {
		return best
	}
	return t
}

// similarity converts edit distance to a [0,1] ratio over rune length.
func similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	longest := max(la, lb)
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
