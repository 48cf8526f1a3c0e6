// Package content validates machine-generated question batches and drives
// targeted regeneration of the invalid slots before a quiz may use them.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aparasochka/greektutor/internal/domain"
)

// Candidate is one unvalidated generated question as received from the
// generation collaborator. Pointer fields distinguish "absent" from "empty"
// so the validator can report a wrong field set precisely.
type Candidate struct {
	Question     *string  `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *float64 `json:"correctIndex"`
	Explanation  *string  `json:"explanation"`
	Topic        *string  `json:"topic"`
	Type         *string  `json:"type"`

	// fieldSetErr records a strict-decoding failure (unknown or mistyped
	// fields); the validator reports it as a wrong field set.
	fieldSetErr string
}

// NewCandidate builds a well-formed candidate, used by tests and by the
// forced-topic rewrite in the repair loop.
func NewCandidate(question string, options []string, correctIndex int, explanation, topic, qtype string) Candidate {
	idx := float64(correctIndex)
	return Candidate{
		Question:     &question,
		Options:      options,
		CorrectIndex: &idx,
		Explanation:  &explanation,
		Topic:        &topic,
		Type:         &qtype,
	}
}

// DecodeBatch parses a JSON array of candidate questions. Unknown fields in
// an item do not abort the batch: the item is kept and flagged so the repair
// loop can regenerate exactly that slot.
func DecodeBatch(data []byte) ([]Candidate, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode candidate batch: %w", err)
	}

	batch := make([]Candidate, len(raw))
	for i, item := range raw {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&batch[i]); err != nil {
			batch[i] = Candidate{fieldSetErr: err.Error()}
		}
	}
	return batch, nil
}

// question converts a candidate into a domain Question. Must only be called
// on a candidate that passed validation; the topic label is normalized onto
// the master list.
func (c Candidate) question() domain.Question {
	var q domain.Question
	q.Text = *c.Question
	copy(q.Options[:], c.Options)
	q.CorrectIndex = int(*c.CorrectIndex)
	q.Explanation = *c.Explanation
	q.Topic = domain.NormalizeTopic(*c.Topic)
	q.Type = domain.QuestionType(*c.Type)
	return q
}
