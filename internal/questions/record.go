package questions

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the stored form of a question, shared by the JSON bank file and
// the database. Correct holds a raw JSON value whose shape depends on Type.
type Record struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Question  string          `json:"question"`
	Answers   []string        `json:"answers,omitempty"`
	Correct   json.RawMessage `json:"correct,omitempty"`
	Tolerance float64         `json:"tolerance,omitempty"`
	TimeLimit int             `json:"time_limit,omitempty"`
}

// Decode validates r and converts it into a Question. An empty Type is a choice.
func (r Record) Decode(category string) (Question, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("question without id in category %q", category)
	}
	if r.Question == "" {
		return nil, fmt.Errorf("question %s: empty prompt", r.ID)
	}
	if r.TimeLimit < 0 {
		return nil, fmt.Errorf("question %s: negative time limit", r.ID)
	}
	base := Base{
		ID:       r.ID,
		Category: category,
		Prompt:   r.Question,
		Limit:    time.Duration(r.TimeLimit) * time.Second,
	}

	kind := Kind(r.Type)
	if kind == "" {
		kind = KindChoice
	}
	switch kind {
	case KindChoice, KindWager:
		if len(r.Answers) < 2 {
			return nil, fmt.Errorf("question %s: %s needs at least two answers", r.ID, kind)
		}
		var correct int
		if err := json.Unmarshal(r.Correct, &correct); err != nil {
			return nil, fmt.Errorf("question %s: correct must be an option index: %w", r.ID, err)
		}
		if correct < 0 || correct >= len(r.Answers) {
			return nil, fmt.Errorf("question %s: correct index %d out of range", r.ID, correct)
		}
		if kind == KindWager {
			return Wager{Base: base, Options: r.Answers, Correct: correct}, nil
		}
		return Choice{Base: base, Options: r.Answers, Correct: correct}, nil

	case KindTrueFalse:
		var correct bool
		if err := json.Unmarshal(r.Correct, &correct); err != nil {
			return nil, fmt.Errorf("question %s: correct must be a boolean: %w", r.ID, err)
		}
		return TrueFalse{Base: base, Correct: correct}, nil

	case KindNumber:
		var correct float64
		if err := json.Unmarshal(r.Correct, &correct); err != nil {
			return nil, fmt.Errorf("question %s: correct must be a number: %w", r.ID, err)
		}
		if r.Tolerance < 0 {
			return nil, fmt.Errorf("question %s: negative tolerance", r.ID)
		}
		return Number{Base: base, Correct: correct, Tolerance: r.Tolerance}, nil

	case KindText:
		accepted, err := decodeAccepted(r.Correct)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", r.ID, err)
		}
		return Text{Base: base, Accepted: accepted}, nil

	case KindPoll:
		if len(r.Answers) < 2 {
			return nil, fmt.Errorf("question %s: poll needs at least two answers", r.ID)
		}
		return Poll{Base: base, Options: r.Answers}, nil

	case KindOpenPoll:
		return OpenPoll{Base: base}, nil
	}
	return nil, fmt.Errorf("question %s: unknown type %q", r.ID, r.Type)
}

// Encode is the inverse of Decode.
func Encode(q Question) Record {
	b := q.Meta()
	r := Record{
		ID:        b.ID,
		Type:      string(q.Kind()),
		Question:  b.Prompt,
		TimeLimit: int(b.Limit / time.Second),
	}
	switch v := q.(type) {
	case Choice:
		r.Answers = v.Options
	case Wager:
		r.Answers = v.Options
	case Poll:
		r.Answers = v.Options
	case Number:
		r.Tolerance = v.Tolerance
	case TrueFalse, Text, OpenPoll:
	}
	if c := CorrectValue(q); c != nil {
		r.Correct, _ = json.Marshal(c)
	}
	return r
}

// decodeAccepted accepts either a single string or a list of strings.
func decodeAccepted(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("text question needs at least one accepted answer")
		}
		return list, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil || single == "" {
		return nil, fmt.Errorf("correct must be a string or list of strings")
	}
	return []string{single}, nil
}
