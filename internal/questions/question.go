package questions

import "time"

type Kind string

const (
	KindChoice    Kind = "choice"
	KindTrueFalse Kind = "truefalse"
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindPoll      Kind = "poll"
	KindOpenPoll  Kind = "open_poll"
	KindWager     Kind = "wager"
)

// Question is one of Choice, TrueFalse, Text, Number, Poll, OpenPoll or Wager.
// Code that branches on the concrete type should switch over all seven.
type Question interface {
	Meta() Base
	Kind() Kind
	isQuestion()
}

// Base holds the fields every question carries. A zero Limit means the
// question does not define its own time limit.
type Base struct {
	ID       string
	Category string
	Prompt   string
	Limit    time.Duration
}

func (b Base) Meta() Base { return b }

func (Base) isQuestion() {}

type Choice struct {
	Base
	Options []string
	Correct int
}

type TrueFalse struct {
	Base
	Correct bool
}

// Text accepts any of Accepted, compared after trimming and case folding.
type Text struct {
	Base
	Accepted []string
}

type Number struct {
	Base
	Correct   float64
	Tolerance float64
}

type Poll struct {
	Base
	Options []string
}

type OpenPoll struct {
	Base
}

// Wager is a choice question where participants stake part of their score.
type Wager struct {
	Base
	Options []string
	Correct int
}

func (Choice) Kind() Kind    { return KindChoice }
func (TrueFalse) Kind() Kind { return KindTrueFalse }
func (Text) Kind() Kind      { return KindText }
func (Number) Kind() Kind    { return KindNumber }
func (Poll) Kind() Kind      { return KindPoll }
func (OpenPoll) Kind() Kind  { return KindOpenPoll }
func (Wager) Kind() Kind     { return KindWager }

var trueFalseOptions = []string{"TRUE", "FALSE"}

// Options returns the choices shown to participants, or nil for free-entry kinds.
func Options(q Question) []string {
	switch v := q.(type) {
	case Choice:
		return v.Options
	case Wager:
		return v.Options
	case Poll:
		return v.Options
	case TrueFalse:
		return trueFalseOptions
	case Text, Number, OpenPoll:
		return nil
	}
	return nil
}

// Scored reports whether answers to q can be right or wrong. Polls never are.
func Scored(q Question) bool {
	switch q.(type) {
	case Poll, OpenPoll:
		return false
	}
	return true
}

// CorrectValue is the canonical correct answer sent to the host, or nil for polls.
func CorrectValue(q Question) any {
	switch v := q.(type) {
	case Choice:
		return v.Correct
	case Wager:
		return v.Correct
	case TrueFalse:
		return v.Correct
	case Number:
		return v.Correct
	case Text:
		return v.Accepted
	case Poll, OpenPoll:
		return nil
	}
	return nil
}
