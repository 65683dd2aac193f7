package questions

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAnswer = errors.New("invalid answer")

// Parse converts a decoded JSON value into the canonical answer for q:
// int for option-indexed kinds, bool for truefalse, float64 for number and a
// trimmed string for text and open_poll.
func Parse(q Question, raw any) (any, error) {
	switch v := q.(type) {
	case Choice:
		return parseIndex(raw, len(v.Options))
	case Wager:
		return parseIndex(raw, len(v.Options))
	case Poll:
		return parseIndex(raw, len(v.Options))
	case TrueFalse:
		return parseBool(raw)
	case Number:
		return parseNumber(raw)
	case Text, OpenPoll:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected text", ErrInvalidAnswer)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%w: empty answer", ErrInvalidAnswer)
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: unsupported question kind", ErrInvalidAnswer)
}

// Check reports whether a canonical answer (see Parse) is correct. Poll kinds
// are never incorrect.
func Check(q Question, answer any) bool {
	switch v := q.(type) {
	case Choice:
		i, ok := answer.(int)
		return ok && i == v.Correct
	case Wager:
		i, ok := answer.(int)
		return ok && i == v.Correct
	case TrueFalse:
		b, ok := answer.(bool)
		return ok && b == v.Correct
	case Number:
		f, ok := answer.(float64)
		return ok && math.Abs(f-v.Correct) <= v.Tolerance
	case Text:
		s, ok := answer.(string)
		if !ok {
			return false
		}
		s = Normalize(s)
		for _, a := range v.Accepted {
			if Normalize(a) == s {
				return true
			}
		}
		return false
	case Poll, OpenPoll:
		return true
	}
	return false
}

// CorrectText renders the correct answer for display.
func CorrectText(q Question) string {
	switch v := q.(type) {
	case Choice:
		return optionText(v.Options, v.Correct)
	case Wager:
		return optionText(v.Options, v.Correct)
	case TrueFalse:
		if v.Correct {
			return "TRUE"
		}
		return "FALSE"
	case Number:
		return strconv.FormatFloat(v.Correct, 'f', -1, 64)
	case Text:
		if len(v.Accepted) > 0 {
			return v.Accepted[0]
		}
	case Poll, OpenPoll:
	}
	return ""
}

// Normalize folds free text for comparison and grouping.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func optionText(options []string, i int) string {
	if i < 0 || i >= len(options) {
		return strconv.Itoa(i)
	}
	return options[i]
}

func parseIndex(raw any, n int) (int, error) {
	var i int
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: option index must be a whole number", ErrInvalidAnswer)
		}
		i = int(v)
	case int:
		i = v
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: option index must be a number", ErrInvalidAnswer)
		}
		i = parsed
	default:
		return 0, fmt.Errorf("%w: option index must be a number", ErrInvalidAnswer)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: option %d out of range", ErrInvalidAnswer, i)
	}
	return i, nil
}

func parseBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		// 0 is TRUE and 1 is FALSE, matching the option order shown to players.
		switch v {
		case 0:
			return true, nil
		case 1:
			return false, nil
		}
	case int:
		switch v {
		case 0:
			return true, nil
		case 1:
			return false, nil
		}
	case string:
		switch Normalize(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: expected true or false", ErrInvalidAnswer)
}

func parseNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: expected a number", ErrInvalidAnswer)
}
