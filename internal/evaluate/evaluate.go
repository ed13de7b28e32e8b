// Package evaluate decides correctness for a question/answer pair. Every
// function here is pure: safe to call redundantly for review and analytics.
package evaluate

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/silent9669/chucamo-sub001/internal/content"
)

// Evaluate reports whether submitted answers q correctly. An empty submission
// never matches.
func Evaluate(q content.Question, submitted string) bool {
	if submitted == "" {
		return false
	}
	switch q.Kind {
	case content.KindChoice:
		return evaluateChoice(q, submitted)
	case content.KindFreeResponse:
		return evaluateFree(q, submitted)
	default:
		return false
	}
}

// evaluateChoice resolves the inconsistent authoring representations in a
// fixed precedence order: flagged option, canonical string, option content
// at the numeric index, then the stringified index itself. First match wins.
func evaluateChoice(q content.Question, submitted string) bool {
	for _, opt := range q.Options {
		if opt.Correct && submitted == opt.Content {
			return true
		}
	}
	if s, ok := q.CorrectAnswer.(string); ok && submitted == s {
		return true
	}
	if idx, ok := answerIndex(q.CorrectAnswer); ok {
		if idx >= 0 && idx < len(q.Options) && submitted == q.Options[idx].Content {
			return true
		}
		if submitted == strconv.Itoa(idx) {
			return true
		}
	}
	return false
}

// evaluateFree matches against the union of the acceptable-answers list and
// the canonical answer string. Trim + case-fold equality only; "0.5" and
// "1/2" are distinct unless both are listed.
func evaluateFree(q content.Question, submitted string) bool {
	sub := normalize(submitted)
	if sub == "" {
		return false
	}
	for _, a := range q.AcceptableAnswers {
		if sub == normalize(a) {
			return true
		}
	}
	if s, ok := q.CorrectAnswer.(string); ok && sub == normalize(s) {
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// answerIndex extracts a whole-number index from the loosely typed
// correct-answer field. JSON decoding yields float64 (or json.Number).
func answerIndex(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	return 0, false
}
