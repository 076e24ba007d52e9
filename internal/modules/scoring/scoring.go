package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cesizen/cesizen-backend/internal/domain/diagnostic"
)

var ErrUnknownMode = errors.New("unknown diagnostic mode")

const scaleMax = 10.0

type Result struct {
	Score          int                 `json:"score"`
	RiskBand       diagnostic.RiskBand `json:"risk_band"`
	Recommendation string              `json:"recommendation"`
}

// Score maps responses to a score, band and recommendation. bank is only
// read in question-bank mode. Empty responses score 0.
func Score(mode diagnostic.Mode, responses map[string]any, bank []*diagnostic.Question) (Result, error) {
	switch mode {
	case diagnostic.ModeHolmesRahe:
		score := HolmesRaheScore(responses)
		band := HolmesRaheBand(score)
		return Result{Score: score, RiskBand: band, Recommendation: Recommendation(band)}, nil
	case diagnostic.ModeQuestionBank:
		score := QuestionBankScore(responses, bank)
		band := QuestionBankBand(score)
		return Result{Score: score, RiskBand: band, Recommendation: Recommendation(band)}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// HolmesRaheScore sums the weights of flagged events. Ids are trimmed, so
// " divorce" and "divorce" name one event and count once. Unknown ids are
// ignored.
func HolmesRaheScore(responses map[string]any) int {
	selected := make(map[string]struct{}, len(responses))
	for id, v := range responses {
		if flagged(v) {
			selected[strings.TrimSpace(id)] = struct{}{}
		}
	}
	total := 0
	for id := range selected {
		if w, ok := EventWeight(id); ok {
			total += w
		}
	}
	return total
}

func flagged(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
	}
	return false
}

// QuestionBankScore normalizes answered questions to 0..100.
func QuestionBankScore(responses map[string]any, bank []*diagnostic.Question) int {
	if len(responses) == 0 || len(bank) == 0 {
		return 0
	}
	var total, possibleTotal float64
	for _, q := range bank {
		if q == nil {
			continue
		}
		answer, ok := responses[q.ID.String()]
		if !ok {
			continue
		}
		got, possible, ok := scoreQuestion(q, answer)
		if !ok {
			continue
		}
		total += got * q.Weight
		possibleTotal += possible * q.Weight
	}
	if possibleTotal <= 0 {
		return 0
	}
	return int(math.Round(100 * total / possibleTotal))
}

func scoreQuestion(q *diagnostic.Question, answer any) (got, possible float64, ok bool) {
	switch q.Type {
	case diagnostic.QuestionScale:
		n, ok := number(answer)
		if !ok {
			return 0, 0, false
		}
		return math.Min(math.Max(n, 0), scaleMax), scaleMax, true

	case diagnostic.QuestionSingleChoice:
		value, ok := answer.(string)
		if !ok {
			return 0, 0, false
		}
		opt, found := q.Option(value)
		if !found {
			return 0, 0, false
		}
		return opt.Score, maxOptionScore(q), true

	case diagnostic.QuestionMultipleChoice:
		values, ok := stringList(answer)
		if !ok {
			return 0, 0, false
		}
		seen := make(map[string]struct{}, len(values))
		for _, v := range values {
			opt, found := q.Option(v)
			if !found {
				continue
			}
			key := strings.ToLower(opt.Value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			got += opt.Score
		}
		return got, positiveOptionSum(q), true
	}
	return 0, 0, false
}

func maxOptionScore(q *diagnostic.Question) float64 {
	best := 0.0
	for _, o := range q.Options {
		if o.Score > best {
			best = o.Score
		}
	}
	return best
}

func positiveOptionSum(q *diagnostic.Question) float64 {
	sum := 0.0
	for _, o := range q.Options {
		if o.Score > 0 {
			sum += o.Score
		}
	}
	return sum
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t)
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			out = append(out, s)
		}
		return out, true
	case string:
		return []string{t}, true
	}
	return nil, false
}
