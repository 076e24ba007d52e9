package scoring

import "github.com/cesizen/cesizen-backend/internal/domain/diagnostic"

const (
	holmesRaheModerate = 150
	holmesRaheHigh     = 300
)

var recommendations = map[diagnostic.RiskBand]string{
	diagnostic.RiskLow:      "Your stress level is low. Keep up the habits that keep you balanced.",
	diagnostic.RiskModerate: "Your stress level is moderate. Consider relaxation exercises and talk about it with people you trust.",
	diagnostic.RiskHigh:     "Your stress level is high. We recommend reaching out to a health professional.",

	diagnostic.RiskExcellent:  "Excellent results. Your wellbeing looks solid.",
	diagnostic.RiskGood:       "Good results. A few small adjustments could help further.",
	diagnostic.RiskAverage:    "Average results. Try the breathing and relaxation content regularly.",
	diagnostic.RiskConcerning: "Concerning results. Take time for yourself and consider talking to someone.",
	diagnostic.RiskCritical:   "Critical results. Please contact a health professional.",
}

func HolmesRaheBand(score int) diagnostic.RiskBand {
	switch {
	case score >= holmesRaheHigh:
		return diagnostic.RiskHigh
	case score >= holmesRaheModerate:
		return diagnostic.RiskModerate
	default:
		return diagnostic.RiskLow
	}
}

func QuestionBankBand(score int) diagnostic.RiskBand {
	switch {
	case score >= 80:
		return diagnostic.RiskExcellent
	case score >= 60:
		return diagnostic.RiskGood
	case score >= 40:
		return diagnostic.RiskAverage
	case score >= 20:
		return diagnostic.RiskConcerning
	default:
		return diagnostic.RiskCritical
	}
}

func Recommendation(band diagnostic.RiskBand) string {
	return recommendations[band]
}
