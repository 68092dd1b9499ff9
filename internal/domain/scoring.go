package domain

// Band is the qualitative tier of a finished attempt.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandNeedsWork Band = "needs_work"
)

var bandMessages = map[Band]string{
	BandExcellent: "Excellent work!",
	BandGood:      "Well done!",
	BandFair:      "Not bad, but there is room for improvement.",
	BandNeedsWork: "You could study a bit more and try again.",
}

// Percentage returns 100*score/total, or 0 for an empty total.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score*100) / float64(total)
}

// BandFor maps a percentage to its tier. Each lower bound is inclusive.
func BandFor(percentage float64) Band {
	switch {
	case percentage >= 90:
		return BandExcellent
	case percentage >= 70:
		return BandGood
	case percentage >= 50:
		return BandFair
	default:
		return BandNeedsWork
	}
}

// Message is the feedback line shown with the final score.
func (b Band) Message() string {
	return bandMessages[b]
}

// NewResult derives the final summary for score out of total.
func NewResult(attemptID string, score, total int) Result {
	pct := Percentage(score, total)
	band := BandFor(pct)
	return Result{
		AttemptID:  attemptID,
		Score:      score,
		Total:      total,
		Incorrect:  total - score,
		Percentage: pct,
		Band:       band,
		Message:    band.Message(),
	}
}
