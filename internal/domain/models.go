package domain

import "time"

// OptionCount is the number of options every question carries.
const OptionCount = 4

// DateLayout is the persisted timestamp format of a history entry.
const DateLayout = "2006-01-02 15:04:05"

// Question models one multiple-choice item as read from the question file.
// Options keep file order; display order is decided per attempt.
type Question struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// HasCorrectOption reports whether the correct answer matches one option exactly.
func (q Question) HasCorrectOption() bool {
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return true
		}
	}
	return false
}

// HistoryEntry is the immutable summary of one completed attempt.
type HistoryEntry struct {
	Date       string  `json:"date"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// NewHistoryEntry stamps a finished attempt at second precision.
func NewHistoryEntry(score, total int, at time.Time) HistoryEntry {
	return HistoryEntry{
		Date:       at.Format(DateLayout),
		Score:      score,
		Total:      total,
		Percentage: Percentage(score, total),
	}
}

// QuestionView is what a presentation layer renders for the current question.
type QuestionView struct {
	AttemptID string   `json:"attemptId"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options"`
}

// AnswerResult is the outcome of a single submission.
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correctAnswer"`
	Score         int    `json:"score"`
}

// Result summarizes a completed attempt.
type Result struct {
	AttemptID  string  `json:"attemptId"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Incorrect  int     `json:"incorrect"`
	Percentage float64 `json:"percentage"`
	Band       Band    `json:"band"`
	Message    string  `json:"message"`
}

// Mark flags an option in review.
type Mark string

const (
	MarkNone    Mark = "none"
	MarkCorrect Mark = "correct"
	MarkWrong   Mark = "wrong"
)

// ReviewOption is one option of a reviewed question, in file order.
type ReviewOption struct {
	Text string `json:"text"`
	Mark Mark   `json:"mark"`
}

// ReviewItem pairs an answered question with the user's selection.
type ReviewItem struct {
	Number      int            `json:"number"`
	Prompt      string         `json:"prompt"`
	Options     []ReviewOption `json:"options"`
	Selected    string         `json:"selected"`
	Correct     bool           `json:"correct"`
	Explanation string         `json:"explanation"`
}
