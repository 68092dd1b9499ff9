package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"quiz-runner/internal/domain"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateIdle State = iota
	StateAwaitingAnswer
	StateAnswerRevealed
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateAnswerRevealed:
		return "answer_revealed"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// InProgress reports whether an attempt is underway but not finished.
func (s State) InProgress() bool {
	return s == StateAwaitingAnswer || s == StateAnswerRevealed
}

// HistoryRecorder receives the summary of each completed attempt.
type HistoryRecorder interface {
	Append(ctx context.Context, entry domain.HistoryEntry) error
}

// Attempt is one pass through a shuffled question set.
type Attempt struct {
	ID        string
	Questions []domain.Question
	Current   int
	Score     int
	Answers   []string

	order    [][]string
	recorded bool
	entry    domain.HistoryEntry
}

// Session owns at most one Attempt and enforces the legal transitions on it.
// It is not safe for concurrent use; Controller serializes access.
type Session struct {
	state   State
	attempt *Attempt
	history HistoryRecorder
	rnd     *rand.Rand
	now     func() time.Time
	newID   func() string
}

// NewSession returns an idle session that records completions into history.
func NewSession(history HistoryRecorder) *Session {
	return NewSessionWithClock(history, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

// NewSessionWithClock allows deterministic shuffles and timestamps in tests.
func NewSessionWithClock(history HistoryRecorder, rnd *rand.Rand, now func() time.Time) *Session {
	return &Session{
		state:   StateIdle,
		history: history,
		rnd:     rnd,
		now:     now,
		newID:   uuid.NewString,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	return s.state
}

// Attempt returns a copy of the active attempt, or false when idle.
func (s *Session) Attempt() (Attempt, bool) {
	if s.attempt == nil {
		return Attempt{}, false
	}
	a := *s.attempt
	a.Questions = append([]domain.Question(nil), s.attempt.Questions...)
	a.Answers = append([]string(nil), s.attempt.Answers...)
	a.order = nil
	return a, true
}

// Start begins a new attempt over questions, which must already be in play order.
func (s *Session) Start(questions []domain.Question) (domain.QuestionView, error) {
	if s.state != StateIdle {
		return domain.QuestionView{}, s.stateErr("start")
	}
	if len(questions) == 0 {
		return domain.QuestionView{}, domain.ErrEmptyQuestionSet
	}
	s.attempt = &Attempt{
		ID:        s.newID(),
		Questions: append([]domain.Question(nil), questions...),
		Answers:   make([]string, 0, len(questions)),
		order:     make([][]string, len(questions)),
	}
	s.state = StateAwaitingAnswer
	return s.view(), nil
}

// Current returns the question on screen with its options in display order.
func (s *Session) Current() (domain.QuestionView, error) {
	if !s.state.InProgress() {
		return domain.QuestionView{}, s.stateErr("current")
	}
	return s.view(), nil
}

// Submit records selected as the answer to the current question and scores it.
func (s *Session) Submit(selected string) (domain.AnswerResult, error) {
	if s.state != StateAwaitingAnswer {
		return domain.AnswerResult{}, s.stateErr("submit")
	}
	if selected == "" {
		return domain.AnswerResult{}, domain.ErrNoSelection
	}

	a := s.attempt
	q := a.Questions[a.Current]
	a.Answers = append(a.Answers, selected)
	correct := selected == q.CorrectAnswer
	if correct {
		a.Score++
	}
	s.state = StateAnswerRevealed
	return domain.AnswerResult{
		Correct:       correct,
		Selected:      selected,
		CorrectAnswer: q.CorrectAnswer,
		Score:         a.Score,
	}, nil
}

// Advance moves past a revealed answer. done is true once every question is answered,
// and result then carries the final score.
func (s *Session) Advance() (next domain.QuestionView, result domain.Result, done bool, err error) {
	if s.state != StateAnswerRevealed {
		return domain.QuestionView{}, domain.Result{}, false, s.stateErr("advance")
	}
	a := s.attempt
	a.Current++
	if a.Current == len(a.Questions) {
		s.state = StateCompleted
		return domain.QuestionView{}, s.result(), true, nil
	}
	s.state = StateAwaitingAnswer
	return s.view(), domain.Result{}, false, nil
}

// Complete hands the attempt's HistoryEntry to the recorder exactly once.
// recorded is false when the entry was already stored by an earlier call.
func (s *Session) Complete(ctx context.Context) (entry domain.HistoryEntry, recorded bool, err error) {
	if s.state != StateCompleted {
		return domain.HistoryEntry{}, false, s.stateErr("complete")
	}
	a := s.attempt
	if a.recorded {
		return a.entry, false, nil
	}
	entry = domain.NewHistoryEntry(a.Score, len(a.Questions), s.now())
	if err := s.history.Append(ctx, entry); err != nil {
		return domain.HistoryEntry{}, false, err
	}
	a.recorded = true
	a.entry = entry
	return entry, true, nil
}

// Result returns the final summary of a completed attempt.
func (s *Session) Result() (domain.Result, error) {
	if s.state != StateCompleted {
		return domain.Result{}, s.stateErr("result")
	}
	return s.result(), nil
}

// Review pairs each question with the recorded answer, options in file order.
func (s *Session) Review() ([]domain.ReviewItem, error) {
	if s.state != StateCompleted {
		return nil, s.stateErr("review")
	}
	a := s.attempt
	items := make([]domain.ReviewItem, 0, len(a.Answers))
	for i, answer := range a.Answers {
		q := a.Questions[i]
		options := make([]domain.ReviewOption, len(q.Options))
		for j, opt := range q.Options {
			mark := domain.MarkNone
			switch {
			case opt == q.CorrectAnswer:
				mark = domain.MarkCorrect
			case opt == answer:
				mark = domain.MarkWrong
			}
			options[j] = domain.ReviewOption{Text: opt, Mark: mark}
		}
		items = append(items, domain.ReviewItem{
			Number:      i + 1,
			Prompt:      q.Prompt,
			Options:     options,
			Selected:    answer,
			Correct:     answer == q.CorrectAnswer,
			Explanation: q.Explanation,
		})
	}
	return items, nil
}

// Reset discards a completed attempt and returns to idle.
func (s *Session) Reset() error {
	if s.state != StateCompleted {
		return s.stateErr("reset")
	}
	s.attempt = nil
	s.state = StateIdle
	return nil
}

// Abandon drops an unfinished attempt without recording any history.
func (s *Session) Abandon() error {
	if !s.state.InProgress() {
		return s.stateErr("abandon")
	}
	s.attempt = nil
	s.state = StateIdle
	return nil
}

func (s *Session) view() domain.QuestionView {
	a := s.attempt
	q := a.Questions[a.Current]
	return domain.QuestionView{
		AttemptID: a.ID,
		Index:     a.Current,
		Total:     len(a.Questions),
		Prompt:    q.Prompt,
		Options:   append([]string(nil), s.presentationOrder(a.Current)...),
	}
}

// presentationOrder shuffles a question's options the first time it is shown
// and returns the same order afterwards.
func (s *Session) presentationOrder(i int) []string {
	a := s.attempt
	if a.order[i] == nil {
		a.order[i] = shuffleOptions(s.rnd, a.Questions[i].Options)
	}
	return a.order[i]
}

func (s *Session) result() domain.Result {
	return domain.NewResult(s.attempt.ID, s.attempt.Score, len(s.attempt.Questions))
}

func (s *Session) stateErr(op string) error {
	return &domain.StateError{Op: op, State: s.state.String()}
}

func shuffleOptions(rnd *rand.Rand, options []string) []string {
	out := make([]string, len(options))
	copy(out, options)
	rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
