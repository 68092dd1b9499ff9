package app

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"quiz-runner/internal/domain"
)

type recordingHistory struct {
	entries []domain.HistoryEntry
	err     error
}

func (r *recordingHistory) Append(_ context.Context, entry domain.HistoryEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)
}

func newTestSession(history HistoryRecorder) *Session {
	return NewSessionWithClock(history, rand.New(rand.NewSource(42)), fixedClock)
}

func sampleQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Prompt:        string(rune('A'+i)) + "?",
			Options:       []string{"w", "x", "y", "z"},
			CorrectAnswer: "x",
			Explanation:   "because x",
		}
	}
	return questions
}

func TestSingleQuestionHappyPath(t *testing.T) {
	history := &recordingHistory{}
	s := newTestSession(history)

	view, err := s.Start([]domain.Question{{
		Prompt:        "2+2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: "4",
	}})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Total != 1 || view.Index != 0 || view.AttemptID == "" {
		t.Fatalf("unexpected first view %+v", view)
	}

	res, err := s.Submit("4")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Correct || res.CorrectAnswer != "4" || res.Score != 1 {
		t.Fatalf("unexpected answer result %+v", res)
	}

	_, result, done, err := s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !done || s.State() != StateCompleted {
		t.Fatalf("expected completed, got done=%v state=%s", done, s.State())
	}
	if result.Percentage != 100 || result.Band != domain.BandExcellent {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestScoreCountsExactMatchesOnly(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	questions := sampleQuestions(5)
	if _, err := s.Start(questions); err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := []string{"x", "X", "x ", "w", "x"}
	for i, answer := range answers {
		if _, err := s.Submit(answer); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		_, _, done, err := s.Advance()
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if done != (i == len(answers)-1) {
			t.Fatalf("advance %d: unexpected done=%v", i, done)
		}
	}

	result, err := s.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.Score != 2 || result.Incorrect != 3 || result.Total != 5 {
		t.Fatalf("expected 2/5 with 3 incorrect, got %+v", result)
	}
	attempt, _ := s.Attempt()
	if len(attempt.Answers) != 5 || attempt.Answers[1] != "X" {
		t.Fatalf("expected recorded answers in order, got %v", attempt.Answers)
	}
}

func TestPresentationOrderIsStablePermutation(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	q := domain.Question{Prompt: "p", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "c"}
	first, err := s.Start([]domain.Question{q, q})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	again, err := s.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	for i := range first.Options {
		if first.Options[i] != again.Options[i] {
			t.Fatalf("presentation order changed between views: %v vs %v", first.Options, again.Options)
		}
	}

	sorted := append([]string(nil), first.Options...)
	sort.Strings(sorted)
	for i, want := range []string{"a", "b", "c", "d"} {
		if sorted[i] != want {
			t.Fatalf("expected permutation of a..d, got %v", first.Options)
		}
	}
	if q.Options[0] != "a" || q.Options[3] != "d" {
		t.Fatalf("source options were mutated: %v", q.Options)
	}
}

func TestPresentationOrderIsComputedLazily(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	if _, err := s.Start(sampleQuestions(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.attempt.order[0] == nil {
		t.Fatalf("expected order for the first question")
	}
	if s.attempt.order[1] != nil || s.attempt.order[2] != nil {
		t.Fatalf("expected later questions to be shuffled only when shown")
	}
}

func TestEmptySelectionChangesNothing(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	if _, err := s.Start(sampleQuestions(2)); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := s.Submit("")
	if !errors.Is(err, domain.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	attempt, _ := s.Attempt()
	if attempt.Score != 0 || attempt.Current != 0 || len(attempt.Answers) != 0 {
		t.Fatalf("empty submission mutated attempt: %+v", attempt)
	}
	if s.State() != StateAwaitingAnswer {
		t.Fatalf("expected still awaiting answer, got %s", s.State())
	}
}

func TestDoubleSubmitIsStateError(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	if _, err := s.Start(sampleQuestions(2)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Submit("x"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err := s.Submit("x")
	var stateErr *domain.StateError
	if !errors.As(err, &stateErr) || stateErr.Op != "submit" {
		t.Fatalf("expected submit state error, got %v", err)
	}
	attempt, _ := s.Attempt()
	if attempt.Score != 1 || len(attempt.Answers) != 1 {
		t.Fatalf("second submit was applied: %+v", attempt)
	}
}

func TestTransitionsRejectedOutOfOrder(t *testing.T) {
	s := newTestSession(&recordingHistory{})

	if _, _, _, err := s.Advance(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("advance while idle: expected state error, got %v", err)
	}
	if err := s.Reset(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reset while idle: expected state error, got %v", err)
	}
	if _, err := s.Start(nil); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set error, got %v", err)
	}
	if _, err := s.Start(sampleQuestions(1)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Start(sampleQuestions(1)); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("start while in progress: expected state error, got %v", err)
	}
	if _, _, _, err := s.Advance(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("advance before submit: expected state error, got %v", err)
	}
	if _, _, err := s.Complete(context.Background()); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("complete mid attempt: expected state error, got %v", err)
	}
	if err := s.Reset(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reset mid attempt: expected state error, got %v", err)
	}
}

func TestCompleteRecordsExactlyOnce(t *testing.T) {
	history := &recordingHistory{}
	s := newTestSession(history)
	finishAttempt(t, s, sampleQuestions(2), "x")

	entry, recorded, err := s.Complete(context.Background())
	if err != nil || !recorded {
		t.Fatalf("first complete: recorded=%v err=%v", recorded, err)
	}
	again, recorded, err := s.Complete(context.Background())
	if err != nil || recorded {
		t.Fatalf("second complete: recorded=%v err=%v", recorded, err)
	}
	if again != entry {
		t.Fatalf("expected same entry, got %+v vs %+v", again, entry)
	}
	if len(history.entries) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(history.entries))
	}
	want := domain.HistoryEntry{Date: "2024-05-01 09:30:15", Score: 2, Total: 2, Percentage: 100}
	if history.entries[0] != want {
		t.Fatalf("unexpected entry %+v", history.entries[0])
	}
}

func TestCompleteFailureCanBeRetried(t *testing.T) {
	history := &recordingHistory{err: errors.New("disk full")}
	s := newTestSession(history)
	finishAttempt(t, s, sampleQuestions(1), "w")

	if _, _, err := s.Complete(context.Background()); err == nil {
		t.Fatalf("expected append error")
	}
	history.err = nil
	if _, recorded, err := s.Complete(context.Background()); err != nil || !recorded {
		t.Fatalf("retry: recorded=%v err=%v", recorded, err)
	}
	if len(history.entries) != 1 {
		t.Fatalf("expected one entry after retry, got %d", len(history.entries))
	}
}

func TestAbandonNeverRecordsHistory(t *testing.T) {
	history := &recordingHistory{}
	s := newTestSession(history)
	if _, err := s.Start(sampleQuestions(3)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.Submit("x"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	if _, ok := s.Attempt(); ok {
		t.Fatalf("expected attempt to be discarded")
	}
	if len(history.entries) != 0 {
		t.Fatalf("abandoned attempt produced history: %+v", history.entries)
	}
	if err := s.Abandon(); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("abandon while idle: expected state error, got %v", err)
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	finishAttempt(t, s, sampleQuestions(1), "x")
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.State() != StateIdle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	if _, err := s.Start(sampleQuestions(1)); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestReviewMarksCorrectAndWrongPicks(t *testing.T) {
	s := newTestSession(&recordingHistory{})
	finishAttempt(t, s, sampleQuestions(1), "z")

	items, err := s.Review()
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Number != 1 || item.Correct || item.Selected != "z" || item.Explanation != "because x" {
		t.Fatalf("unexpected review item %+v", item)
	}
	want := []domain.Mark{domain.MarkNone, domain.MarkCorrect, domain.MarkNone, domain.MarkWrong}
	for i, opt := range item.Options {
		if opt.Text != []string{"w", "x", "y", "z"}[i] {
			t.Fatalf("expected options in file order, got %+v", item.Options)
		}
		if opt.Mark != want[i] {
			t.Fatalf("option %q: expected mark %s, got %s", opt.Text, want[i], opt.Mark)
		}
	}
}

func finishAttempt(t *testing.T, s *Session, questions []domain.Question, answer string) {
	t.Helper()
	if _, err := s.Start(questions); err != nil {
		t.Fatalf("start: %v", err)
	}
	for range questions {
		if _, err := s.Submit(answer); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, _, _, err := s.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if s.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", s.State())
	}
}
