package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"quiz-runner/internal/domain"
)

// Intents is the subset of the controller the terminal drives.
type Intents interface {
	RequestLoad(path string)
	SelectOption(index int)
	ConfirmAnswer()
	RequestHistoryView()
	RequestReview()
	RequestResults()
	RequestNewAttempt()
	Quit()
	QuitWhenSettled()
}

// ErrUnknownCommand is returned by Dispatch for input it cannot map to an intent.
var ErrUnknownCommand = errors.New("unknown command")

const menu = `Commands:
  load <file>   start a quiz from a CSV question file
  1-4           select an option
  <enter>, ok   confirm the selected option
  history       show previous attempts
  review        review the answers of the finished quiz
  results       show the results again
  new           back to the menu
  quit          exit`

// Terminal renders controller events as plain text. Writes are serialized
// because the read loop reports input errors from its own goroutine.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Menu prints the command overview.
func (t *Terminal) Menu() {
	t.printf("%s\n", menu)
}

func (t *Terminal) QuestionShown(view domain.QuestionView) {
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d of %d\n%s\n", view.Index+1, view.Total, view.Prompt)
	for i, opt := range view.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt)
	}
	b.WriteString("Select an option and press enter to confirm.\n")
	t.printf("%s", b.String())
}

func (t *Terminal) AnswerResult(result domain.AnswerResult) {
	if result.Correct {
		t.printf("Correct!\n")
		return
	}
	t.printf("Incorrect. The correct answer was: %s\n", result.CorrectAnswer)
}

func (t *Terminal) AttemptCompleted(result domain.Result) {
	var b strings.Builder
	b.WriteString("\nQuiz finished!\n")
	fmt.Fprintf(&b, "Total questions: %d\n", result.Total)
	fmt.Fprintf(&b, "Correct answers: %d\n", result.Score)
	fmt.Fprintf(&b, "Incorrect answers: %d\n", result.Incorrect)
	fmt.Fprintf(&b, "Percentage: %.2f%%\n", result.Percentage)
	fmt.Fprintf(&b, "%s\n", result.Message)
	b.WriteString("Type review, history, new or quit.\n")
	t.printf("%s", b.String())
}

func (t *Terminal) AttemptReset() {
	t.printf("\n%s\n", menu)
}

func (t *Terminal) HistoryLoaded(entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		t.printf("No quiz history yet.\n")
		return
	}
	var b strings.Builder
	b.WriteString("Quiz history:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "Date: %s, Score: %d/%d, Percentage: %.2f%%\n", e.Date, e.Score, e.Total, e.Percentage)
	}
	t.printf("%s", b.String())
}

func (t *Terminal) ReviewReady(items []domain.ReviewItem) {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "\nQuestion %d: %s\n", item.Number, item.Prompt)
		for i, opt := range item.Options {
			fmt.Fprintf(&b, "  Option %d: %s", i+1, opt.Text)
			switch opt.Mark {
			case domain.MarkCorrect:
				b.WriteString(" [correct]")
			case domain.MarkWrong:
				b.WriteString(" [wrong]")
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  Explanation: %s\n", item.Explanation)
	}
	b.WriteString("\nType results to go back.\n")
	t.printf("%s", b.String())
}

func (t *Terminal) Failed(err error) {
	var schema *domain.SchemaError
	var state *domain.StateError
	switch {
	case errors.Is(err, domain.ErrNoSelection):
		t.printf("Please select an answer first.\n")
	case errors.Is(err, domain.ErrOptionOutOfRange):
		t.printf("Choose an option between 1 and %d.\n", domain.OptionCount)
	case errors.As(err, &schema):
		t.printf("The question file is missing required columns: %s\n", strings.Join(schema.Missing, ", "))
	case errors.Is(err, domain.ErrEmptyQuestionSet):
		t.printf("The question file contains no questions.\n")
	case errors.As(err, &state):
		t.printf("That is not possible right now (%s).\n", state.State)
	default:
		t.printf("Error: %v\n", err)
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// Dispatch maps one line of input to an intent. It reports whether the
// line asked to quit.
func Dispatch(line string, intents Intents) (quit bool, err error) {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "", "ok":
		intents.ConfirmAnswer()
	case "load":
		if arg == "" {
			return false, fmt.Errorf("load: missing file path")
		}
		intents.RequestLoad(arg)
	case "history":
		intents.RequestHistoryView()
	case "review":
		intents.RequestReview()
	case "results":
		intents.RequestResults()
	case "new":
		intents.RequestNewAttempt()
	case "quit", "exit":
		intents.Quit()
		return true, nil
	default:
		n, convErr := strconv.Atoi(cmd)
		if convErr != nil || arg != "" {
			return false, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
		}
		intents.SelectOption(n - 1)
	}
	return false, nil
}

// ReadLoop forwards lines from in until quit, EOF or ctx is done. At EOF the
// controller is asked to stop once a pending answer reveal has played out, so
// piped input still completes and records its last attempt.
func (t *Terminal) ReadLoop(ctx context.Context, in io.Reader, intents Intents) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		quit, err := Dispatch(scanner.Text(), intents)
		if err != nil {
			t.printf("%v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
	intents.QuitWhenSettled()
	return scanner.Err()
}
