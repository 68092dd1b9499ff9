package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quiz-runner/internal/domain"
	"quiz-runner/internal/loader"
)

// DefaultRevealDelay is how long an answer stays revealed before the next question.
const DefaultRevealDelay = 1500 * time.Millisecond

// QuestionSource loads a question set in file order.
type QuestionSource interface {
	LoadQuestions(ctx context.Context, path string) ([]domain.Question, error)
}

// Listener is the presentation side of a Controller. All calls arrive on the
// controller's goroutine, one at a time.
type Listener interface {
	QuestionShown(view domain.QuestionView)
	AnswerResult(result domain.AnswerResult)
	AttemptCompleted(result domain.Result)
	AttemptReset()
	HistoryLoaded(entries []domain.HistoryEntry)
	ReviewReady(items []domain.ReviewItem)
	Failed(err error)
}

// Controller is the single owner of a Session. Intents from the presentation
// layer are queued and applied in order by Run.
type Controller struct {
	session  *Session
	history  *HistoryStore
	source   QuestionSource
	listener Listener
	log      *zap.Logger
	delay    time.Duration

	events      chan func(context.Context)
	done        chan struct{}
	quit        bool
	quitSettled bool

	selected string
	timer    *time.Timer
	gen      uint64
}

func NewController(session *Session, history *HistoryStore, source QuestionSource, listener Listener, log *zap.Logger, revealDelay time.Duration) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		session:  session,
		history:  history,
		source:   source,
		listener: listener,
		log:      log,
		delay:    revealDelay,
		events:   make(chan func(context.Context), 16),
		done:     make(chan struct{}),
	}
}

// Run applies queued intents until ctx is done or Quit is processed.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.cancelAdvance()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			ev(ctx)
			if c.quit {
				return nil
			}
		}
	}
}

// RequestLoad reads the question set at path and starts a new attempt on it.
func (c *Controller) RequestLoad(path string) {
	c.post(func(ctx context.Context) { c.handleLoad(ctx, path) })
}

// SelectOption marks the option at index (display order) as the pending answer.
func (c *Controller) SelectOption(index int) {
	c.post(func(context.Context) { c.handleSelect(index) })
}

// ConfirmAnswer submits the pending selection.
func (c *Controller) ConfirmAnswer() {
	c.post(func(context.Context) { c.handleConfirm() })
}

// RequestHistoryView emits every recorded attempt.
func (c *Controller) RequestHistoryView() {
	c.post(func(context.Context) { c.listener.HistoryLoaded(c.history.All()) })
}

// RequestReview emits the answered questions of the completed attempt.
func (c *Controller) RequestReview() {
	c.post(func(context.Context) { c.handleReview() })
}

// RequestResults shows the final score again, for instance when leaving review.
func (c *Controller) RequestResults() {
	c.post(func(ctx context.Context) { c.handleResults(ctx) })
}

// RequestNewAttempt returns to the menu, abandoning an unfinished attempt.
func (c *Controller) RequestNewAttempt() {
	c.post(func(context.Context) { c.handleNewAttempt() })
}

// Quit stops Run after the intents queued before it.
func (c *Controller) Quit() {
	c.post(func(context.Context) { c.quit = true })
}

// QuitWhenSettled stops Run once no answer is left to reveal. A pending
// reveal still advances, so a finished attempt is completed and recorded
// before Run returns.
func (c *Controller) QuitWhenSettled() {
	c.post(func(context.Context) {
		if c.session.State() == StateAnswerRevealed {
			c.quitSettled = true
			return
		}
		c.quit = true
	})
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) post(ev func(context.Context)) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

func (c *Controller) handleLoad(ctx context.Context, path string) {
	state := c.session.State()
	if state.InProgress() {
		c.fail("load", &domain.StateError{Op: "load", State: state.String()})
		return
	}

	questions, err := c.source.LoadQuestions(ctx, path)
	if err != nil {
		c.fail("load", err)
		return
	}
	if len(questions) == 0 {
		c.fail("load", &domain.LoadError{Source: path, Err: domain.ErrEmptyQuestionSet})
		return
	}

	if state == StateCompleted {
		if err := c.session.Reset(); err != nil {
			c.fail("load", err)
			return
		}
	}
	view, err := c.session.Start(loader.Shuffle(c.session.rnd, questions))
	if err != nil {
		c.fail("load", err)
		return
	}
	c.selected = ""
	c.log.Info("attempt started",
		zap.String("attempt_id", view.AttemptID),
		zap.String("path", path),
		zap.Int("questions", view.Total),
	)
	c.listener.QuestionShown(view)
}

func (c *Controller) handleSelect(index int) {
	view, err := c.session.Current()
	if err != nil {
		c.fail("select", err)
		return
	}
	if c.session.State() != StateAwaitingAnswer {
		c.fail("select", &domain.StateError{Op: "select", State: c.session.State().String()})
		return
	}
	if index < 0 || index >= len(view.Options) {
		c.fail("select", domain.ErrOptionOutOfRange)
		return
	}
	c.selected = view.Options[index]
}

func (c *Controller) handleConfirm() {
	result, err := c.session.Submit(c.selected)
	if err != nil {
		c.fail("confirm", err)
		return
	}
	c.selected = ""
	c.listener.AnswerResult(result)
	c.scheduleAdvance()
}

// scheduleAdvance arms the reveal timer. The callback only queues an event;
// the generation check drops it if the attempt was cancelled meanwhile.
func (c *Controller) scheduleAdvance() {
	c.cancelAdvance()
	token := c.gen
	c.timer = time.AfterFunc(c.delay, func() {
		c.post(func(ctx context.Context) { c.handleAdvance(ctx, token) })
	})
}

func (c *Controller) cancelAdvance() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) handleAdvance(ctx context.Context, token uint64) {
	if token != c.gen || c.session.State() != StateAnswerRevealed {
		return
	}
	c.timer = nil
	if c.quitSettled {
		defer func() { c.quit = true }()
	}
	next, result, done, err := c.session.Advance()
	if err != nil {
		c.fail("advance", err)
		return
	}
	if !done {
		c.listener.QuestionShown(next)
		return
	}
	c.complete(ctx, result)
}

func (c *Controller) handleResults(ctx context.Context) {
	result, err := c.session.Result()
	if err != nil {
		c.fail("results", err)
		return
	}
	c.complete(ctx, result)
}

// complete records history (at most once per attempt) and shows the result.
func (c *Controller) complete(ctx context.Context, result domain.Result) {
	entry, recorded, err := c.session.Complete(ctx)
	if err != nil {
		c.fail("complete", err)
	} else if recorded {
		c.log.Info("attempt completed",
			zap.String("attempt_id", result.AttemptID),
			zap.Int("score", entry.Score),
			zap.Int("total", entry.Total),
			zap.Float64("percentage", entry.Percentage),
		)
	}
	c.listener.AttemptCompleted(result)
}

func (c *Controller) handleReview() {
	items, err := c.session.Review()
	if err != nil {
		c.fail("review", err)
		return
	}
	c.listener.ReviewReady(items)
}

func (c *Controller) handleNewAttempt() {
	switch state := c.session.State(); {
	case state == StateCompleted:
		if err := c.session.Reset(); err != nil {
			c.fail("new", err)
			return
		}
	case state.InProgress():
		c.cancelAdvance()
		attempt, _ := c.session.Attempt()
		if err := c.session.Abandon(); err != nil {
			c.fail("new", err)
			return
		}
		c.log.Info("attempt abandoned",
			zap.String("attempt_id", attempt.ID),
			zap.Int("answered", len(attempt.Answers)),
		)
	}
	c.selected = ""
	c.listener.AttemptReset()
}

func (c *Controller) fail(op string, err error) {
	if errors.Is(err, domain.ErrNoSelection) || errors.Is(err, domain.ErrOptionOutOfRange) {
		c.log.Debug("intent rejected", zap.String("op", op), zap.Error(err))
	} else {
		c.log.Warn("intent failed", zap.String("op", op), zap.Error(err))
	}
	c.listener.Failed(err)
}
