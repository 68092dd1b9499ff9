package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
)

// WSHandler runs one quiz session per websocket connection. The history
// store is shared by every connection.
type WSHandler struct {
	history      *app.HistoryStore
	source       app.QuestionSource
	questionsDir string
	delay        time.Duration
	log          *zap.Logger
	upgrader     websocket.Upgrader
}

func NewWSHandler(history *app.HistoryStore, source app.QuestionSource, questionsDir string, revealDelay time.Duration, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		history:      history,
		source:       source,
		questionsDir: questionsDir,
		delay:        revealDelay,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type loadPayload struct {
	Path string `json:"path"`
}

type selectPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and bridges socket messages to a Controller.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.Error(err))
				cancel()
				return
			}
		}
	}()

	listener := &wsListener{ctx: ctx, send: send}
	session := app.NewSession(h.history)
	ctrl := app.NewController(session, h.history, h.source, listener, h.log, h.delay)
	go func() {
		_ = ctrl.Run(ctx)
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(inbound, ctrl); err != nil {
			listener.emit("error", errorPayload{Kind: "request", Message: err.Error()})
		}
	}

	cancel()
	<-ctrl.Done()
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(msg inboundMessage, ctrl *app.Controller) error {
	switch msg.Type {
	case "load":
		var payload loadPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Path == "" {
			return errors.New("invalid load payload")
		}
		ctrl.RequestLoad(resolvePath(h.questionsDir, payload.Path))
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errors.New("invalid select payload")
		}
		ctrl.SelectOption(payload.Index)
	case "confirm":
		ctrl.ConfirmAnswer()
	case "history":
		ctrl.RequestHistoryView()
	case "review":
		ctrl.RequestReview()
	case "results":
		ctrl.RequestResults()
	case "new":
		ctrl.RequestNewAttempt()
	default:
		return errors.New("unsupported message type")
	}
	return nil
}

// resolvePath keeps client supplied paths inside dir.
func resolvePath(dir, name string) string {
	return filepath.Join(dir, filepath.Clean("/"+name))
}

// wsListener turns controller events into outbound messages. It runs on the
// controller goroutine and gives up once the connection is torn down.
type wsListener struct {
	ctx  context.Context
	send chan<- outboundMessage[any]
}

func (l *wsListener) emit(typ string, payload any) {
	select {
	case l.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-l.ctx.Done():
	}
}

func (l *wsListener) QuestionShown(view domain.QuestionView) { l.emit("questionShown", view) }
func (l *wsListener) AnswerResult(result domain.AnswerResult) { l.emit("answerResult", result) }
func (l *wsListener) AttemptCompleted(result domain.Result) { l.emit("attemptCompleted", result) }
func (l *wsListener) AttemptReset() { l.emit("attemptReset", struct{}{}) }
func (l *wsListener) ReviewReady(items []domain.ReviewItem) { l.emit("review", items) }

func (l *wsListener) HistoryLoaded(entries []domain.HistoryEntry) {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	l.emit("historyLoaded", entries)
}

func (l *wsListener) Failed(err error) {
	l.emit("error", errorPayload{Kind: errorKind(err), Message: err.Error()})
}

func errorKind(err error) string {
	var schema *domain.SchemaError
	var load *domain.LoadError
	switch {
	case errors.Is(err, domain.ErrNoSelection):
		return "no_selection"
	case errors.Is(err, domain.ErrOptionOutOfRange):
		return "out_of_range"
	case errors.Is(err, domain.ErrInvalidState):
		return "state"
	case errors.As(err, &schema):
		return "schema"
	case errors.As(err, &load):
		return "load"
	default:
		return "internal"
	}
}
