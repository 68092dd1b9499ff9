package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"quiz-runner/internal/app"
	"quiz-runner/internal/domain"
)

// NewRouter wires the health check, the history listing and the websocket endpoint.
func NewRouter(ws *WSHandler, history *app.HistoryStore) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/history", historyHandler(history)).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)
	return r
}

func historyHandler(history *app.HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := history.All()
		if entries == nil {
			entries = []domain.HistoryEntry{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}
