package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"crocodile-service/internal/app"
	"crocodile-service/internal/domain"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// NewRouter mounts the websocket endpoint and the read-only stats API.
func NewRouter(ws *WSHandler, rounds *app.RoundService) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	api := &statsAPI{rounds: rounds}
	r.HandleFunc("/chats/{chatID}/rating", api.rating).Methods(http.MethodGet)
	r.HandleFunc("/chats/{chatID}/players/{playerID}", api.player).Methods(http.MethodGet)
	return r
}

type statsAPI struct {
	rounds *app.RoundService
}

func (a *statsAPI) rating(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(mux.Vars(r)["chatID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidChatID)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	top, err := a.rounds.Leaderboard(r.Context(), chatID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (a *statsAPI) player(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chatID, err := strconv.ParseInt(vars["chatID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidChatID)
		return
	}
	playerID, err := strconv.ParseInt(vars["playerID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid player id"))
		return
	}
	progress, err := a.rounds.PlayerProgress(r.Context(), chatID, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
