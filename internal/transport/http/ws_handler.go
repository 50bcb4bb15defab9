package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"crocodile-service/internal/app"
	"crocodile-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Subscriber delivers round events of one chat.
type Subscriber interface {
	Subscribe(chatID int64) (<-chan domain.RoundEvent, func())
}

// WSHandler bridges a chat client connection to the round engine.
type WSHandler struct {
	rounds   *app.RoundService
	router   *app.ChatRouter
	events   Subscriber
	upgrader websocket.Upgrader
	limit    rate.Limit
	burst    int
}

// HandlerOption customizes a WSHandler.
type HandlerOption func(*WSHandler)

// WithMessageRate caps inbound messages per connection.
func WithMessageRate(perSecond float64, burst int) HandlerOption {
	return func(h *WSHandler) {
		h.limit = rate.Limit(perSecond)
		h.burst = burst
	}
}

func NewWSHandler(rounds *app.RoundService, router *app.ChatRouter, events Subscriber, opts ...HandlerOption) *WSHandler {
	h := &WSHandler{
		rounds: rounds,
		router: router,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		limit: rate.Limit(5),
		burst: 10,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type ratingPayload struct {
	Limit int `json:"limit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type wordPayload struct {
	Word string `json:"word"`
}

type wordsPayload struct {
	Count int `json:"count"`
}

type joinedPayload struct {
	ChatID   int64  `json:"chatId"`
	PlayerID int64  `json:"playerId"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	LeaderID int64  `json:"leaderId,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets. Query parameters chatId, userId and name identify the player.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	chatID, err1 := strconv.ParseInt(q.Get("chatId"), 10, 64)
	userID, err2 := strconv.ParseInt(q.Get("userId"), 10, 64)
	name := q.Get("name")
	if err1 != nil || err2 != nil || chatID == 0 || userID == 0 || name == "" {
		http.Error(w, "missing chatId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if err := h.rounds.RegisterPlayer(ctx, chatID, userID, name); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Int64("player", userID).Msg("register player")
	}

	updates, cancel := h.events.Subscribe(chatID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write")
				_ = conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				for _, msg := range h.eventMessages(ev, chatID, userID) {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	joined := joinedPayload{ChatID: chatID, PlayerID: userID, Name: name}
	if snap, ok := h.rounds.Snapshot(chatID); ok {
		joined.Active = snap.Active
		joined.LeaderID = snap.LeaderID
	}
	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	limiter := rate.NewLimiter(h.limit, h.burst)
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !limiter.Allow() {
			send <- errorMessage("too many messages")
			continue
		}
		if reply, ok := h.handle(ctx, chatID, userID, inbound); ok {
			send <- reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle runs one inbound command. Round outcomes reach the client through the event stream,
// so only private answers are returned here.
func (h *WSHandler) handle(ctx context.Context, chatID, userID int64, in inboundMessage) (outboundMessage[any], bool) {
	switch in.Type {
	case "text":
		var p textPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("invalid text payload"), true
		}
		if _, err := h.router.HandleText(ctx, chatID, userID, p.Text); err != nil {
			return errorMessage(err.Error()), true
		}
	case "start", "claim":
		// clients never replace a round led by someone else
		if _, err := h.rounds.ClaimLeadership(ctx, chatID, userID); err != nil {
			return errorMessage(err.Error()), true
		}
	case "end":
		if _, err := h.rounds.EndRoundManually(ctx, chatID, userID); err != nil {
			return errorMessage(err.Error()), true
		}
	case "stop":
		if _, err := h.rounds.ForceStop(ctx, chatID, userID); err != nil {
			return errorMessage(err.Error()), true
		}
	case "word":
		word, err := h.rounds.RevealWord(chatID, userID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage[any]{Type: "word", Payload: wordPayload{Word: word}}, true
	case "newWord":
		word, err := h.rounds.SwapWord(ctx, chatID, userID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage[any]{Type: "word", Payload: wordPayload{Word: word}}, true
	case "stats":
		progress, err := h.rounds.PlayerProgress(ctx, chatID, userID)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage[any]{Type: "stats", Payload: progress}, true
	case "words":
		n, ok := h.rounds.VocabularySize(ctx)
		if !ok {
			return errorMessage("vocabulary size unavailable"), true
		}
		return outboundMessage[any]{Type: "words", Payload: wordsPayload{Count: n}}, true
	case "rating":
		var p ratingPayload
		if len(in.Payload) > 0 {
			_ = json.Unmarshal(in.Payload, &p)
		}
		if p.Limit <= 0 {
			p.Limit = 10
		}
		top, err := h.rounds.Leaderboard(ctx, chatID, p.Limit)
		if err != nil {
			return errorMessage(err.Error()), true
		}
		return outboundMessage[any]{Type: "rating", Payload: top}, true
	default:
		return errorMessage("unsupported message type"), true
	}
	return outboundMessage[any]{}, false
}

// eventMessages renders a round event for one connection. The new leader also gets the secret word.
func (h *WSHandler) eventMessages(ev domain.RoundEvent, chatID, userID int64) []outboundMessage[any] {
	msgs := []outboundMessage[any]{{Type: "event", Payload: ev}}
	if ev.Type == domain.EventRoundStarted && ev.PlayerID == userID {
		word, err := h.rounds.RevealWord(chatID, userID)
		if err == nil {
			msgs = append(msgs, outboundMessage[any]{Type: "word", Payload: wordPayload{Word: word}})
		} else if !errors.Is(err, domain.ErrNoActiveRound) {
			log.Warn().Err(err).Int64("chat", chatID).Msg("reveal word to leader")
		}
	}
	return msgs
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
