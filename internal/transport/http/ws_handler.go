package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"trivia-showdown/internal/app"
	"trivia-showdown/internal/domain"
)

type WSHandler struct {
	service  *app.MatchService
	upgrader websocket.Upgrader
	now      func() time.Time
}

func NewWSHandler(service *app.MatchService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Idx int `json:"idx"`
	Ms  int `json:"ms"`
}

type hostPayload struct {
	Action string `json:"action"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and streams match views to the client.
// Players connect with playerId, the host with pin; host sessions may send
// host actions, player sessions may send answers.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	matchID := r.URL.Query().Get("matchId")
	playerID := r.URL.Query().Get("playerId")
	pin := r.URL.Query().Get("pin")
	if matchID == "" || (playerID == "" && pin == "") {
		http.Error(w, "missing matchId, playerId or pin", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	isHost := pin != ""
	if isHost {
		if err := h.service.CheckHostPin(r.Context(), matchID, pin); err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
	}

	session, err := h.service.NewSession(r.Context(), matchID, playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer session.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "match", Payload: session.View(h.now())}

	go func() {
		defer close(updatesDone)
		_ = session.Run(ctx, func(m domain.Match) {
			select {
			case send <- outboundMessage[any]{Type: "match", Payload: domain.NewMatchView(m, playerID, h.now())}:
			case <-ctx.Done():
			}
		})
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch {
		case inbound.Type == "answer" && !isHost:
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			res, err := session.Submit(ctx, payload.Idx, payload.Ms)
			if err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			reply(outboundMessage[any]{Type: "answerResult", Payload: res})
		case inbound.Type == "host" && isHost:
			var payload hostPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid host payload"}})
				continue
			}
			action := hostActionFor(h.service, payload.Action)
			if action == nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unknown host action"}})
				continue
			}
			if err := action(ctx, matchID, pin); err != nil {
				reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		default:
			reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	cancel()
	session.Close()
	<-updatesDone
	close(send)
	<-writerDone
}
