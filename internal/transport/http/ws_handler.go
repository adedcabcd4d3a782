package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"plotline-service/internal/app"
	"plotline-service/internal/catalog"
	"plotline-service/internal/domain"
)

// WSHandler hosts the websocket endpoints: the interactive play session
// and the live leaderboard feed.
type WSHandler struct {
	service  *app.ProfileService
	catalog  *catalog.Catalog
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ProfileService, c *catalog.Catalog) *WSHandler {
	return &WSHandler{
		service: service,
		catalog: c,
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

type guessPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// questionView hides the answer until a guess or reveal.
type questionView struct {
	ID    int    `json:"id"`
	Plot  string `json:"plot"`
	Index int    `json:"index"`
	Total int    `json:"total"`
}

type answerView struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer"`
	Author     string `json:"author"`
}

// ServePlay runs one round over a websocket. Identity is bound once from
// the query string at connect time; later messages cannot override it.
// Inbound messages: guess {text}, reveal, next. When the catalog is
// exhausted the final score is reported to the ledger and a roundComplete
// message closes the session.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	externalID, err := strconv.ParseInt(r.URL.Query().Get("externalId"), 10, 64)
	username := r.URL.Query().Get("username")
	displayName := r.URL.Query().Get("name")
	if err != nil || externalID == 0 || username == "" || displayName == "" {
		http.Error(w, "missing externalId, username, or name", http.StatusBadRequest)
		return
	}
	var avatarURL *string
	if raw := r.URL.Query().Get("avatarUrl"); raw != "" {
		avatarURL = &raw
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	profile, err := h.service.SignIn(r.Context(), externalID, username, displayName, avatarURL)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	round := app.NewRound(h.catalog)
	if round.Finished() {
		_ = conn.WriteJSON(outboundMessage[domain.RoundSummary]{Type: "roundComplete", Payload: round.Summary()})
		return
	}
	if err := h.sendQuestion(conn, round); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "guess":
			var payload guessPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid guess payload")
				continue
			}
			result, err := round.Guess(payload.Text)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if err := conn.WriteJSON(outboundMessage[domain.GuessResult]{Type: "guessResult", Payload: result}); err != nil {
				return
			}
		case "reveal":
			question, err := round.Reveal()
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			msg := outboundMessage[answerView]{Type: "answer", Payload: answerView{
				QuestionID: question.ID,
				Answer:     question.Answer,
				Author:     question.Author,
			}}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case "next":
			if round.Next() {
				if err := h.sendQuestion(conn, round); err != nil {
					return
				}
				continue
			}
			summary := round.Summary()
			// The stored high score may have moved since connect (another
			// device, the JSON API), so compare against a fresh read.
			current, err := h.service.SignIn(r.Context(), externalID, username, displayName, avatarURL)
			if err != nil {
				current = profile
			}
			summary.NewHighScore = round.Score() > current.HighScore
			if err := h.service.ReportScore(r.Context(), externalID, round.Score()); err != nil {
				log.Printf("final score report failed: %v", err)
			}
			_ = conn.WriteJSON(outboundMessage[domain.RoundSummary]{Type: "roundComplete", Payload: summary})
			return
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

// ServeLeaderboard streams ranked snapshots: one on connect, then one
// whenever a high score is raised.
func (h *WSHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshot, err := h.service.Leaderboard(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: snapshot}); err != nil {
		return
	}

	updates, cancel := h.service.Subscribe()
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for update := range updates {
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: update}); err != nil {
				return
			}
		}
	}()

	// Inbound content is ignored; reading only detects the client leaving.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, round *app.Round) error {
	question, ok := round.Current()
	if !ok {
		return nil
	}
	view := questionView{
		ID:    question.ID,
		Plot:  question.Plot,
		Index: round.Index(),
		Total: h.catalog.Len(),
	}
	return conn.WriteJSON(outboundMessage[questionView]{Type: "question", Payload: view})
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
