package http

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-showdown/internal/app"
	"trivia-showdown/internal/domain"
	"trivia-showdown/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.MatchService) {
	t.Helper()
	sets := memory.NewQuestionSetRepository(memory.NewStaticQuestionSetLoader(map[string]domain.QuestionSet{
		"quotes-001": sampleSet(),
	}), time.Minute)
	service := app.NewMatchService(memory.NewMatchStore(), sets, app.DefaultOptions())
	solo := app.NewSoloService(memory.NewSoloScoreStore(), "dunder", 0)

	server := httptest.NewServer(NewRouter(NewAPIHandler(service, solo, ""), NewWSHandler(service)))
	t.Cleanup(server.Close)
	return server, service
}

func TestWebSocketMatchFlow(t *testing.T) {
	ctx := context.Background()
	server, service := newTestServer(t)

	id, err := service.CreateMatch(ctx, app.CreateMatchInput{HostPin: "2468", Config: service.DefaultScoring(), Questions: sampleQuestions()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := service.JoinMatch(ctx, id, "p1", "Pam"); err != nil {
		t.Fatalf("join: %v", err)
	}

	base := "ws" + server.URL[len("http"):] + "/ws?matchId=" + id
	player := dial(t, base+"&playerId=p1")
	host := dial(t, base+"&pin=2468")

	if _, payload := readNext(player, t, "match"); payload["state"] != "lobby" {
		t.Fatalf("expected lobby view, got %v", payload["state"])
	}
	readNext(host, t, "match")

	send(t, host, "host", map[string]any{"action": "open"})
	readUntil(t, player, func(typ string, p map[string]any) bool { return typ == "match" && p["state"] == "open" })

	send(t, player, "answer", map[string]any{"idx": 1, "ms": 0})
	_, res := readUntil(t, player, func(typ string, _ map[string]any) bool { return typ == "answerResult" })
	if res["correct"] != true || res["first"] != true {
		t.Fatalf("expected correct first answer, got %v", res)
	}

	send(t, player, "answer", map[string]any{"idx": 1, "ms": 0})
	_, errMsg := readUntil(t, player, func(typ string, _ map[string]any) bool { return typ == "error" })
	if errMsg["message"] == "" {
		t.Fatalf("expected already answered error")
	}

	send(t, host, "host", map[string]any{"action": "close"})
	_, view := readUntil(t, player, func(typ string, p map[string]any) bool { return typ == "match" && p["state"] == "closed" })
	standings, _ := view["standings"].([]any)
	if len(standings) != 1 || standings[0].(map[string]any)["score"] != float64(250) {
		t.Fatalf("expected 250 points after close, got %v", view["standings"])
	}
}

func TestWebSocketRejectsWrongPin(t *testing.T) {
	ctx := context.Background()
	server, service := newTestServer(t)
	id, _ := service.CreateMatch(ctx, app.CreateMatchInput{HostPin: "2468", Questions: sampleQuestions()})

	conn := dial(t, "ws"+server.URL[len("http"):]+"/ws?matchId="+id+"&pin=1111")
	if _, payload := readNext(conn, t, "error"); payload["message"] == "" {
		t.Fatalf("expected pin error")
	}
}

func dial(t *testing.T, u string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(string, map[string]any) bool) (string, map[string]any) {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if match(typ, payload) {
			return typ, payload
		}
	}
	t.Fatalf("expected message not received")
	return "", nil
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "Who said \"That's what she said\"?", Answers: []string{"Jim", "Michael", "Toby"}, CorrectIndex: 1, TimeLimitSec: 25},
		{ID: "q2", Prompt: "Who is Dwight's cousin?", Answers: []string{"Mose", "Creed"}, CorrectIndex: 0, TimeLimitSec: 25},
	}
}

func sampleSet() domain.QuestionSet {
	set := domain.QuestionSet{ID: "quotes-001", Title: "Quotes & Lines", Category: "Quotes"}
	for i := 0; i < 6; i++ {
		set.Questions = append(set.Questions, domain.SourceQuestion{
			ID:           fmt.Sprintf("quote-%d", i),
			Prompt:       fmt.Sprintf("Who said line %d?", i),
			Answers:      []string{"Michael", "Dwight", "Jim"},
			CorrectIndex: 0,
		})
	}
	return set
}
