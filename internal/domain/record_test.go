package domain

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

func sampleQuestions() []Question {
	return []Question{
		{ID: "q1", Prompt: "Creed's last name?", Answers: []string{"Bratton", "Schrute"}, CorrectIndex: 0, TimeLimitSec: 25},
		{ID: "q2", Prompt: "Branch city?", Answers: []string{"Stamford", "Scranton", "Nashua"}, CorrectIndex: 1, TimeLimitSec: 20},
	}
}

func TestEncodeDecodeMatch(t *testing.T) {
	m := NewMatch("m1", "SCRANTON", "000000", ScoringConfig{Base: 100, SpeedMax: 50, First: 100}, sampleQuestions(), fixedNow)
	m.State = StateOpen
	m.QIndex = 0
	m.QuestionStartAt = fixedNow.Add(time.Second)
	m.Players["p_1"] = Player{Name: "Dwight", Score: 240, Answered: true, AvgMs: 900, Firsts: 2}
	m.Answers[0] = map[string]Answer{"p_1": {Idx: 0, Correct: true, Ms: 900, At: fixedNow}}
	m.FirstCorrect = &FirstCorrect{QIdx: 0, PlayerID: "p_1"}

	fields := EncodeMatch(m)
	fields[FieldVersion] = "7"

	got, err := DecodeMatch("m1", fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != 7 || got.State != StateOpen || got.QIndex != 0 || got.HostPin != "000000" {
		t.Fatalf("unexpected header fields: %+v", got)
	}
	if got.Players["p_1"] != m.Players["p_1"] {
		t.Fatalf("player mismatch: %+v", got.Players["p_1"])
	}
	a, ok := got.AnswerFor(0, "p_1")
	if !ok || !a.Correct || a.Ms != 900 {
		t.Fatalf("answer mismatch: %+v", a)
	}
	if got.FirstCorrect == nil || got.FirstCorrect.PlayerID != "p_1" {
		t.Fatalf("firstCorrect mismatch: %+v", got.FirstCorrect)
	}
	if len(got.Questions) != 2 || got.Questions[1].CorrectIndex != 1 {
		t.Fatalf("questions mismatch: %+v", got.Questions)
	}
}

func TestPatchJoinPreservesExistingScore(t *testing.T) {
	fields := map[string]string{}
	NewPatch().JoinPlayer("p1", "Jim").ApplyTo(fields)
	NewPatch().SetPlayerScore("p1", 300).SetPlayerFirsts("p1", 1).ApplyTo(fields)
	NewPatch().JoinPlayer("p1", "Jim H.").ApplyTo(fields)

	m, err := DecodeMatch("m1", fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := m.Players["p1"]
	if p.Name != "Jim H." || p.Score != 300 || p.Firsts != 1 {
		t.Fatalf("rejoin should keep score and firsts, got %+v", p)
	}
}

func TestPatchPutAnswerIsWriteOnce(t *testing.T) {
	fields := map[string]string{}
	NewPatch().PutAnswer(0, "p1", Answer{Idx: 2, Ms: 100}).ApplyTo(fields)
	NewPatch().PutAnswer(0, "p1", Answer{Idx: 1, Ms: 50}).ApplyTo(fields)

	m, err := DecodeMatch("m1", fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a, _ := m.AnswerFor(0, "p1"); a.Idx != 2 || a.Ms != 100 {
		t.Fatalf("expected first answer to survive, got %+v", a)
	}
}

func TestFirstCorrectNullRoundTrip(t *testing.T) {
	fields := map[string]string{}
	NewPatch().SetFirstCorrect(&FirstCorrect{QIdx: 1, PlayerID: "p1"}).ApplyTo(fields)
	NewPatch().SetFirstCorrect(nil).ApplyTo(fields)

	m, err := DecodeMatch("m1", fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.FirstCorrect != nil {
		t.Fatalf("expected firstCorrect cleared, got %+v", m.FirstCorrect)
	}
}

func TestValidatePlayerID(t *testing.T) {
	for _, id := range []string{"p_1a2b3c4d", "Player-9"} {
		if err := ValidatePlayerID(id); err != nil {
			t.Fatalf("expected %q valid: %v", id, err)
		}
	}
	for _, id := range []string{"", "a.b", "bad id"} {
		if err := ValidatePlayerID(id); !errors.Is(err, ErrInvalidPlayerID) {
			t.Fatalf("expected %q invalid, got %v", id, err)
		}
	}
}
