package domain

import (
	"testing"
	"time"
)

func TestStandingsOrdering(t *testing.T) {
	m := NewMatch("m1", "ABC", "1", ScoringConfig{}, nil, fixedNow)
	m.Players["a"] = Player{Name: "Angela", Score: 200, Firsts: 0}
	m.Players["b"] = Player{Name: "Kevin", Score: 200, Firsts: 1}
	m.Players["c"] = Player{Name: "Oscar", Score: 350}

	got := Standings(m)
	order := []string{"c", "b", "a"}
	for i, id := range order {
		if got[i].PlayerID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].PlayerID)
		}
	}
}

func TestHostControls(t *testing.T) {
	m := NewMatch("m1", "ABC", "1", ScoringConfig{}, sampleQuestions(), fixedNow)
	if c := HostControlsFor(m); !c.CanOpen || c.CanClose || c.CanNext || !c.CanEnd {
		t.Fatalf("lobby controls: %+v", c)
	}
	m.State, m.QIndex = StateOpen, 0
	if c := HostControlsFor(m); c.CanOpen || !c.CanClose {
		t.Fatalf("open controls: %+v", c)
	}
	m.State, m.QIndex = StateClosed, 1
	if c := HostControlsFor(m); c.CanOpen || c.CanNext {
		t.Fatalf("last question should not allow next: %+v", c)
	}
	m.State = StateEnded
	if c := HostControlsFor(m); c.CanEnd {
		t.Fatalf("ended controls: %+v", c)
	}
}

func TestMatchViewHidesCorrectIndexWhileOpen(t *testing.T) {
	m := NewMatch("m1", "ABC", "1", ScoringConfig{}, sampleQuestions(), fixedNow)
	m.State, m.QIndex = StateOpen, 0
	m.QuestionStartAt = fixedNow
	m.Players["p1"] = Player{Name: "Pam"}

	v := NewMatchView(m, "p1", fixedNow.Add(1500*time.Millisecond))
	if v.Question == nil || v.Question.CorrectIndex != nil {
		t.Fatalf("correct index must be hidden while open: %+v", v.Question)
	}
	if !v.CanAnswer || v.ElapsedMs != 1500 {
		t.Fatalf("unexpected view: %+v", v)
	}

	m.Answers[0] = map[string]Answer{"p1": {Idx: 1}}
	m.State = StateClosed
	v = NewMatchView(m, "p1", fixedNow)
	if v.Question.CorrectIndex == nil || *v.Question.CorrectIndex != 0 {
		t.Fatalf("correct index should be revealed after close")
	}
	if v.CanAnswer || v.MyAnswer == nil {
		t.Fatalf("closed view should show answer and block input: %+v", v)
	}
}
