package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-showdown/internal/domain"
	"trivia-showdown/internal/infra/memory"
)

func TestSessionFollowsMatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service, clock := newTestService(memory.NewMatchStore())
	id := setupMatch(t, service, "p1")

	session, err := service.NewSession(ctx, id, "p1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()
	if session.Current().State != domain.StateLobby {
		t.Fatalf("expected lobby snapshot, got %s", session.Current().State)
	}

	seen := make(chan domain.Match, 16)
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx, func(m domain.Match) { seen <- m }) }()

	_ = service.HostAdvance(ctx, id, pin)
	waitFor(t, seen, func(m domain.Match) bool { return m.State == domain.StateOpen })

	view := session.View(clock.Now())
	if !view.CanAnswer || view.Question == nil || view.Question.CorrectIndex != nil {
		t.Fatalf("open question view should allow answering and hide the key: %+v", view)
	}

	clock.Advance(time.Second)
	if _, err := session.Submit(ctx, 1, 400); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, seen, func(m domain.Match) bool { _, ok := m.AnswerFor(0, "p1"); return ok })
	if v := session.View(clock.Now()); v.CanAnswer || v.MyAnswer == nil || v.MyAnswer.Ms != 400 {
		t.Fatalf("expected recorded answer in view, got %+v", v)
	}

	session.Close()
	session.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after close")
	}
}

func TestHostSessionCannotSubmit(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(memory.NewMatchStore())
	id := setupMatch(t, service)

	session, err := service.NewSession(ctx, id, "")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()
	if _, err := session.Submit(ctx, 0, 10); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
	if _, err := service.NewSession(ctx, "missing", ""); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("expected match not found, got %v", err)
	}
}

func waitFor(t *testing.T, ch <-chan domain.Match, ok func(domain.Match) bool) domain.Match {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-ch:
			if ok(m) {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot")
			return domain.Match{}
		}
	}
}
