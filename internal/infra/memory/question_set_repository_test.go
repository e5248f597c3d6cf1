package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-showdown/internal/domain"
)

func TestQuestionSetRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionSetLoader: NewStaticQuestionSetLoader(map[string]domain.QuestionSet{
			"creed-basics-001": sampleSet(),
		}),
	}
	repo := NewQuestionSetRepository(loader, time.Minute)

	if _, err := repo.GetQuestionSet(context.Background(), "creed-basics-001"); err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	set, err := repo.GetQuestionSet(context.Background(), "creed-basics-001")
	if err != nil {
		t.Fatalf("get set 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(set.Questions) != 1 || set.Category != "Creed" {
		t.Fatalf("unexpected set: %+v", set)
	}
}

func TestQuestionSetRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuestionSetLoader: NewStaticQuestionSetLoader(map[string]domain.QuestionSet{
			"creed-basics-001": sampleSet(),
		}),
	}
	repo := NewQuestionSetRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuestionSet(context.Background(), "creed-basics-001")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuestionSet(context.Background(), "creed-basics-001")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestQuestionSetRepositoryMissingSet(t *testing.T) {
	repo := NewQuestionSetRepository(NewStaticQuestionSetLoader(nil), time.Minute)
	if _, err := repo.GetQuestionSet(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	QuestionSetLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.QuestionSetLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:       "creed-basics-001",
		Title:    "Creed Basics Vol. 1",
		Category: "Creed",
		Questions: []domain.SourceQuestion{
			{
				ID:           "c1",
				Prompt:       "What is Creed's job title?",
				Answers:      []string{"Quality Assurance", "Sales", "Accounting"},
				CorrectIndex: 0,
			},
		},
	}
}
