package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-showdown/internal/domain"
	"trivia-showdown/internal/infra/memory"
)

func TestQuestionSetRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionSetLoader: memory.NewStaticQuestionSetLoader(map[string]domain.QuestionSet{
			"quotes-001": sampleSet(),
		}),
	}
	repo := NewQuestionSetRepository(client, loader, time.Minute)

	set, err := repo.GetQuestionSet(context.Background(), "quotes-001")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("questionset:quotes-001") {
		t.Fatalf("expected set cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, _ := repo.GetQuestionSet(context.Background(), "quotes-001")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[0].Answers[cached.Questions[0].CorrectIndex] != set.Questions[0].Answers[set.Questions[0].CorrectIndex] {
		t.Fatalf("cached set lost its correct answer: %+v", cached)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetQuestionSet(context.Background(), "quotes-001")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionSetLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.QuestionSetLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:       "quotes-001",
		Title:    "Quotes & Lines",
		Category: "Quotes",
		Questions: []domain.SourceQuestion{
			{
				ID:           "qt1",
				Prompt:       "Who said \"Bears. Beets. Battlestar Galactica.\"?",
				Answers:      []string{"Michael", "Jim", "Dwight"},
				CorrectIndex: 1,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
