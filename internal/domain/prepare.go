package domain

import "math/rand"

const (
	MinQuestionCount = 5
	MaxQuestionCount = 50
)

// PrepareOptions controls how a question set becomes a match question list.
type PrepareOptions struct {
	Count               int
	DefaultTimeLimitSec int
	ShuffleQuestions    bool
	ShuffleAnswers      bool
}

// PrepareQuestions picks Count questions (clamped to 5..50 and the set size),
// shuffles answers and remaps CorrectIndex to the shuffled position.
func PrepareQuestions(set QuestionSet, opts PrepareOptions, rnd *rand.Rand) []Question {
	source := append([]SourceQuestion(nil), set.Questions...)
	if opts.ShuffleQuestions {
		rnd.Shuffle(len(source), func(i, j int) { source[i], source[j] = source[j], source[i] })
	}

	count := max(MinQuestionCount, min(MaxQuestionCount, opts.Count))
	if count > len(source) {
		count = len(source)
	}

	out := make([]Question, 0, count)
	for _, sq := range source[:count] {
		order := make([]int, len(sq.Answers))
		for i := range order {
			order[i] = i
		}
		if opts.ShuffleAnswers {
			rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		answers := make([]string, len(order))
		correct := -1
		for pos, orig := range order {
			answers[pos] = sq.Answers[orig]
			if orig == sq.CorrectIndex {
				correct = pos
			}
		}

		limit := sq.TimeLimitSec
		if limit <= 0 {
			limit = opts.DefaultTimeLimitSec
		}
		out = append(out, Question{
			ID:           sq.ID,
			Prompt:       sq.Prompt,
			Answers:      answers,
			CorrectIndex: correct,
			TimeLimitSec: limit,
		})
	}
	return out
}
