package domain

import "math"

const (
	// SpeedCeilingMs is the response time at and above which no speed bonus is given.
	SpeedCeilingMs = 5000
	// NoAnswerMs stands in for the response time of a player who did not answer.
	NoAnswerMs = 999999
)

// SpeedRatio maps a response time onto [0, 1], 1 for an instant answer.
func SpeedRatio(ms int) float64 {
	if ms < 0 {
		ms = 0
	}
	capped := min(ms, SpeedCeilingMs)
	ratio := float64(SpeedCeilingMs-capped) / SpeedCeilingMs
	return math.Max(0, math.Min(1, ratio))
}

// ScoreDelta computes the points one player earns on one question.
// answer is nil when the player did not answer.
func ScoreDelta(cfg ScoringConfig, answer *Answer, first bool) int {
	correct := answer != nil && answer.Correct
	ms := NoAnswerMs
	if answer != nil {
		ms = answer.Ms
	}

	delta := 0
	if correct {
		delta += cfg.Base
		delta += int(math.Round(float64(cfg.SpeedMax) * SpeedRatio(ms)))
	}
	if first {
		delta += cfg.First
	}
	return delta
}

// ScoreQuestion returns the delta for every player in the match for question qIdx.
// It reads only the record, so any observer recomputes the same values.
func ScoreQuestion(m Match, qIdx int) map[string]int {
	deltas := make(map[string]int, len(m.Players))
	for id := range m.Players {
		var answer *Answer
		if a, ok := m.AnswerFor(qIdx, id); ok {
			answer = &a
		}
		first := m.FirstCorrect != nil && m.FirstCorrect.QIdx == qIdx && m.FirstCorrect.PlayerID == id
		deltas[id] = ScoreDelta(m.Config, answer, first)
	}
	return deltas
}
