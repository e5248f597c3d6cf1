package domain

import (
	"sort"
	"time"
)

// StandingEntry is one leaderboard row derived from a match snapshot.
type StandingEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Firsts   int    `json:"firsts"`
	AvgMs    int    `json:"avgMs"`
}

// Standings orders players by score desc, then firsts desc, then name.
func Standings(m Match) []StandingEntry {
	entries := make([]StandingEntry, 0, len(m.Players))
	for id, p := range m.Players {
		entries = append(entries, StandingEntry{
			PlayerID: id,
			Name:     p.Name,
			Score:    p.Score,
			Firsts:   p.Firsts,
			AvgMs:    p.AvgMs,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].Firsts != entries[j].Firsts {
			return entries[i].Firsts > entries[j].Firsts
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	return entries
}

// HostControls says which host actions are currently legal.
type HostControls struct {
	CanOpen  bool `json:"canOpen"`
	CanClose bool `json:"canClose"`
	CanNext  bool `json:"canNext"`
	CanEnd   bool `json:"canEnd"`
}

func HostControlsFor(m Match) HostControls {
	return HostControls{
		CanOpen:  (m.State == StateLobby || m.State == StateClosed) && m.HasNextQuestion(),
		CanClose: m.State == StateOpen,
		CanNext:  m.State == StateClosed && m.HasNextQuestion(),
		CanEnd:   m.State != StateEnded,
	}
}

// QuestionView is the current question as shown to clients. CorrectIndex is
// only revealed once the question is no longer open.
type QuestionView struct {
	Index        int      `json:"index"`
	Total        int      `json:"total"`
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Answers      []string `json:"answers"`
	TimeLimitSec int      `json:"timeLimitSec"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

// MatchView is everything a client renders, recomputed from each snapshot.
type MatchView struct {
	MatchID      string          `json:"matchId"`
	Code         string          `json:"code"`
	State        MatchState      `json:"state"`
	Version      int64           `json:"version"`
	PlayerCount  int             `json:"playerCount"`
	Question     *QuestionView   `json:"question,omitempty"`
	ElapsedMs    int64           `json:"elapsedMs"`
	Standings    []StandingEntry `json:"standings"`
	Controls     HostControls    `json:"controls"`
	FirstCorrect *FirstCorrect   `json:"firstCorrect,omitempty"`
	MyAnswer     *Answer         `json:"myAnswer,omitempty"`
	CanAnswer    bool            `json:"canAnswer"`
}

// NewMatchView derives the view for playerID (empty for the host) at time now.
func NewMatchView(m Match, playerID string, now time.Time) MatchView {
	v := MatchView{
		MatchID:      m.ID,
		Code:         m.Code,
		State:        m.State,
		Version:      m.Version,
		PlayerCount:  len(m.Players),
		Standings:    Standings(m),
		Controls:     HostControlsFor(m),
		FirstCorrect: m.FirstCorrect,
	}
	if q, ok := m.CurrentQuestion(); ok {
		qv := &QuestionView{
			Index:        m.QIndex,
			Total:        len(m.Questions),
			ID:           q.ID,
			Prompt:       q.Prompt,
			Answers:      q.Answers,
			TimeLimitSec: q.TimeLimitSec,
		}
		if m.State != StateOpen {
			ci := q.CorrectIndex
			qv.CorrectIndex = &ci
		}
		v.Question = qv
	}
	if m.State == StateOpen && !m.QuestionStartAt.IsZero() {
		v.ElapsedMs = now.Sub(m.QuestionStartAt).Milliseconds()
	}
	if playerID != "" {
		if a, ok := m.AnswerFor(m.QIndex, playerID); ok {
			v.MyAnswer = &a
		}
		_, joined := m.Players[playerID]
		v.CanAnswer = joined && m.State == StateOpen && v.MyAnswer == nil
	}
	return v
}
