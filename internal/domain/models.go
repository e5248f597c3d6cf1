package domain

import (
	"fmt"
	"regexp"
	"time"
)

// MatchState is the host-driven phase of a match.
type MatchState string

const (
	StateLobby  MatchState = "lobby"
	StateOpen   MatchState = "open"
	StateClosed MatchState = "closed"
	StateEnded  MatchState = "ended"
)

// ScoringConfig holds the point parameters fixed at match creation.
type ScoringConfig struct {
	Base     int `json:"base"`
	SpeedMax int `json:"speedMax"`
	First    int `json:"first"`
}

// Validate rejects configs that could produce negative deltas.
func (c ScoringConfig) Validate() error {
	if c.Base < 0 || c.SpeedMax < 0 || c.First < 0 {
		return fmt.Errorf("%w: scoring values must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Question is a prepared question: answers already shuffled, CorrectIndex remapped.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
	TimeLimitSec int      `json:"timeLimitSec"`
}

// Player is a participant entry inside a match record.
type Player struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Answered bool   `json:"answered"`
	AvgMs    int    `json:"avgMs"`
	Firsts   int    `json:"firsts"`
}

// Answer is written once per player per question.
type Answer struct {
	Idx     int       `json:"idx"`
	Correct bool      `json:"correct"`
	Ms      int       `json:"ms"`
	At      time.Time `json:"at"`
}

// FirstCorrect marks the player that committed the first correct answer for QIdx.
type FirstCorrect struct {
	QIdx     int    `json:"qIdx"`
	PlayerID string `json:"playerId"`
}

// Match is the single shared record of a live game.
type Match struct {
	ID              string                    `json:"id"`
	Code            string                    `json:"code"`
	HostPin         string                    `json:"-"`
	State           MatchState                `json:"state"`
	QIndex          int                       `json:"qIndex"`
	ScoredQIndex    int                       `json:"scoredQIndex"`
	Questions       []Question                `json:"questions"`
	Config          ScoringConfig             `json:"config"`
	Players         map[string]Player         `json:"players"`
	Answers         map[int]map[string]Answer `json:"answers"`
	FirstCorrect    *FirstCorrect             `json:"firstCorrect"`
	QuestionStartAt time.Time                 `json:"questionStartAt"`
	CreatedAt       time.Time                 `json:"createdAt"`
	Version         int64                     `json:"version"`
}

// NewMatch builds a match in the lobby state.
func NewMatch(id, code, hostPin string, cfg ScoringConfig, questions []Question, now time.Time) Match {
	return Match{
		ID:           id,
		Code:         code,
		HostPin:      hostPin,
		State:        StateLobby,
		QIndex:       -1,
		ScoredQIndex: -1,
		Questions:    questions,
		Config:       cfg,
		Players:      make(map[string]Player),
		Answers:      make(map[int]map[string]Answer),
		CreatedAt:    now,
	}
}

// CurrentQuestion returns the question at QIndex.
func (m Match) CurrentQuestion() (Question, bool) {
	if m.QIndex < 0 || m.QIndex >= len(m.Questions) {
		return Question{}, false
	}
	return m.Questions[m.QIndex], true
}

// AnswerFor returns the recorded answer of playerID for question qIdx.
func (m Match) AnswerFor(qIdx int, playerID string) (Answer, bool) {
	byPlayer, ok := m.Answers[qIdx]
	if !ok {
		return Answer{}, false
	}
	a, ok := byPlayer[playerID]
	return a, ok
}

// HasNextQuestion reports whether advancing would stay inside the question list.
func (m Match) HasNextQuestion() bool {
	return m.QIndex+1 < len(m.Questions)
}

// AnsweredCount is the number of questions playerID has answered so far.
func (m Match) AnsweredCount(playerID string) int {
	n := 0
	for _, byPlayer := range m.Answers {
		if _, ok := byPlayer[playerID]; ok {
			n++
		}
	}
	return n
}

var playerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidatePlayerID checks that id can be embedded in a record field path.
func ValidatePlayerID(id string) error {
	if !playerIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidPlayerID, id)
	}
	return nil
}

// SourceQuestion is a question as authored in a question set, before shuffling.
type SourceQuestion struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
	TimeLimitSec int      `json:"timeLimitSec,omitempty"`
}

// QuestionSet is a named collection of authored questions.
type QuestionSet struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Category  string           `json:"category"`
	Questions []SourceQuestion `json:"questions"`
}

// SoloScore is one finished solo run.
type SoloScore struct {
	Name       string    `json:"name"`
	SetID      string    `json:"setId"`
	Score      int       `json:"score"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}
