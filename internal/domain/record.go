package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record field paths. Player and answer entries are addressed as
// players.<pid>.<leaf> and answers.<qIndex>.<pid>.
const (
	FieldCode            = "code"
	FieldHostPin         = "hostPin"
	FieldState           = "state"
	FieldQIndex          = "qIndex"
	FieldScoredQIndex    = "scoredQIndex"
	FieldQuestions       = "questions"
	FieldConfig          = "config"
	FieldFirstCorrect    = "firstCorrect"
	FieldQuestionStartAt = "questionStartAt"
	FieldCreatedAt       = "createdAt"
	FieldVersion         = "_version"

	playersPrefix = "players."
	answersPrefix = "answers."
)

const (
	leafName     = "name"
	leafScore    = "score"
	leafAnswered = "answered"
	leafAvgMs    = "avgMs"
	leafFirsts   = "firsts"
)

func playerField(playerID, leaf string) string {
	return playersPrefix + playerID + "." + leaf
}

// AnswerField is the path of a single answer entry.
func AnswerField(qIdx int, playerID string) string {
	return answersPrefix + strconv.Itoa(qIdx) + "." + playerID
}

// FieldWrite is one field-path assignment inside a Patch.
type FieldWrite struct {
	Field        string
	Value        string
	OnlyIfAbsent bool
}

// Patch is an ordered set of field writes applied atomically by a store.
type Patch struct {
	writes []FieldWrite
}

func NewPatch() *Patch {
	return &Patch{}
}

// Writes returns the field writes in insertion order.
func (p *Patch) Writes() []FieldWrite {
	if p == nil {
		return nil
	}
	return p.writes
}

// Empty reports whether the patch has no writes.
func (p *Patch) Empty() bool {
	return p == nil || len(p.writes) == 0
}

func (p *Patch) set(field, value string) *Patch {
	p.writes = append(p.writes, FieldWrite{Field: field, Value: value})
	return p
}

func (p *Patch) setNX(field, value string) *Patch {
	p.writes = append(p.writes, FieldWrite{Field: field, Value: value, OnlyIfAbsent: true})
	return p
}

func (p *Patch) SetState(s MatchState) *Patch {
	return p.set(FieldState, string(s))
}

func (p *Patch) SetQIndex(q int) *Patch {
	return p.set(FieldQIndex, strconv.Itoa(q))
}

func (p *Patch) SetScoredQIndex(q int) *Patch {
	return p.set(FieldScoredQIndex, strconv.Itoa(q))
}

func (p *Patch) SetFirstCorrect(fc *FirstCorrect) *Patch {
	return p.set(FieldFirstCorrect, encodeJSON(fc))
}

func (p *Patch) SetQuestionStartAt(t time.Time) *Patch {
	return p.set(FieldQuestionStartAt, encodeTime(t))
}

// JoinPlayer sets the display name and initializes the remaining leaves only
// when they do not exist yet, so a rejoin keeps score and counters.
func (p *Patch) JoinPlayer(playerID, name string) *Patch {
	p.set(playerField(playerID, leafName), name)
	p.setNX(playerField(playerID, leafScore), "0")
	p.setNX(playerField(playerID, leafAnswered), "false")
	p.setNX(playerField(playerID, leafAvgMs), "0")
	return p.setNX(playerField(playerID, leafFirsts), "0")
}

func (p *Patch) SetPlayerScore(playerID string, score int) *Patch {
	return p.set(playerField(playerID, leafScore), strconv.Itoa(score))
}

func (p *Patch) SetPlayerAnswered(playerID string, answered bool) *Patch {
	return p.set(playerField(playerID, leafAnswered), strconv.FormatBool(answered))
}

func (p *Patch) SetPlayerAvgMs(playerID string, avg int) *Patch {
	return p.set(playerField(playerID, leafAvgMs), strconv.Itoa(avg))
}

func (p *Patch) SetPlayerFirsts(playerID string, firsts int) *Patch {
	return p.set(playerField(playerID, leafFirsts), strconv.Itoa(firsts))
}

// PutAnswer writes the answer entry only if none exists for the path.
func (p *Patch) PutAnswer(qIdx int, playerID string, a Answer) *Patch {
	return p.setNX(AnswerField(qIdx, playerID), encodeJSON(a))
}

// ApplyTo applies the writes to a field map in place.
func (p *Patch) ApplyTo(fields map[string]string) {
	for _, w := range p.Writes() {
		if w.OnlyIfAbsent {
			if _, ok := fields[w.Field]; ok {
				continue
			}
		}
		fields[w.Field] = w.Value
	}
}

// EncodeMatch flattens a match into field paths. The version field is owned by the store.
func EncodeMatch(m Match) map[string]string {
	fields := map[string]string{
		FieldCode:            m.Code,
		FieldHostPin:         m.HostPin,
		FieldState:           string(m.State),
		FieldQIndex:          strconv.Itoa(m.QIndex),
		FieldScoredQIndex:    strconv.Itoa(m.ScoredQIndex),
		FieldQuestions:       encodeJSON(m.Questions),
		FieldConfig:          encodeJSON(m.Config),
		FieldFirstCorrect:    encodeJSON(m.FirstCorrect),
		FieldQuestionStartAt: encodeTime(m.QuestionStartAt),
		FieldCreatedAt:       encodeTime(m.CreatedAt),
	}
	for id, pl := range m.Players {
		fields[playerField(id, leafName)] = pl.Name
		fields[playerField(id, leafScore)] = strconv.Itoa(pl.Score)
		fields[playerField(id, leafAnswered)] = strconv.FormatBool(pl.Answered)
		fields[playerField(id, leafAvgMs)] = strconv.Itoa(pl.AvgMs)
		fields[playerField(id, leafFirsts)] = strconv.Itoa(pl.Firsts)
	}
	for q, byPlayer := range m.Answers {
		for id, a := range byPlayer {
			fields[AnswerField(q, id)] = encodeJSON(a)
		}
	}
	return fields
}

// DecodeMatch rebuilds a match from its field paths.
func DecodeMatch(id string, fields map[string]string) (Match, error) {
	m := Match{
		ID:           id,
		QIndex:       -1,
		ScoredQIndex: -1,
		Players:      make(map[string]Player),
		Answers:      make(map[int]map[string]Answer),
	}
	var err error
	for k, v := range fields {
		switch k {
		case FieldCode:
			m.Code = v
		case FieldHostPin:
			m.HostPin = v
		case FieldState:
			m.State = MatchState(v)
		case FieldQIndex:
			m.QIndex, err = strconv.Atoi(v)
		case FieldScoredQIndex:
			m.ScoredQIndex, err = strconv.Atoi(v)
		case FieldQuestions:
			err = json.Unmarshal([]byte(v), &m.Questions)
		case FieldConfig:
			err = json.Unmarshal([]byte(v), &m.Config)
		case FieldFirstCorrect:
			err = json.Unmarshal([]byte(v), &m.FirstCorrect)
		case FieldQuestionStartAt:
			m.QuestionStartAt, err = decodeTime(v)
		case FieldCreatedAt:
			m.CreatedAt, err = decodeTime(v)
		case FieldVersion:
			m.Version, err = strconv.ParseInt(v, 10, 64)
		default:
			switch {
			case strings.HasPrefix(k, playersPrefix):
				err = decodePlayerField(&m, strings.TrimPrefix(k, playersPrefix), v)
			case strings.HasPrefix(k, answersPrefix):
				err = decodeAnswerField(&m, strings.TrimPrefix(k, answersPrefix), v)
			}
		}
		if err != nil {
			return Match{}, fmt.Errorf("decode field %s: %w", k, err)
		}
	}
	return m, nil
}

func decodePlayerField(m *Match, rest, v string) error {
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return fmt.Errorf("malformed player path %q", rest)
	}
	id, leaf := rest[:dot], rest[dot+1:]
	pl := m.Players[id]
	var err error
	switch leaf {
	case leafName:
		pl.Name = v
	case leafScore:
		pl.Score, err = strconv.Atoi(v)
	case leafAnswered:
		pl.Answered, err = strconv.ParseBool(v)
	case leafAvgMs:
		pl.AvgMs, err = strconv.Atoi(v)
	case leafFirsts:
		pl.Firsts, err = strconv.Atoi(v)
	default:
		return nil
	}
	m.Players[id] = pl
	return err
}

func decodeAnswerField(m *Match, rest, v string) error {
	parts := strings.SplitN(rest, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed answer path %q", rest)
	}
	q, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	var a Answer
	if err := json.Unmarshal([]byte(v), &a); err != nil {
		return err
	}
	if m.Answers[q] == nil {
		m.Answers[q] = make(map[string]Answer)
	}
	m.Answers[q][parts[1]] = a
	return nil
}

func encodeJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
