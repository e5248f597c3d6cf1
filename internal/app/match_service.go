package app

import (
	"context"
	"crypto/subtle"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"trivia-showdown/internal/domain"
	"trivia-showdown/internal/metrics"
)

// Options tunes match creation defaults and the submission transaction.
type Options struct {
	DefaultCode      string
	DefaultPin       string
	Scoring          domain.ScoringConfig
	TimePerQSec      int
	ShuffleQuestions bool
	ShuffleAnswers   bool

	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultOptions mirrors the shipped game defaults.
func DefaultOptions() Options {
	return Options{
		DefaultCode:      "SCRANTON",
		DefaultPin:       "000000",
		Scoring:          domain.ScoringConfig{Base: 100, SpeedMax: 50, First: 100},
		TimePerQSec:      25,
		ShuffleQuestions: true,
		ShuffleAnswers:   true,
		MaxAttempts:      10,
		InitialBackoff:   5 * time.Millisecond,
		MaxBackoff:       100 * time.Millisecond,
	}
}

const maxNameLength = 20

var pinPattern = regexp.MustCompile(`^[0-9]{4,12}$`)

// MatchService contains the live match use cases.
type MatchService struct {
	store MatchStore
	sets  QuestionSetRepository
	opts  Options
	now   func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewMatchService(store MatchStore, sets QuestionSetRepository, opts Options) *MatchService {
	return NewMatchServiceWithClock(store, sets, opts, time.Now)
}

// NewMatchServiceWithClock is test-only for deterministic timestamps.
func NewMatchServiceWithClock(store MatchStore, sets QuestionSetRepository, opts Options, now func() time.Time) *MatchService {
	return &MatchService{
		store: store,
		sets:  sets,
		opts:  opts,
		now:   now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateMatchInput carries an already prepared question list.
type CreateMatchInput struct {
	Code      string
	HostPin   string
	Config    domain.ScoringConfig
	Questions []domain.Question
}

// CreateMatch stores a new match in the lobby state and returns its id.
func (s *MatchService) CreateMatch(ctx context.Context, in CreateMatchInput) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		code = s.opts.DefaultCode
	}
	pin := strings.TrimSpace(in.HostPin)
	if pin == "" {
		pin = s.opts.DefaultPin
	}
	if !pinPattern.MatchString(pin) {
		return "", fmt.Errorf("%w: host pin must be 4-12 digits", domain.ErrInvalidConfig)
	}
	if err := in.Config.Validate(); err != nil {
		return "", err
	}
	if err := validateQuestions(in.Questions); err != nil {
		return "", err
	}

	m := domain.NewMatch(uuid.NewString(), code, pin, in.Config, in.Questions, s.now())
	if err := s.store.Create(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// CreateFromSetInput describes a match built from a stored question set.
type CreateFromSetInput struct {
	Code        string
	HostPin     string
	SetID       string
	Count       int
	TimePerQSec int
}

// CreateMatchFromSet loads a question set, shuffles it and creates a match
// with the default scoring config.
func (s *MatchService) CreateMatchFromSet(ctx context.Context, in CreateFromSetInput) (string, error) {
	if s.sets == nil {
		return "", domain.ErrQuestionSetNotFound
	}
	set, err := s.sets.GetQuestionSet(ctx, in.SetID)
	if err != nil {
		return "", err
	}
	timePerQ := in.TimePerQSec
	if timePerQ <= 0 {
		timePerQ = s.opts.TimePerQSec
	}
	count := in.Count
	if count == 0 {
		count = 10
	}

	s.rndMu.Lock()
	questions := domain.PrepareQuestions(set, domain.PrepareOptions{
		Count:               count,
		DefaultTimeLimitSec: timePerQ,
		ShuffleQuestions:    s.opts.ShuffleQuestions,
		ShuffleAnswers:      s.opts.ShuffleAnswers,
	}, s.rnd)
	s.rndMu.Unlock()

	return s.CreateMatch(ctx, CreateMatchInput{
		Code:      in.Code,
		HostPin:   in.HostPin,
		Config:    s.opts.Scoring,
		Questions: questions,
	})
}

// FindMatchByCode resolves a join code to a match id.
func (s *MatchService) FindMatchByCode(ctx context.Context, code string) (string, error) {
	return s.store.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// GetMatch returns the current record.
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (domain.Match, error) {
	return s.store.Get(ctx, matchID)
}

// JoinMatch registers a player. Joining again with the same id only updates
// the display name; score and counters are kept.
func (s *MatchService) JoinMatch(ctx context.Context, matchID, playerID, name string) error {
	if err := domain.ValidatePlayerID(playerID); err != nil {
		return err
	}
	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if m.State == domain.StateEnded {
		return fmt.Errorf("%w: match has ended", domain.ErrIllegalTransition)
	}
	return s.store.Update(ctx, matchID, domain.NewPatch().JoinPlayer(playerID, cleanName(name)))
}

// SubmitResult reports what a committed submission recorded.
type SubmitResult struct {
	QIndex  int  `json:"qIndex"`
	Correct bool `json:"correct"`
	First   bool `json:"first"`
}

// SubmitAnswer records a player's answer for the current question inside an
// optimistic transaction. Only the commit that lands first may claim
// firstCorrect for a question; the answer entry is written once.
func (s *MatchService) SubmitAnswer(ctx context.Context, matchID, playerID string, idx, ms int) (SubmitResult, error) {
	var res SubmitResult
	err := s.runTransaction(ctx, matchID, func(m domain.Match) (*domain.Patch, error) {
		res = SubmitResult{}
		if m.State != domain.StateOpen {
			return nil, fmt.Errorf("%w: question is not open", domain.ErrIllegalTransition)
		}
		player, ok := m.Players[playerID]
		if !ok {
			return nil, domain.ErrPlayerNotFound
		}
		q, ok := m.CurrentQuestion()
		if !ok {
			return nil, fmt.Errorf("%w: no current question", domain.ErrIllegalTransition)
		}
		if idx < 0 || idx >= len(q.Answers) {
			return nil, domain.ErrInvalidAnswer
		}
		qIdx := m.QIndex
		if _, exists := m.AnswerFor(qIdx, playerID); exists {
			return nil, domain.ErrAlreadyAnswered
		}

		now := s.now()
		elapsed := boundElapsed(ms, m.QuestionStartAt, now)
		correct := idx == q.CorrectIndex

		prior := m.AnsweredCount(playerID)
		patch := domain.NewPatch().
			PutAnswer(qIdx, playerID, domain.Answer{Idx: idx, Correct: correct, Ms: elapsed, At: now}).
			SetPlayerAnswered(playerID, true).
			SetPlayerAvgMs(playerID, (player.AvgMs*prior+elapsed)/(prior+1))

		res.QIndex = qIdx
		res.Correct = correct
		if correct && (m.FirstCorrect == nil || m.FirstCorrect.QIdx != qIdx) {
			patch.SetFirstCorrect(&domain.FirstCorrect{QIdx: qIdx, PlayerID: playerID}).
				SetPlayerFirsts(playerID, player.Firsts+1)
			res.First = true
		}
		return patch, nil
	})
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
		return SubmitResult{}, err
	}
	if res.Correct {
		metrics.SubmissionsTotal.WithLabelValues("correct").Inc()
	} else {
		metrics.SubmissionsTotal.WithLabelValues("incorrect").Inc()
	}
	if res.First {
		metrics.FirstCorrectAwards.Inc()
	}
	return res, nil
}

// HostAdvance opens the next question. Legal from lobby or closed while a
// next question exists.
func (s *MatchService) HostAdvance(ctx context.Context, matchID, pin string) (err error) {
	defer func() { metrics.RecordHostAction("advance", err) }()

	m, err := s.authorize(ctx, matchID, pin)
	if err != nil {
		return err
	}
	if m.State != domain.StateLobby && m.State != domain.StateClosed {
		return fmt.Errorf("%w: cannot open a question from %s", domain.ErrIllegalTransition, m.State)
	}
	if !m.HasNextQuestion() {
		return fmt.Errorf("%w: no question after %d", domain.ErrIllegalTransition, m.QIndex)
	}

	patch := domain.NewPatch()
	if m.State == domain.StateClosed && m.ScoredQIndex < m.QIndex {
		// a previous close stopped before scoring; the snapshot is already
		// past open so it is safe to score from it
		appendScores(patch, m)
	}
	patch.SetState(domain.StateOpen).
		SetQIndex(m.QIndex + 1).
		SetFirstCorrect(nil).
		SetQuestionStartAt(s.now())
	for id := range m.Players {
		patch.SetPlayerAnswered(id, false)
	}
	return s.store.Update(ctx, matchID, patch)
}

// HostClose closes the open question and applies score deltas. Closing a
// question that is already closed and scored does nothing.
func (s *MatchService) HostClose(ctx context.Context, matchID, pin string) (err error) {
	defer func() { metrics.RecordHostAction("close", err) }()

	m, err := s.authorize(ctx, matchID, pin)
	if err != nil {
		return err
	}
	switch m.State {
	case domain.StateOpen:
		if err := s.store.Update(ctx, matchID, domain.NewPatch().SetState(domain.StateClosed)); err != nil {
			return err
		}
		// Answers must be read strictly after the state left open. Any
		// submission that has not committed by now fails its version check
		// and is rejected by the state check on retry.
		m, err = s.store.Get(ctx, matchID)
		if err != nil {
			return err
		}
		if m.State != domain.StateClosed {
			return fmt.Errorf("%w: match moved to %s while closing", domain.ErrIllegalTransition, m.State)
		}
	case domain.StateClosed:
		if m.ScoredQIndex >= m.QIndex {
			return nil
		}
	default:
		return fmt.Errorf("%w: cannot close from %s", domain.ErrIllegalTransition, m.State)
	}

	return s.store.Update(ctx, matchID, appendScores(domain.NewPatch(), m))
}

// HostEnd moves the match to the terminal ended state.
func (s *MatchService) HostEnd(ctx context.Context, matchID, pin string) (err error) {
	defer func() { metrics.RecordHostAction("end", err) }()

	m, err := s.authorize(ctx, matchID, pin)
	if err != nil {
		return err
	}
	if m.State == domain.StateEnded {
		return fmt.Errorf("%w: match already ended", domain.ErrIllegalTransition)
	}
	return s.store.Update(ctx, matchID, domain.NewPatch().SetState(domain.StateEnded))
}

// Subscribe returns a channel of full match snapshots.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *MatchService) Subscribe(ctx context.Context, matchID string) (<-chan domain.Match, func(), error) {
	ch, cancel, err := s.store.Watch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	metrics.ActiveSubscriptions.Inc()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			cancel()
			metrics.ActiveSubscriptions.Dec()
		})
	}, nil
}

// CheckHostPin verifies pin against the match without changing anything.
func (s *MatchService) CheckHostPin(ctx context.Context, matchID, pin string) error {
	_, err := s.authorize(ctx, matchID, pin)
	return err
}

// DefaultScoring is the scoring config used when a create request carries none.
func (s *MatchService) DefaultScoring() domain.ScoringConfig {
	return s.opts.Scoring
}

func (s *MatchService) authorize(ctx context.Context, matchID, pin string) (domain.Match, error) {
	m, err := s.store.Get(ctx, matchID)
	if err != nil {
		return domain.Match{}, err
	}
	if subtle.ConstantTimeCompare([]byte(m.HostPin), []byte(strings.TrimSpace(pin))) != 1 {
		return domain.Match{}, domain.ErrInvalidPin
	}
	return m, nil
}

// appendScores writes absolute new scores for the question at m.QIndex, so
// re-applying the same patch cannot double count.
func appendScores(patch *domain.Patch, m domain.Match) *domain.Patch {
	for id, delta := range domain.ScoreQuestion(m, m.QIndex) {
		patch.SetPlayerScore(id, m.Players[id].Score+delta)
	}
	return patch.SetScoredQIndex(m.QIndex)
}

func boundElapsed(ms int, startAt, now time.Time) int {
	if ms < 0 {
		ms = 0
	}
	if !startAt.IsZero() {
		if elapsed := int(now.Sub(startAt).Milliseconds()); elapsed >= 0 && ms > elapsed {
			ms = elapsed
		}
	}
	return ms
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}

func validateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: a match needs at least one question", domain.ErrInvalidConfig)
	}
	for _, q := range questions {
		if len(q.Answers) < 2 {
			return fmt.Errorf("%w: question %s needs at least two answers", domain.ErrInvalidConfig, q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
			return fmt.Errorf("%w: question %s has no valid correct index", domain.ErrInvalidConfig, q.ID)
		}
	}
	return nil
}
