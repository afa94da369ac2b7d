// Package challenges implements the nuclear-mode challenge service: ordered
// wake-up challenges that must all be completed before a nuclear alarm can be
// dismissed.
package challenges

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"daybell/internal/domain"
)

var (
	ErrNoSession        = errors.New("no active challenge session")
	ErrUnknownChallenge = errors.New("attempt does not match the current challenge")
)

// AttemptRecorder persists challenge attempt history. Optional.
type AttemptRecorder interface {
	RecordChallengeAttempt(ctx context.Context, record domain.ChallengeAttemptRecord) error
}

// Service generates and scores challenge sessions locally.
type Service struct {
	logger   *zap.Logger
	recorder AttemptRecorder
	count    int
	rng      *rand.Rand
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	session domain.NuclearSession
	answers map[string]string
	index   int
}

// NewService creates a challenge service issuing count challenges per
// session (defaults to 3).
func NewService(logger *zap.Logger, recorder AttemptRecorder, count int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if count <= 0 {
		count = 3
	}
	return &Service{
		logger:   logger,
		recorder: recorder,
		count:    count,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		sessions: make(map[string]*sessionState),
	}
}

// StartSession creates a session with an ordered challenge list for the alarm.
func (s *Service) StartSession(_ context.Context, alarm domain.Alarm) (domain.NuclearSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &sessionState{
		session: domain.NuclearSession{
			ID:      uuid.NewString(),
			AlarmID: alarm.ID,
		},
		answers: make(map[string]string),
	}

	kinds := []domain.ChallengeType{domain.ChallengeMath, domain.ChallengeTyping, domain.ChallengeMemory}
	for i := 0; i < s.count; i++ {
		challenge, answer := s.generate(kinds[i%len(kinds)])
		state.session.Challenges = append(state.session.Challenges, challenge)
		state.answers[challenge.ID] = answer
	}

	s.sessions[state.session.ID] = state
	s.logger.Info("nuclear session started",
		zap.String("session_id", state.session.ID),
		zap.String("alarm_id", alarm.ID),
		zap.Int("challenges", len(state.session.Challenges)))
	return state.session, nil
}

// ProcessAttempt scores one attempt against the current challenge and
// reports whether the session is complete, continues, or has failed.
func (s *Service) ProcessAttempt(ctx context.Context, sessionID, challengeID string, attempt domain.ChallengeAttempt) (domain.AttemptOutcome, error) {
	s.mu.Lock()
	state, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return domain.AttemptOutcome{}, ErrNoSession
	}

	current := state.session.Challenges[state.index]
	if current.ID != challengeID {
		s.mu.Unlock()
		return domain.AttemptOutcome{}, fmt.Errorf("%w: got %s, want %s", ErrUnknownChallenge, challengeID, current.ID)
	}

	successful := attempt.Successful
	if expected := state.answers[challengeID]; expected != "" {
		successful = answersMatch(attempt.Answer, expected)
	}

	var outcome domain.AttemptOutcome
	switch {
	case !successful:
		delete(s.sessions, sessionID)
	case state.index == len(state.session.Challenges)-1:
		outcome.SessionComplete = true
		delete(s.sessions, sessionID)
	default:
		state.index++
		next := state.session.Challenges[state.index]
		outcome.ContinueSession = true
		outcome.NextChallenge = &next
	}
	alarmID := state.session.AlarmID
	s.mu.Unlock()

	s.record(ctx, domain.ChallengeAttemptRecord{
		ID:             uuid.NewString(),
		AlarmID:        alarmID,
		SessionID:      sessionID,
		ChallengeID:    challengeID,
		ChallengeType:  current.Type,
		Successful:     successful,
		TimeToComplete: attempt.TimeToComplete,
		HintsUsed:      attempt.HintsUsed,
		ErrorsMade:     attempt.ErrorsMade,
		CreatedAt:      s.now(),
	})

	return outcome, nil
}

// AbandonSession discards a session, e.g. when the controller shuts down.
func (s *Service) AbandonSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNoSession
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *Service) record(ctx context.Context, record domain.ChallengeAttemptRecord) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordChallengeAttempt(ctx, record); err != nil {
		// History is best effort; losing a row must not block dismissal.
		s.logger.Warn("failed to record challenge attempt",
			zap.String("session_id", record.SessionID),
			zap.Error(err))
	}
}

func (s *Service) generate(kind domain.ChallengeType) (domain.Challenge, string) {
	challenge := domain.Challenge{ID: uuid.NewString(), Type: kind}

	switch kind {
	case domain.ChallengeMath:
		a := 12 + s.rng.Intn(78)
		b := 12 + s.rng.Intn(78)
		challenge.Prompt = fmt.Sprintf("What is %d + %d?", a, b)
		return challenge, fmt.Sprintf("%d", a+b)

	case domain.ChallengeTyping:
		phrase := typingPhrases[s.rng.Intn(len(typingPhrases))]
		challenge.Prompt = "Type this exactly: " + phrase
		return challenge, phrase

	default:
		digits := make([]byte, 6)
		for i := range digits {
			digits[i] = byte('0' + s.rng.Intn(10))
		}
		sequence := string(digits)
		challenge.Prompt = "Memorize the sequence, then type it back."
		challenge.Data = map[string]string{"sequence": sequence}
		return challenge, sequence
	}
}

func answersMatch(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}

var typingPhrases = []string{
	"the early bird catches the worm",
	"there is no snooze button on a nuclear alarm",
	"today starts whether i am ready or not",
	"coffee first then everything else",
	"the hardest part of the morning is the first minute",
}
