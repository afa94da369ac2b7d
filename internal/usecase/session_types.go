package usecase

import (
	"context"
	"sync"

	"daybell/internal/domain"
)

// ringingSession is the live state for one firing alarm. Exactly one exists
// per controller at a time; every goroutine it owns is cancelled through ctx
// and tracked by a done channel so teardown can wait for all of them.
type ringingSession struct {
	alarm  domain.Alarm
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        domain.RingState
	voiceEnabled bool
	isPlaying    bool
	isListening  bool
	finished     bool
	nuclear      *nuclearRun

	vibrateDone chan struct{}
	audio       *taskRun
	listen      *taskRun
}

// taskRun is a cancellable session-scoped task: the playback chain or the
// voice listener.
type taskRun struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// nuclearRun tracks the active challenge session and the current challenge
// pointer.
type nuclearRun struct {
	session domain.NuclearSession
	index   int
}

func newRingingSession(ctx context.Context, alarm domain.Alarm) *ringingSession {
	sessionCtx, cancel := context.WithCancel(ctx)
	return &ringingSession{
		alarm:        alarm,
		ctx:          sessionCtx,
		cancel:       cancel,
		state:        domain.RingStateIdle,
		voiceEnabled: true,
	}
}

func (s *ringingSession) setState(state domain.RingState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *ringingSession) getState() domain.RingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// beginFinish marks the session finished; only the first caller proceeds, so
// dismiss/snooze/teardown cannot race each other.
func (s *ringingSession) beginFinish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	s.finished = true
	return true
}

func (s *ringingSession) isFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *ringingSession) voiceOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceEnabled
}

func (s *ringingSession) toggleVoice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceEnabled = !s.voiceEnabled
	return s.voiceEnabled
}

func (s *ringingSession) setPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPlaying = playing
}

func (s *ringingSession) setListening(listening bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isListening = listening
}

func (s *ringingSession) setNuclear(run *nuclearRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nuclear = run
}

func (s *ringingSession) nuclearState() *nuclearRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nuclear
}

// currentChallenge snapshots the challenge the session is waiting on.
func (s *ringingSession) currentChallenge() (sessionID string, challenge domain.Challenge, total int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nuclear == nil {
		return "", domain.Challenge{}, 0, false
	}
	return s.nuclear.session.ID, s.nuclear.session.Challenges[s.nuclear.index], len(s.nuclear.session.Challenges), true
}

func (s *ringingSession) nuclearActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nuclear != nil
}

// advanceChallenge moves the pointer to next, matching by ID when the
// service returns a challenge from the known list. The service may also hand
// out a replacement that was not in the opening list; it is appended so the
// pointer always stays in bounds. Returns the new index and list length.
func (s *ringingSession) advanceChallenge(next domain.Challenge) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nuclear == nil {
		return 0, 0
	}
	for i, challenge := range s.nuclear.session.Challenges {
		if challenge.ID == next.ID {
			s.nuclear.index = i
			return i, len(s.nuclear.session.Challenges)
		}
	}
	s.nuclear.session.Challenges = append(s.nuclear.session.Challenges, next)
	s.nuclear.index = len(s.nuclear.session.Challenges) - 1
	return s.nuclear.index, len(s.nuclear.session.Challenges)
}

func (s *ringingSession) status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Status{
		State:         s.state,
		AlarmID:       s.alarm.ID,
		Active:        !s.finished,
		IsPlaying:     s.isPlaying,
		VoiceEnabled:  s.voiceEnabled,
		IsListening:   s.isListening,
		NuclearActive: s.nuclear != nil,
		SnoozesUsed:   s.alarm.SnoozeCount,
	}
}
