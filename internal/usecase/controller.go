// Package usecase contains the ringing controller: the state machine that
// runs audio, vibration, voice dismissal, and nuclear-mode challenges for
// one firing alarm at a time.
package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"daybell/internal/domain"
	"daybell/internal/ports"
)

var (
	ErrNoActiveAlarm          = errors.New("no alarm is ringing")
	ErrSnoozeNotAllowed       = errors.New("snoozing is not allowed for this alarm")
	ErrNoChallengeSession     = errors.New("no active nuclear challenge session")
	ErrVoiceToggleUnavailable = errors.New("voice cannot be toggled during a challenge")
)

// commandConfidenceThreshold is the minimum effective confidence a classified
// voice command needs before it drives a dismiss or snooze.
const commandConfidenceThreshold = 0.5

// Config tunes the ringing loops. Zero values fall back to defaults.
type Config struct {
	Listening ports.ListeningConfig
	Volume    int

	VibrateEvery time.Duration
	VibratePulse time.Duration

	// SoundRepeatGap is the pause between repeats of the alarm sound.
	SoundRepeatGap time.Duration
	// VoiceOnlyInterval paces spoken messages when voice is the primary sound.
	VoiceOnlyInterval time.Duration
	// VoiceSecondaryInterval paces spoken messages layered over a sound.
	VoiceSecondaryInterval time.Duration
	// BeepInterval paces the synthesized fallback beep.
	BeepInterval time.Duration
	BeepTone     ports.ToneSpec
}

func (c *Config) applyDefaults() {
	if c.Volume <= 0 {
		c.Volume = 100
	}
	if c.VibrateEvery <= 0 {
		c.VibrateEvery = 2 * time.Second
	}
	if c.VibratePulse <= 0 {
		c.VibratePulse = 400 * time.Millisecond
	}
	if c.SoundRepeatGap <= 0 {
		c.SoundRepeatGap = 3 * time.Second
	}
	if c.VoiceOnlyInterval <= 0 {
		c.VoiceOnlyInterval = 30 * time.Second
	}
	if c.VoiceSecondaryInterval <= 0 {
		c.VoiceSecondaryInterval = 45 * time.Second
	}
	if c.BeepInterval <= 0 {
		c.BeepInterval = 2 * time.Second
	}
	if c.BeepTone.FrequencyHz <= 0 {
		c.BeepTone = ports.ToneSpec{
			FrequencyHz: 800,
			Duration:    500 * time.Millisecond,
			SampleRate:  16000,
		}
	}
}

// Deps collects the controller's collaborators.
type Deps struct {
	Player     ports.SoundPlayer
	Speaker    ports.VoiceSynthesizer
	Recognizer ports.Recognizer
	Classifier ports.IntentClassifier
	Challenges ports.ChallengeService
	Sounds     ports.SoundStore
	Haptics    ports.Haptics
	Events     ports.EventSink
	Logger     *zap.Logger
}

// RingingController drives at most one ringing session at a time.
type RingingController struct {
	deps Deps
	cfg  Config

	mu      sync.Mutex
	current *ringingSession
}

func NewRingingController(deps Deps, cfg Config) *RingingController {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg.applyDefaults()
	return &RingingController{deps: deps, cfg: cfg}
}

// Start begins ringing for alarm. A session already in flight is torn down
// first; the new alarm then rings as a restart.
func (c *RingingController) Start(ctx context.Context, alarm domain.Alarm) error {
	c.mu.Lock()
	previous := c.current
	c.current = nil
	c.mu.Unlock()

	reason := domain.ReasonRingingStarted
	if previous != nil {
		c.deps.Logger.Warn("replacing in-flight ringing session",
			zap.String("previous_alarm_id", previous.alarm.ID),
			zap.String("alarm_id", alarm.ID))
		c.stopSession(previous)
		reason = domain.ReasonRingingRestarted
	}

	session := newRingingSession(ctx, alarm)
	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.deps.Logger.Info("ringing started",
		zap.String("alarm_id", alarm.ID),
		zap.String("sound_type", string(alarm.SoundType)),
		zap.String("difficulty", string(alarm.Difficulty)))

	c.startVibration(session)

	if alarm.Difficulty == domain.DifficultyNuclear {
		if c.startNuclear(ctx, session) {
			return nil
		}
		// Challenge service unavailable: ring normally so the user still
		// wakes up, but snoozing stays disabled for nuclear alarms.
		reason = domain.ReasonNuclearFallback
	}

	c.startNormalRinging(session, reason)
	return nil
}

// startNormalRinging brings up audio and the voice listener and announces the
// ringing state. Safe to call again after a failed nuclear session.
func (c *RingingController) startNormalRinging(session *ringingSession, reason domain.StateReason) {
	session.setState(domain.RingStateRinging)
	c.startAudio(session)
	c.startListening(session)
	c.deps.Events.RingingStateChanged(domain.RingStateRinging, reason)
}

// Dismiss ends the session. Idempotent: a second call, or a dismiss racing a
// snooze, is a no-op.
func (c *RingingController) Dismiss(method domain.DismissMethod) error {
	session := c.getCurrent()
	if session == nil {
		return ErrNoActiveAlarm
	}
	if !session.beginFinish() {
		return nil
	}

	alarmID := session.alarm.ID
	c.deps.Logger.Info("alarm dismissed",
		zap.String("alarm_id", alarmID),
		zap.String("method", string(method)))

	c.teardown(session)
	c.abandonNuclear(session)
	session.setState(domain.RingStateDismissed)
	c.clearCurrent(session)

	c.deps.Events.RingingStateChanged(domain.RingStateDismissed, domain.ReasonDismissed)
	c.deps.Events.Dismissed(alarmID, method)
	return nil
}

// Snooze ends the session as snoozed. Nuclear alarms cannot snooze, even
// when the challenge service failed and the alarm is ringing normally.
func (c *RingingController) Snooze() error {
	session := c.getCurrent()
	if session == nil {
		return ErrNoActiveAlarm
	}

	if reason := c.snoozeRejection(session); reason != "" {
		c.deps.Logger.Warn("snooze rejected",
			zap.String("alarm_id", session.alarm.ID),
			zap.String("reason", reason))
		c.deps.Events.RingingError(domain.ErrorCodeSnooze, reason)
		return ErrSnoozeNotAllowed
	}

	if !session.beginFinish() {
		return nil
	}

	alarmID := session.alarm.ID
	c.deps.Logger.Info("alarm snoozed", zap.String("alarm_id", alarmID))

	c.teardown(session)
	session.setState(domain.RingStateSnoozed)
	c.clearCurrent(session)

	c.deps.Events.RingingStateChanged(domain.RingStateSnoozed, domain.ReasonSnoozed)
	c.deps.Events.Snoozed(alarmID)
	return nil
}

func (c *RingingController) snoozeRejection(session *ringingSession) string {
	if session.alarm.Difficulty == domain.DifficultyNuclear {
		return "snoozing is disabled for nuclear alarms"
	}
	alarm := session.alarm
	if alarm.MaxSnoozes > 0 && alarm.SnoozeCount >= alarm.MaxSnoozes {
		return "snooze limit reached"
	}
	return ""
}

// ToggleVoice flips voice interaction: spoken playback and command listening
// together. Disabling pauses the listener and rebuilds the playback chain
// without the voice tiers; enabling restores both. Returns the new value.
func (c *RingingController) ToggleVoice() (bool, error) {
	session := c.getCurrent()
	if session == nil {
		return false, ErrNoActiveAlarm
	}
	if session.getState() == domain.RingStateNuclearChallenge {
		return session.voiceOn(), ErrVoiceToggleUnavailable
	}

	enabled := session.toggleVoice()
	c.deps.Logger.Info("voice toggled",
		zap.String("alarm_id", session.alarm.ID),
		zap.Bool("enabled", enabled))

	c.stopAudio(session)
	if !enabled {
		c.stopListening(session)
	}
	if !session.isFinished() {
		c.startAudio(session)
		if enabled {
			c.startListening(session)
		}
	}
	c.deps.Events.RingingStateChanged(session.getState(), domain.ReasonVoiceToggled)
	return enabled, nil
}

// Status reports the current session, or an idle status when nothing rings.
func (c *RingingController) Status() domain.Status {
	session := c.getCurrent()
	if session == nil {
		return domain.Status{State: domain.RingStateIdle}
	}
	return session.status()
}

// Shutdown tears down any in-flight session without emitting dismissal or
// snooze events; the host is closing, not the user acting.
func (c *RingingController) Shutdown() {
	c.mu.Lock()
	session := c.current
	c.current = nil
	c.mu.Unlock()
	if session == nil {
		return
	}
	c.deps.Logger.Info("shutting down ringing session", zap.String("alarm_id", session.alarm.ID))
	c.stopSession(session)
}

// stopSession silently finishes and tears down a session.
func (c *RingingController) stopSession(session *ringingSession) {
	session.beginFinish()
	c.teardown(session)
	c.abandonNuclear(session)
	session.setState(domain.RingStateIdle)
}

// teardown cancels the session context and waits for every session goroutine.
func (c *RingingController) teardown(session *ringingSession) {
	session.cancel()

	c.mu.Lock()
	vibrate := session.vibrateDone
	audio := session.audio
	listen := session.listen
	session.audio = nil
	session.listen = nil
	c.mu.Unlock()

	if audio != nil {
		<-audio.done
	}
	if listen != nil {
		<-listen.done
	}
	if vibrate != nil {
		<-vibrate
	}
}

func (c *RingingController) abandonNuclear(session *ringingSession) {
	nuc := session.nuclearState()
	if nuc == nil {
		return
	}
	session.setNuclear(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.deps.Challenges.AbandonSession(ctx, nuc.session.ID); err != nil {
		c.deps.Logger.Debug("abandoning nuclear session",
			zap.String("session_id", nuc.session.ID),
			zap.Error(err))
	}
}

func (c *RingingController) startVibration(session *ringingSession) {
	done := make(chan struct{})
	c.mu.Lock()
	session.vibrateDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.cfg.VibrateEvery)
		defer ticker.Stop()

		c.deps.Haptics.Vibrate(c.cfg.VibratePulse)
		for {
			select {
			case <-ticker.C:
				c.deps.Haptics.Vibrate(c.cfg.VibratePulse)
			case <-session.ctx.Done():
				return
			}
		}
	}()
}

func (c *RingingController) startAudio(session *ringingSession) {
	ctx, cancel := context.WithCancel(session.ctx)
	run := &taskRun{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	session.audio = run
	c.mu.Unlock()

	session.setPlaying(true)
	go func() {
		defer close(run.done)
		defer session.setPlaying(false)
		c.runPlaybackChain(ctx, session)
	}()
}

// stopAudio halts the playback chain and waits for it, leaving the rest of
// the session running.
func (c *RingingController) stopAudio(session *ringingSession) {
	c.mu.Lock()
	run := session.audio
	session.audio = nil
	c.mu.Unlock()
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

func (c *RingingController) startListening(session *ringingSession) {
	c.mu.Lock()
	if session.listen != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(session.ctx)
	run := &taskRun{cancel: cancel, done: make(chan struct{})}
	session.listen = run
	c.mu.Unlock()

	go func() {
		defer close(run.done)
		c.runListener(ctx, session)
	}()
}

// stopListening halts the voice listener and waits for it.
func (c *RingingController) stopListening(session *ringingSession) {
	c.mu.Lock()
	run := session.listen
	session.listen = nil
	c.mu.Unlock()
	if run == nil {
		return
	}
	run.cancel()
	<-run.done
}

func (c *RingingController) getCurrent() *ringingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// clearCurrent drops the session if it is still the active one.
func (c *RingingController) clearCurrent(session *ringingSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == session {
		c.current = nil
	}
}

// sleepCtx waits for d; reports false when ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
