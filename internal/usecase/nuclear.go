package usecase

import (
	"context"

	"go.uber.org/zap"

	"daybell/internal/domain"
)

// startNuclear opens a challenge session and enters the challenge state.
// Returns false when the challenge service cannot supply a session, in which
// case the caller falls back to normal ringing.
func (c *RingingController) startNuclear(ctx context.Context, session *ringingSession) bool {
	nuclearSession, err := c.deps.Challenges.StartSession(ctx, session.alarm)
	if err != nil || len(nuclearSession.Challenges) == 0 {
		c.deps.Logger.Warn("nuclear session unavailable, ringing normally",
			zap.String("alarm_id", session.alarm.ID),
			zap.Error(err))
		c.deps.Events.RingingError(domain.ErrorCodeNuclear, "challenge service unavailable")
		return false
	}

	session.setNuclear(&nuclearRun{session: nuclearSession})
	session.setState(domain.RingStateNuclearChallenge)

	// Vibration keeps running during challenges; audio and voice commands
	// stay off so the user can focus.
	c.deps.Events.RingingStateChanged(domain.RingStateNuclearChallenge, domain.ReasonNuclearStarted)
	c.deps.Events.ChallengePresented(nuclearSession.Challenges[0], 0, len(nuclearSession.Challenges))

	c.deps.Logger.Info("nuclear session started",
		zap.String("alarm_id", session.alarm.ID),
		zap.String("session_id", nuclearSession.ID),
		zap.Int("challenges", len(nuclearSession.Challenges)))
	return true
}

// SubmitChallengeAttempt scores one challenge attempt. Completing the final
// challenge dismisses the alarm; a failed attempt or a challenge-service
// error fails the session and resumes normal ringing.
func (c *RingingController) SubmitChallengeAttempt(ctx context.Context, attempt domain.ChallengeAttempt) error {
	session := c.getCurrent()
	if session == nil {
		return ErrNoActiveAlarm
	}
	sessionID, current, _, ok := session.currentChallenge()
	if !ok {
		return ErrNoChallengeSession
	}

	outcome, err := c.deps.Challenges.ProcessAttempt(ctx, sessionID, current.ID, attempt)
	if err != nil {
		c.deps.Logger.Error("challenge attempt failed to process",
			zap.String("session_id", sessionID),
			zap.String("challenge_id", current.ID),
			zap.Error(err))
		c.deps.Events.RingingError(domain.ErrorCodeNuclear, err.Error())
		c.failNuclear(session)
		return nil
	}

	switch {
	case outcome.SessionComplete:
		session.setNuclear(nil)
		return c.Dismiss(domain.DismissByChallenge)

	case outcome.ContinueSession && outcome.NextChallenge != nil:
		index, total := session.advanceChallenge(*outcome.NextChallenge)
		c.deps.Events.ChallengePresented(*outcome.NextChallenge, index, total)
		c.deps.Events.RingingStateChanged(domain.RingStateNuclearChallenge, domain.ReasonNuclearAdvanced)
		return nil

	default:
		c.failNuclear(session)
		return nil
	}
}

// failNuclear exits challenge mode and resumes normal ringing within the
// same session. The alarm stays nuclear, so snoozing remains blocked.
func (c *RingingController) failNuclear(session *ringingSession) {
	session.setNuclear(nil)
	if session.isFinished() {
		return
	}
	c.deps.Logger.Warn("nuclear session failed, resuming ringing",
		zap.String("alarm_id", session.alarm.ID))
	c.startNormalRinging(session, domain.ReasonNuclearFailed)
}
