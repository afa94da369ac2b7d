package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"daybell/internal/domain"
)

// playbackTier is one rung of the audio fallback ladder. run returns nil when
// playback ended because the session stopped, or an error to fall through to
// the next tier.
type playbackTier struct {
	name string
	run  func(ctx context.Context) error
}

// runPlaybackChain walks the tiers in order until one of them carries the
// session to the end. The final beep tier never fails, so something always
// plays.
func (c *RingingController) runPlaybackChain(ctx context.Context, session *ringingSession) {
	for _, tier := range c.buildTiers(session) {
		if ctx.Err() != nil {
			return
		}
		err := tier.run(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		c.deps.Logger.Warn("playback tier failed, falling back",
			zap.String("alarm_id", session.alarm.ID),
			zap.String("tier", tier.name),
			zap.Error(err))
		c.deps.Events.RingingError(domain.ErrorCodePlayback, fmt.Sprintf("%s: %v", tier.name, err))
	}
}

// buildTiers assembles the fallback order for the session's alarm:
// custom or built-in sound, then spoken messages, then the synthesized beep.
// The voice tier is skipped when voice output is off.
func (c *RingingController) buildTiers(session *ringingSession) []playbackTier {
	alarm := session.alarm
	var tiers []playbackTier

	switch alarm.SoundType {
	case domain.SoundTypeCustom:
		tiers = append(tiers, playbackTier{
			name: "custom-sound",
			run:  func(ctx context.Context) error { return c.runCustomSound(ctx, session) },
		})
	case domain.SoundTypeBuiltIn:
		tiers = append(tiers, playbackTier{
			name: "built-in-sound",
			run:  func(ctx context.Context) error { return c.runBuiltInSound(ctx, session) },
		})
	}

	if session.voiceOn() {
		tiers = append(tiers, playbackTier{
			name: "voice-message",
			run: func(ctx context.Context) error {
				return c.repeatVoice(ctx, alarm, c.cfg.VoiceOnlyInterval)
			},
		})
	}

	tiers = append(tiers, playbackTier{
		name: "fallback-beep",
		run:  func(ctx context.Context) error { return c.runFallbackBeep(ctx) },
	})
	return tiers
}

// runCustomSound resolves the user's uploaded sound and loops it. Any
// resolution failure falls through to the next tier.
func (c *RingingController) runCustomSound(ctx context.Context, session *ringingSession) error {
	alarm := session.alarm
	if alarm.CustomSoundID == "" {
		return errors.New("alarm has no custom sound id")
	}

	sounds, err := c.deps.Sounds.GetUserCustomSounds(ctx, alarm.UserID)
	if err != nil {
		return fmt.Errorf("failed to load custom sounds: %w", err)
	}
	for _, sound := range sounds {
		if sound.ID == alarm.CustomSoundID {
			return c.loopSound(ctx, session, sound.FileURL)
		}
	}
	return fmt.Errorf("custom sound %q not found", alarm.CustomSoundID)
}

func (c *RingingController) runBuiltInSound(ctx context.Context, session *ringingSession) error {
	if session.alarm.SoundURL == "" {
		return errors.New("alarm has no built-in sound url")
	}
	return c.loopSound(ctx, session, session.alarm.SoundURL)
}

// loopSound plays source on repeat with a short gap. When voice output is on
// it layers periodic spoken messages over the sound; the spoken layer is
// bonus material, its failure only logs.
func (c *RingingController) loopSound(ctx context.Context, session *ringingSession, source string) error {
	if session.voiceOn() {
		voiceCtx, cancelVoice := context.WithCancel(ctx)
		voiceDone := make(chan struct{})
		go func() {
			defer close(voiceDone)
			if err := c.repeatVoice(voiceCtx, session.alarm, c.cfg.VoiceSecondaryInterval); err != nil {
				c.deps.Logger.Warn("secondary voice messages stopped",
					zap.String("alarm_id", session.alarm.ID),
					zap.Error(err))
			}
		}()
		defer func() {
			cancelVoice()
			<-voiceDone
		}()
	}

	for {
		handle, err := c.deps.Player.PlayFile(ctx, source, c.cfg.Volume)
		if err != nil {
			return fmt.Errorf("failed to play %q: %w", source, err)
		}
		select {
		case <-handle.Done():
		case <-ctx.Done():
			_ = handle.Stop()
			<-handle.Done()
			return nil
		}
		if !sleepCtx(ctx, c.cfg.SoundRepeatGap) {
			return nil
		}
	}
}

// repeatVoice speaks the alarm message on a fixed cadence until ctx ends.
// The first synthesis failure is returned so the chain can fall back.
func (c *RingingController) repeatVoice(ctx context.Context, alarm domain.Alarm, interval time.Duration) error {
	for {
		if err := c.deps.Speaker.SpeakAlarmMessage(ctx, alarm); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("voice synthesis failed: %w", err)
		}
		if !sleepCtx(ctx, interval) {
			return nil
		}
	}
}

// runFallbackBeep plays the synthesized tone on a fixed cadence. It is the
// last tier and never gives up; a player error just waits out the interval
// and tries again.
func (c *RingingController) runFallbackBeep(ctx context.Context) error {
	for {
		handle, err := c.deps.Player.PlayTone(ctx, c.cfg.BeepTone, c.cfg.Volume)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.deps.Logger.Error("fallback beep failed", zap.Error(err))
		} else {
			select {
			case <-handle.Done():
			case <-ctx.Done():
				_ = handle.Stop()
				<-handle.Done()
				return nil
			}
		}
		if !sleepCtx(ctx, c.cfg.BeepInterval) {
			return nil
		}
	}
}
