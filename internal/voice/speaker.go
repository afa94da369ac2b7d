package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"daybell/internal/domain"
)

// CommandSpeaker speaks alarm messages through a text-to-speech command
// (espeak on Linux, say on macOS).
type CommandSpeaker struct {
	command string
	args    []string
	now     func() time.Time
}

func NewCommandSpeaker(command string, args ...string) *CommandSpeaker {
	if command == "" {
		command = "espeak"
	}
	return &CommandSpeaker{command: command, args: args, now: time.Now}
}

// SpeakAlarmMessage composes and speaks one message, blocking until the
// utterance finishes or ctx is canceled.
func (s *CommandSpeaker) SpeakAlarmMessage(ctx context.Context, alarm domain.Alarm) error {
	message := ComposeMessage(alarm, s.now())

	args := append(append([]string(nil), s.args...), message)
	cmd := exec.CommandContext(ctx, s.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("speech synthesis failed: %w: %s", err, detail)
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// ComposeMessage builds the spoken wake-up message for the alarm's mood.
func ComposeMessage(alarm domain.Alarm, now time.Time) string {
	clock := now.Format("3:04 PM")
	label := strings.TrimSpace(alarm.Label)
	if label == "" {
		label = "your alarm"
	}

	switch alarm.VoiceMood {
	case domain.VoiceMoodGentle:
		return fmt.Sprintf("Good morning. It's %s. Time to wake up for %s.", clock, label)
	case domain.VoiceMoodMotivational:
		return fmt.Sprintf("Rise and shine! It's %s and today is yours. %s is calling!", clock, label)
	case domain.VoiceMoodDrillSergeant:
		return fmt.Sprintf("Up! Right now! It is %s and %s will not wait for you!", clock, label)
	default:
		return fmt.Sprintf("It's %s. Time for %s.", clock, label)
	}
}
