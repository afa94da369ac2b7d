package ports

import (
	"context"
	"io"
	"time"

	"daybell/internal/domain"
)

// MicConfig describes how the microphone should be captured while listening
// for voice commands.
type MicConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// MicSession is a live microphone capture session.
type MicSession interface {
	io.ReadCloser
	Stop() error
}

// MicCapture creates microphone capture sessions.
type MicCapture interface {
	Start(ctx context.Context, cfg MicConfig) (MicSession, error)
}

// ToneSpec describes a synthesized fallback tone.
type ToneSpec struct {
	FrequencyHz float64
	Duration    time.Duration
	SampleRate  int
}

// PlaybackHandle is one in-flight audio playback.
type PlaybackHandle interface {
	// Done is closed when playback finishes or is stopped.
	Done() <-chan struct{}
	// Stop halts playback. Idempotent.
	Stop() error
}

// SoundPlayer plays a single audio asset or synthesized tone to completion.
type SoundPlayer interface {
	PlayFile(ctx context.Context, source string, volume int) (PlaybackHandle, error)
	PlayTone(ctx context.Context, tone ToneSpec, volume int) (PlaybackHandle, error)
}

// VoiceSynthesizer speaks one alarm message, blocking until done.
type VoiceSynthesizer interface {
	SpeakAlarmMessage(ctx context.Context, alarm domain.Alarm) error
}

// ListeningConfig describes provider-agnostic recognition settings.
type ListeningConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
	// Keywords are boosted in recognition so dismiss/snooze vocabulary
	// survives noisy wake-up audio.
	Keywords []string
}

// ListeningSession is an active speech-recognition session.
type ListeningSession interface {
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// Recognizer starts continuous speech-recognition sessions.
type Recognizer interface {
	StartListening(ctx context.Context, cfg ListeningConfig) (ListeningSession, error)
}

// IntentClassifier turns a final transcript into a voice command.
type IntentClassifier interface {
	Classify(transcript string) domain.VoiceCommand
}

// ChallengeService owns nuclear-mode sessions and challenge progression.
type ChallengeService interface {
	StartSession(ctx context.Context, alarm domain.Alarm) (domain.NuclearSession, error)
	ProcessAttempt(ctx context.Context, sessionID, challengeID string, attempt domain.ChallengeAttempt) (domain.AttemptOutcome, error)
	AbandonSession(ctx context.Context, sessionID string) error
}

// SoundStore resolves user custom sounds.
type SoundStore interface {
	GetUserCustomSounds(ctx context.Context, userID string) ([]domain.CustomSound, error)
	SaveCustomSound(ctx context.Context, sound domain.CustomSound) error
}

// Haptics fires one haptic pulse on the host platform.
type Haptics interface {
	Vibrate(duration time.Duration)
}

// EventSink emits ringing state/events to the UI.
type EventSink interface {
	RingingStateChanged(state domain.RingState, reason domain.StateReason)
	PartialTranscript(text string, confidence float64)
	CommandRecognized(command domain.VoiceCommand)
	ChallengePresented(challenge domain.Challenge, index, total int)
	Dismissed(alarmID string, method domain.DismissMethod)
	Snoozed(alarmID string)
	RingingError(code domain.ErrorCode, detail string)
}
