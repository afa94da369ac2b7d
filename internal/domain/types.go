package domain

import "time"

// SoundType selects the primary audio source for a ringing alarm.
type SoundType string

const (
	SoundTypeCustom    SoundType = "custom"
	SoundTypeBuiltIn   SoundType = "built-in"
	SoundTypeVoiceOnly SoundType = "voice-only"
)

// Difficulty controls how an alarm may be dismissed.
type Difficulty string

const (
	DifficultyNormal  Difficulty = "normal"
	DifficultyNuclear Difficulty = "nuclear"
)

// VoiceMood selects the phrasing of spoken alarm messages.
type VoiceMood string

const (
	VoiceMoodGentle        VoiceMood = "gentle"
	VoiceMoodMotivational  VoiceMood = "motivational"
	VoiceMoodDrillSergeant VoiceMood = "drill-sergeant"
)

// Alarm is the firing alarm handed to the controller by the host.
// It is immutable for the duration of one ringing session.
type Alarm struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Label         string     `json:"label"`
	SoundType     SoundType  `json:"soundType"`
	CustomSoundID string     `json:"customSoundId,omitempty"`
	SoundURL      string     `json:"soundUrl,omitempty"`
	VoiceMood     VoiceMood  `json:"voiceMood"`
	SnoozeCount   int        `json:"snoozeCount"`
	MaxSnoozes    int        `json:"maxSnoozes"`
	Difficulty    Difficulty `json:"difficulty"`
}

// RingState models the ringing lifecycle.
type RingState string

const (
	RingStateIdle             RingState = "idle"
	RingStateRinging          RingState = "ringing"
	RingStateNuclearChallenge RingState = "nuclear_challenge"
	RingStateDismissed        RingState = "dismissed"
	RingStateSnoozed          RingState = "snoozed"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonControllerReady  StateReason = "controller_ready"
	ReasonRingingStarted   StateReason = "ringing_started"
	ReasonRingingRestarted StateReason = "ringing_restarted"
	ReasonNuclearStarted   StateReason = "nuclear_session_started"
	ReasonNuclearAdvanced  StateReason = "nuclear_challenge_advanced"
	ReasonNuclearFallback  StateReason = "nuclear_fallback"
	ReasonNuclearFailed    StateReason = "nuclear_session_failed"
	ReasonVoiceToggled     StateReason = "voice_toggled"
	ReasonDismissed        StateReason = "dismissed"
	ReasonSnoozed          StateReason = "snoozed"
	ReasonShutdown         StateReason = "shutdown"
)

// ErrorCode identifies non-fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodePlayback    ErrorCode = "playback"
	ErrorCodeVoice       ErrorCode = "voice"
	ErrorCodeRecognition ErrorCode = "recognition"
	ErrorCodeNuclear     ErrorCode = "nuclear"
	ErrorCodeSnooze      ErrorCode = "snooze"
	ErrorCodeStore       ErrorCode = "store"
)

// DismissMethod identifies how an alarm was dismissed.
type DismissMethod string

const (
	DismissByVoice     DismissMethod = "voice"
	DismissByButton    DismissMethod = "button"
	DismissByShake     DismissMethod = "shake"
	DismissByChallenge DismissMethod = "challenge"
)

// CommandIntent is the classified purpose of a recognized utterance.
type CommandIntent string

const (
	IntentDismiss CommandIntent = "dismiss"
	IntentSnooze  CommandIntent = "snooze"
	IntentUnknown CommandIntent = "unknown"
)

// VoiceCommand is a classified final transcript.
type VoiceCommand struct {
	Command    string            `json:"command"`
	Intent     CommandIntent     `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

// TranscriptKind identifies whether a recognizer event is partial or final.
type TranscriptKind string

const (
	TranscriptKindPartial TranscriptKind = "partial"
	TranscriptKindFinal   TranscriptKind = "final"
)

// TranscriptEvent represents incremental recognizer output.
type TranscriptEvent struct {
	Kind       TranscriptKind `json:"kind"`
	Text       string         `json:"text"`
	Confidence float64        `json:"confidence"`
}

// ChallengeType identifies a nuclear-mode challenge flavor.
type ChallengeType string

const (
	ChallengeMath   ChallengeType = "math"
	ChallengeTyping ChallengeType = "typing"
	ChallengeMemory ChallengeType = "memory"
)

// Challenge is one step of a nuclear session. The controller treats it as
// opaque beyond its identity; Prompt and Data are for the UI.
type Challenge struct {
	ID     string            `json:"id"`
	Type   ChallengeType     `json:"type"`
	Prompt string            `json:"prompt"`
	Data   map[string]string `json:"data,omitempty"`
}

// NuclearSession is an active escalated-dismissal session.
type NuclearSession struct {
	ID         string      `json:"id"`
	AlarmID    string      `json:"alarmId"`
	Challenges []Challenge `json:"challenges"`
}

// ChallengeAttempt reports one completed challenge attempt.
type ChallengeAttempt struct {
	Answer         string        `json:"answer"`
	Successful     bool          `json:"successful"`
	TimeToComplete time.Duration `json:"timeToComplete"`
	HintsUsed      int           `json:"hintsUsed"`
	ErrorsMade     int           `json:"errorsMade"`
}

// AttemptOutcome is the challenge service's verdict for one attempt.
// Neither flag set means the session failed.
type AttemptOutcome struct {
	SessionComplete bool       `json:"sessionComplete"`
	ContinueSession bool       `json:"continueSession"`
	NextChallenge   *Challenge `json:"nextChallenge,omitempty"`
}

// ChallengeAttemptRecord is the persisted history entry for one attempt.
type ChallengeAttemptRecord struct {
	ID             string        `json:"id"`
	AlarmID        string        `json:"alarmId"`
	SessionID      string        `json:"sessionId"`
	ChallengeID    string        `json:"challengeId"`
	ChallengeType  ChallengeType `json:"challengeType"`
	Successful     bool          `json:"successful"`
	TimeToComplete time.Duration `json:"timeToComplete"`
	HintsUsed      int           `json:"hintsUsed"`
	ErrorsMade     int           `json:"errorsMade"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// CustomSound is a user-uploaded alarm sound.
type CustomSound struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	FileURL   string    `json:"fileUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status summarizes the current ringing session for the UI.
type Status struct {
	State         RingState `json:"state"`
	AlarmID       string    `json:"alarmId,omitempty"`
	Active        bool      `json:"active"`
	IsPlaying     bool      `json:"isPlaying"`
	VoiceEnabled  bool      `json:"voiceEnabled"`
	IsListening   bool      `json:"isListening"`
	NuclearActive bool      `json:"nuclearActive"`
	SnoozesUsed   int       `json:"snoozesUsed"`
	Message       string    `json:"message,omitempty"`
}
