package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"daybell/internal/bootstrap"
	"daybell/internal/config"
	"daybell/internal/domain"
	"daybell/internal/store"
	"daybell/internal/usecase"
)

const (
	eventState     = "daybell:state"
	eventPartial   = "daybell:partial"
	eventCommand   = "daybell:command"
	eventChallenge = "daybell:challenge"
	eventDismissed = "daybell:dismissed"
	eventSnoozed   = "daybell:snoozed"
	eventError     = "daybell:error"
	eventVibrate   = "daybell:vibrate"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.RingingController
	store      *store.Store
	cfg        config.Config
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, &wailsHaptics{app: a})
	if err != nil {
		a.bootErr = err
		a.RingingError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller
	a.store = services.Store
	a.RingingStateChanged(domain.RingStateIdle, domain.ReasonControllerReady)
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Shutdown()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// StartRinging begins ringing for the given alarm.
func (a *App) StartRinging(alarm domain.Alarm) (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if alarm.ID == "" {
		return domain.Status{}, fmt.Errorf("alarm has no id")
	}
	if err := a.controller.Start(a.ctx, alarm); err != nil {
		a.RingingError(domain.ErrorCodeStartup, err.Error())
		return domain.Status{}, err
	}
	return a.controller.Status(), nil
}

// DismissAlarm dismisses the ringing alarm from a UI affordance.
func (a *App) DismissAlarm(method string) error {
	switch domain.DismissMethod(method) {
	case domain.DismissByButton, domain.DismissByShake:
	default:
		return fmt.Errorf("unsupported dismiss method %q", method)
	}
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Dismiss(domain.DismissMethod(method))
}

// SnoozeAlarm snoozes the ringing alarm.
func (a *App) SnoozeAlarm() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.Snooze()
}

// ToggleVoice flips voice playback and voice command listening.
func (a *App) ToggleVoice() (bool, error) {
	if err := a.requireReady(); err != nil {
		return false, err
	}
	return a.controller.ToggleVoice()
}

// SubmitChallengeAttempt scores one nuclear challenge attempt.
func (a *App) SubmitChallengeAttempt(attempt domain.ChallengeAttempt) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SubmitChallengeAttempt(a.ctx, attempt)
}

// GetStatus returns the current ringing status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		status := domain.Status{State: domain.RingStateIdle}
		if a.bootErr != nil {
			status.Message = a.bootErr.Error()
		}
		return status
	}
	return a.controller.Status()
}

// ListCustomSounds returns the user's uploaded alarm sounds.
func (a *App) ListCustomSounds(userID string) ([]domain.CustomSound, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.store.GetUserCustomSounds(a.ctx, userID)
}

// SaveCustomSound stores an uploaded alarm sound.
func (a *App) SaveCustomSound(sound domain.CustomSound) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.store.SaveCustomSound(a.ctx, sound)
}

// ListChallengeAttempts returns the nuclear attempt history for an alarm.
func (a *App) ListChallengeAttempts(alarmID string) ([]domain.ChallengeAttemptRecord, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.store.ListChallengeAttempts(a.ctx, alarmID)
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"provider":     "Deepgram",
		"model":        a.cfg.Deepgram.Model,
		"language":     a.cfg.Deepgram.Language,
		"rulesFile":    a.cfg.Rules.Path,
		"player":       a.cfg.Audio.PlayerCommand,
		"speaker":      a.cfg.Voice.SpeakCommand,
		"audioInput":   a.cfg.Audio.InputDevice,
		"databasePath": a.cfg.Store.Path,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// RingingStateChanged emits ringing lifecycle updates to the frontend.
func (a *App) RingingStateChanged(state domain.RingState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": reasonMessage(reason),
	})
}

// PartialTranscript emits live partial recognition text.
func (a *App) PartialTranscript(text string, confidence float64) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPartial, map[string]string{
		"text":       text,
		"confidence": strconv.FormatFloat(confidence, 'f', 2, 64),
	})
}

// CommandRecognized emits classified voice commands.
func (a *App) CommandRecognized(command domain.VoiceCommand) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCommand, command)
}

// ChallengePresented emits the challenge the user must complete next.
func (a *App) ChallengePresented(challenge domain.Challenge, index, total int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventChallenge, map[string]interface{}{
		"challenge": challenge,
		"index":     index,
		"total":     total,
	})
}

// Dismissed reports the dismissal outcome to the host UI.
func (a *App) Dismissed(alarmID string, method domain.DismissMethod) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDismissed, map[string]string{
		"alarmId": alarmID,
		"method":  string(method),
	})
}

// Snoozed reports the snooze outcome to the host UI.
func (a *App) Snoozed(alarmID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSnoozed, map[string]string{"alarmId": alarmID})
}

// RingingError emits backend errors to the UI.
func (a *App) RingingError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func reasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonControllerReady:
		return "Ready"
	case domain.ReasonRingingStarted:
		return "Alarm ringing"
	case domain.ReasonRingingRestarted:
		return "Alarm ringing; previous alarm replaced"
	case domain.ReasonNuclearStarted:
		return "Complete all challenges to dismiss"
	case domain.ReasonNuclearAdvanced:
		return "Challenge complete. Keep going"
	case domain.ReasonNuclearFallback:
		return "Challenges unavailable; alarm ringing"
	case domain.ReasonNuclearFailed:
		return "Challenge failed; alarm ringing"
	case domain.ReasonVoiceToggled:
		return "Voice setting changed"
	case domain.ReasonDismissed:
		return "Alarm dismissed"
	case domain.ReasonSnoozed:
		return "Alarm snoozed"
	case domain.ReasonShutdown:
		return "Shutting down"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodePlayback:
		return "Audio playback issue"
	case domain.ErrorCodeVoice:
		return "Voice synthesis issue"
	case domain.ErrorCodeRecognition:
		return "Voice recognition unavailable"
	case domain.ErrorCodeNuclear:
		return "Challenge service issue"
	case domain.ErrorCodeSnooze:
		return "Snooze not allowed"
	case domain.ErrorCodeStore:
		return "Sound library unavailable"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

// wailsHaptics forwards vibration pulses to the frontend, which drives the
// platform vibration API.
type wailsHaptics struct {
	app *App
}

func (h *wailsHaptics) Vibrate(duration time.Duration) {
	if h.app.ctx == nil {
		return
	}
	runtime.EventsEmit(h.app.ctx, eventVibrate, map[string]int64{
		"durationMs": duration.Milliseconds(),
	})
}
