package main

import (
	"errors"
	"testing"

	"daybell/internal/domain"
)

func TestReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.StateReason]string{
		domain.ReasonControllerReady:  "Ready",
		domain.ReasonRingingStarted:   "Alarm ringing",
		domain.ReasonRingingRestarted: "Alarm ringing; previous alarm replaced",
		domain.ReasonNuclearStarted:   "Complete all challenges to dismiss",
		domain.ReasonNuclearAdvanced:  "Challenge complete. Keep going",
		domain.ReasonNuclearFallback:  "Challenges unavailable; alarm ringing",
		domain.ReasonNuclearFailed:    "Challenge failed; alarm ringing",
		domain.ReasonVoiceToggled:     "Voice setting changed",
		domain.ReasonDismissed:        "Alarm dismissed",
		domain.ReasonSnoozed:          "Alarm snoozed",
		domain.ReasonShutdown:         "Shutting down",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := reasonMessage(reason); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := reasonMessage("unknown"); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:     "Startup failed",
		domain.ErrorCodePlayback:    "Audio playback issue",
		domain.ErrorCodeVoice:       "Voice synthesis issue",
		domain.ErrorCodeRecognition: "Voice recognition unavailable",
		domain.ErrorCodeNuclear:     "Challenge service issue",
		domain.ErrorCodeSnooze:      "Snooze not allowed",
		domain.ErrorCodeStore:       "Sound library unavailable",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatal("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestGetStatusBeforeStartup(t *testing.T) {
	t.Parallel()

	app := &App{}
	status := app.GetStatus()
	if status.State != domain.RingStateIdle || status.Active {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot failed")
	status = app.GetStatus()
	if status.Message != "boot failed" {
		t.Fatalf("expected boot error message, got %q", status.Message)
	}
}

func TestGetRuntimeInfoSurfacesBootError(t *testing.T) {
	t.Parallel()

	app := &App{bootErr: errors.New("boot failed")}
	info := app.GetRuntimeInfo()
	if info["error"] != "boot failed" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestDismissAlarmRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.DismissAlarm("self-destruct"); err == nil {
		t.Fatal("expected unsupported method error")
	}
	// Valid methods still hit the readiness gate before startup.
	if err := app.DismissAlarm("button"); err == nil {
		t.Fatal("expected uninitialized error")
	}
}
