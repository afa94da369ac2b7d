package usecase

import (
	"context"

	"go.uber.org/zap"

	"daybell/internal/domain"
)

// runListener consumes a recognition session until the ringing session ends.
// Partial transcripts stream to the UI; final transcripts are classified and
// routed into the state machine.
func (c *RingingController) runListener(ctx context.Context, session *ringingSession) {
	listening, err := c.deps.Recognizer.StartListening(ctx, c.cfg.Listening)
	if err != nil {
		c.deps.Logger.Warn("voice listening unavailable",
			zap.String("alarm_id", session.alarm.ID),
			zap.Error(err))
		c.deps.Events.RingingError(domain.ErrorCodeRecognition, err.Error())
		return
	}

	session.setListening(true)
	defer session.setListening(false)

	// The recognizer owns its transport; closing it is how we unblock the
	// event loop below when the session ends.
	go func() {
		<-ctx.Done()
		_ = listening.Close()
	}()

	for event := range listening.Events() {
		switch event.Kind {
		case domain.TranscriptKindPartial:
			c.deps.Events.PartialTranscript(event.Text, event.Confidence)
		case domain.TranscriptKindFinal:
			c.routeTranscript(session, event)
		}
	}

	if err := listening.Wait(); err != nil && ctx.Err() == nil {
		c.deps.Logger.Warn("voice recognition ended",
			zap.String("alarm_id", session.alarm.ID),
			zap.Error(err))
		c.deps.Events.RingingError(domain.ErrorCodeRecognition, err.Error())
	}
}

// routeTranscript classifies a final transcript and, when confident enough,
// drives the matching controller operation.
func (c *RingingController) routeTranscript(session *ringingSession, event domain.TranscriptEvent) {
	command := c.deps.Classifier.Classify(event.Text)

	// Effective confidence blends the classifier's rule weight with the
	// recognizer's own score when it reports one.
	switch {
	case command.Intent == domain.IntentUnknown:
		command.Confidence = event.Confidence
	case event.Confidence > 0:
		command.Confidence *= event.Confidence
	}

	c.deps.Events.CommandRecognized(command)

	if command.Intent == domain.IntentUnknown {
		c.deps.Logger.Debug("unclassified utterance", zap.String("transcript", event.Text))
		return
	}
	if command.Confidence < commandConfidenceThreshold {
		c.deps.Logger.Info("low-confidence command ignored",
			zap.String("intent", string(command.Intent)),
			zap.Float64("confidence", command.Confidence))
		return
	}

	c.deps.Logger.Info("voice command accepted",
		zap.String("alarm_id", session.alarm.ID),
		zap.String("intent", string(command.Intent)),
		zap.Float64("confidence", command.Confidence))

	// Dismiss and snooze tear the session down and wait for this very
	// goroutine, so they must run outside of it.
	switch command.Intent {
	case domain.IntentDismiss:
		go func() { _ = c.Dismiss(domain.DismissByVoice) }()
	case domain.IntentSnooze:
		go func() { _ = c.Snooze() }()
	}
}
