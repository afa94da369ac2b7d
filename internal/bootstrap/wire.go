package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"daybell/internal/audio"
	"daybell/internal/challenges"
	"daybell/internal/config"
	"daybell/internal/ports"
	"daybell/internal/providers/deepgram"
	"daybell/internal/rules"
	"daybell/internal/store"
	"daybell/internal/usecase"
	"daybell/internal/voice"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.RingingController
	Store      *store.Store
	Config     config.Config
	Logger     *zap.Logger
}

// Close releases resources held by the graph.
func (s Services) Close() error {
	s.Controller.Shutdown()
	_ = s.Logger.Sync()
	return s.Store.Close()
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, haptics ports.Haptics) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger, err := newLogger()
	if err != nil {
		return Services{}, fmt.Errorf("failed to build logger: %w", err)
	}

	engine, err := rules.NewEngine(cfg.Rules.Path)
	if err != nil {
		return Services{}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return Services{}, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return Services{}, err
	}

	mic := audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand)
	recognizer := deepgram.NewProvider(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
		Mic: ports.MicConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		ChunkSize: cfg.Ringing.ChunkSize,
	}, mic)

	controller := usecase.NewRingingController(usecase.Deps{
		Player:     audio.NewFFPlayPlayer(cfg.Audio.PlayerCommand),
		Speaker:    voice.NewCommandSpeaker(cfg.Voice.SpeakCommand, cfg.Voice.SpeakArgs...),
		Recognizer: recognizer,
		Classifier: engine,
		Challenges: challenges.NewService(logger.Named("challenges"), db, cfg.Ringing.ChallengeCount),
		Sounds:     db,
		Haptics:    haptics,
		Events:     eventSink,
		Logger:     logger.Named("ringing"),
	}, usecase.Config{
		Listening: ports.ListeningConfig{
			SampleRate:     cfg.Audio.SampleRate,
			Channels:       cfg.Audio.Channels,
			Encoding:       "linear16",
			InterimResults: true,
			Keywords:       []string{"dismiss", "snooze", "awake", "wake", "stop"},
		},
		Volume:                 cfg.Audio.Volume,
		VibrateEvery:           cfg.Ringing.VibrateInterval,
		SoundRepeatGap:         cfg.Ringing.SoundRepeatGap,
		VoiceOnlyInterval:      cfg.Ringing.VoiceOnlyInterval,
		VoiceSecondaryInterval: cfg.Ringing.VoiceSecondaryInterval,
		BeepInterval:           cfg.Ringing.BeepInterval,
		BeepTone:               audio.DefaultBeep(),
	})

	return Services{Controller: controller, Store: db, Config: cfg, Logger: logger}, nil
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("DAYBELL_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
