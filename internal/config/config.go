package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the alarm backend.
type Config struct {
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Voice    VoiceConfig
	Rules    RulesConfig
	Ringing  RingingConfig
	Store    StoreConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	PlayerCommand   string
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	Volume          int
}

type VoiceConfig struct {
	SpeakCommand string
	SpeakArgs    []string
}

type RulesConfig struct {
	Path string
}

type RingingConfig struct {
	VibrateInterval        time.Duration
	SoundRepeatGap         time.Duration
	VoiceOnlyInterval      time.Duration
	VoiceSecondaryInterval time.Duration
	BeepInterval           time.Duration
	ChallengeCount         int
	ChunkSize              int
}

type StoreConfig struct {
	Path string
}

// Load resolves configuration from environment variables and sensible defaults.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	configDir := filepath.Join(home, ".config", "daybell")
	rulesPath := strings.TrimSpace(os.Getenv("DAYBELL_RULES_FILE"))
	if rulesPath == "" {
		rulesPath = firstExisting(filepath.Join(configDir, "commands.rules"))
	}

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:    strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			PlayerCommand:   envOrDefault("DAYBELL_FFPLAY_COMMAND", "ffplay"),
			RecorderCommand: envOrDefault("DAYBELL_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("DAYBELL_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("DAYBELL_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("DAYBELL_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("DAYBELL_CHANNELS", 1),
			Volume:          envOrDefaultInt("DAYBELL_VOLUME", 100),
		},
		Voice: VoiceConfig{
			SpeakCommand: envOrDefault("DAYBELL_SPEAK_COMMAND", "espeak"),
		},
		Rules: RulesConfig{
			Path: rulesPath,
		},
		Ringing: RingingConfig{
			VibrateInterval:        envDurationMS("DAYBELL_VIBRATE_INTERVAL_MS", 2000),
			SoundRepeatGap:         envDurationMS("DAYBELL_SOUND_REPEAT_GAP_MS", 3000),
			VoiceOnlyInterval:      envDurationMS("DAYBELL_VOICE_INTERVAL_MS", 30000),
			VoiceSecondaryInterval: envDurationMS("DAYBELL_VOICE_SECONDARY_INTERVAL_MS", 45000),
			BeepInterval:           envDurationMS("DAYBELL_BEEP_INTERVAL_MS", 2000),
			ChallengeCount:         envOrDefaultInt("DAYBELL_CHALLENGE_COUNT", 3),
			ChunkSize:              envOrDefaultInt("DAYBELL_AUDIO_CHUNK_SIZE", 4096),
		},
		Store: StoreConfig{
			Path: envOrDefault("DAYBELL_DB_PATH", filepath.Join(configDir, "daybell.db")),
		},
	}

	if args := strings.TrimSpace(os.Getenv("DAYBELL_SPEAK_ARGS")); args != "" {
		cfg.Voice.SpeakArgs = strings.Fields(args)
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.Volume <= 0 || cfg.Audio.Volume > 100 {
		cfg.Audio.Volume = 100
	}
	if cfg.Ringing.ChallengeCount <= 0 {
		cfg.Ringing.ChallengeCount = 3
	}
	if cfg.Ringing.ChunkSize < 256 {
		cfg.Ringing.ChunkSize = 4096
	}

	return cfg, nil
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envDurationMS(key string, fallbackMS int) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return time.Duration(fallbackMS) * time.Millisecond
}
