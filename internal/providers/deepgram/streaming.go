package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"daybell/internal/domain"
	"daybell/internal/ports"
)

// Config controls the Deepgram websocket connection and the microphone that
// feeds it.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool

	Mic       ports.MicConfig
	ChunkSize int
}

// Provider implements ports.Recognizer against the Deepgram streaming API.
// It owns its microphone capture so the ringing controller only sees
// transcript events.
type Provider struct {
	cfg Config
	mic ports.MicCapture
}

func NewProvider(cfg Config, mic ports.MicCapture) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &Provider{cfg: cfg, mic: mic}
}

func (p *Provider) StartListening(ctx context.Context, cfg ports.ListeningConfig) (ports.ListeningSession, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}

	wsURL, err := buildListenURL(p.cfg, cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}

	micCfg := p.cfg.Mic
	micCfg.SampleRate = cfg.SampleRate
	micCfg.Channels = cfg.Channels
	mic, err := p.mic.Start(ctx, micCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to start microphone: %w", err)
	}

	session := &listeningSession{
		conn:   conn,
		mic:    mic,
		events: make(chan domain.TranscriptEvent, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
	}

	session.wg.Add(3)
	go session.pumpLoop(p.cfg.ChunkSize)
	go session.writeLoop()
	go session.readLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
		_ = mic.Stop()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type listeningSession struct {
	conn *websocket.Conn
	mic  ports.MicSession

	events chan domain.TranscriptEvent
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
}

func (s *listeningSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *listeningSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *listeningSession) Close() error {
	s.fail()
	<-s.done
	return s.waitErr()
}

// fail tears down the mic and socket without waiting, unwinding all three
// loops. Safe to call from inside them.
func (s *listeningSession) fail() {
	s.closeOnce.Do(func() {
		_ = s.mic.Stop()
		_ = s.conn.Close()
	})
}

func (s *listeningSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *listeningSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// pumpLoop streams microphone chunks toward the writer until the mic stops.
func (s *listeningSession) pumpLoop(chunkSize int) {
	defer s.wg.Done()
	defer close(s.audio)

	buf := make([]byte, chunkSize)
	for {
		n, err := s.mic.Read(buf)
		if n > 0 {
			// The writer drains this channel on every exit path, so a
			// blocking send cannot wedge the pump.
			s.audio <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.setErr(fmt.Errorf("microphone read failed: %w", err))
			}
			return
		}
	}
}

func (s *listeningSession) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("failed to send audio: %w", err))
			s.fail()
			for range s.audio {
			}
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("failed to close stream: %w", err))
	}
}

func (s *listeningSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read recognizer event: %w", err))
			s.fail()
			return
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.setErr(errors.New(message))
			s.fail()
			return
		}

		transcript, confidence := extractTranscript(response)
		if transcript == "" {
			continue
		}

		event := domain.TranscriptEvent{Text: transcript, Confidence: confidence}
		if response.IsFinal || response.SpeechFinal {
			event.Kind = domain.TranscriptKindFinal
		} else {
			event.Kind = domain.TranscriptKindPartial
		}
		s.emit(event)
	}
}

// emit hands a transcript event to the consumer. Partials are droppable when
// the buffer is full; finals carry commands and must wait for a slot.
func (s *listeningSession) emit(event domain.TranscriptEvent) {
	if event.Kind == domain.TranscriptKindFinal {
		select {
		case s.events <- event:
		case <-s.done:
		}
		return
	}
	select {
	case s.events <- event:
	case <-s.done:
	default:
	}
}

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`

	Results struct {
		Channels []struct {
			Alternatives []alternative `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func extractTranscript(response deepgramResponse) (string, float64) {
	if len(response.Channel.Alternatives) > 0 {
		alt := response.Channel.Alternatives[0]
		if text := strings.TrimSpace(alt.Transcript); text != "" {
			return text, alt.Confidence
		}
	}
	if len(response.Results.Channels) > 0 && len(response.Results.Channels[0].Alternatives) > 0 {
		alt := response.Results.Channels[0].Alternatives[0]
		return strings.TrimSpace(alt.Transcript), alt.Confidence
	}
	return "", 0
}

func buildListenURL(providerCfg Config, listenCfg ports.ListeningConfig) (string, error) {
	base := providerCfg.APIBaseURL
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}
	base = strings.TrimSpace(base)

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	query := listenURL.Query()
	if listenCfg.Encoding == "" {
		listenCfg.Encoding = "linear16"
	}
	if listenCfg.SampleRate <= 0 {
		listenCfg.SampleRate = 16000
	}
	if listenCfg.Channels <= 0 {
		listenCfg.Channels = 1
	}
	query.Set("model", providerCfg.Model)
	query.Set("encoding", listenCfg.Encoding)
	query.Set("sample_rate", fmt.Sprintf("%d", listenCfg.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", listenCfg.Channels))
	query.Set("interim_results", fmt.Sprintf("%t", listenCfg.InterimResults))
	query.Set("smart_format", fmt.Sprintf("%t", providerCfg.SmartFormat))
	if providerCfg.Language != "" {
		query.Set("language", providerCfg.Language)
	}
	// Boost the dismiss/snooze vocabulary so short commands survive
	// half-awake mumbling.
	for _, keyword := range listenCfg.Keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword != "" {
			query.Add("keywords", keyword)
		}
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
