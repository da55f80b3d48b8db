package live

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// DefaultEndpoint is the default WebSocket endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// Client opens live sessions.
type Client struct {
	config *clientConfig
}

type clientConfig struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new live API client.
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Client{config: cfg}
}

// WithEndpoint overrides the WebSocket endpoint.
func WithEndpoint(url string) Option {
	return func(c *clientConfig) {
		c.endpoint = url
	}
}

// WithHTTPClient sets a custom HTTP client used for the handshake.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// ConnectConfig describes one session.
type ConnectConfig struct {
	// Model is the live model identifier, e.g. "gemini-2.0-flash-live-001".
	Model string

	// SystemInstruction is the opaque system prompt.
	SystemInstruction string

	// Tools declares callable functions.
	Tools []*Tool

	// Voice selects the audio response voice.
	Voice string

	// TranscribeInput and TranscribeOutput request transcription of the
	// respective audio direction.
	TranscribeInput  bool
	TranscribeOutput bool
}

// Connect dials the endpoint and sends the session setup. The returned
// Session is live immediately; the server's setupComplete arrives as the
// first event.
func (c *Client) Connect(ctx context.Context, config *ConnectConfig) (*Session, error) {
	if c.config.apiKey == "" {
		return nil, &Error{Code: "missing_api_key", Message: "no API key configured"}
	}
	if config == nil || config.Model == "" {
		return nil, &Error{Code: "invalid_config", Message: "model is required"}
	}

	url := fmt.Sprintf("%s?key=%s", c.config.endpoint, c.config.apiKey)
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.httpClient.Timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, &Error{
				Code:       "connection_failed",
				Message:    fmt.Sprintf("failed to connect: %v", err),
				HTTPStatus: resp.StatusCode,
			}
		}
		return nil, fmt.Errorf("live: failed to connect: %w", err)
	}

	session := &Session{
		conn:     conn,
		config:   config,
		closeCh:  make(chan struct{}),
		eventsCh: make(chan messageOrError, 100),
	}

	if err := session.sendSetup(c.setup(config)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("live: send setup: %w", err)
	}

	go session.readLoop()

	return session, nil
}

// setup builds the setup message from a connect config.
func (c *Client) setup(config *ConnectConfig) *Setup {
	s := &Setup{
		Model: "models/" + config.Model,
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		Tools: config.Tools,
	}
	if config.Voice != "" {
		s.GenerationConfig.SpeechConfig = &SpeechConfig{
			VoiceConfig: &VoiceConfig{
				PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: config.Voice},
			},
		}
	}
	if config.SystemInstruction != "" {
		s.SystemInstruction = &Content{
			Parts: []*Part{{Text: config.SystemInstruction}},
		}
	}
	if config.TranscribeInput {
		s.InputAudioTranscription = &AudioTranscriptionConfig{}
	}
	if config.TranscribeOutput {
		s.OutputAudioTranscription = &AudioTranscriptionConfig{}
	}
	return s
}
