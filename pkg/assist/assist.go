// Package assist is the realtime poker assistant core. It owns the live
// session lifecycle (dial, retry with backoff, teardown), the microphone
// pipeline, playback of model audio, screen sharing, and the merge of tool
// calls and transcription fragments into the HUD state.
package assist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/tablesight/tablesight/pkg/audio/capture"
	"github.com/tablesight/tablesight/pkg/audio/device"
	"github.com/tablesight/tablesight/pkg/audio/pcm"
	"github.com/tablesight/tablesight/pkg/audio/resample"
	"github.com/tablesight/tablesight/pkg/frame"
	"github.com/tablesight/tablesight/pkg/hud"
	"github.com/tablesight/tablesight/pkg/live"
	"github.com/tablesight/tablesight/pkg/playback"
)

// Sentinel errors of the control surface.
var (
	ErrMissingAPIKey = errors.New("assist: api key is required")
	ErrConnected     = errors.New("assist: already connected")
	ErrNotConnected  = errors.New("assist: not connected")
	ErrNotSharing    = errors.New("assist: screen sharing is not active")
)

// Status is the connection state.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusOpen
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Conn is the live-session surface the assistant drives.
type Conn interface {
	SendText(text string) error
	SendMedia(mimeType, data string) error
	SendToolResponse(id, name string, result map[string]any) error
	Events() iter.Seq2[*live.ServerMessage, error]
	Close() error
}

// Dialer opens live sessions.
type Dialer interface {
	Dial(ctx context.Context, cfg *live.ConnectConfig) (Conn, error)
}

type liveDialer struct{ client *live.Client }

func (d liveDialer) Dial(ctx context.Context, cfg *live.ConnectConfig) (Conn, error) {
	return d.client.Connect(ctx, cfg)
}

// Mic is a mono 16-bit PCM source at a known sample rate.
type Mic interface {
	io.ReadCloser
	SampleRate() int
}

// Player schedules model audio for playout.
type Player interface {
	Enqueue(data string) error
	StopAll()
	Close() error
}

const blockQueueDepth = 8

// Assistant composes the whole pipeline. The public methods are safe for
// concurrent use; internal state is single-writer behind mu.
type Assistant struct {
	cfg Config

	dialer     Dialer
	analyzer   Analyzer
	openMic    func(rate int) (Mic, error)
	openPlayer func(format pcm.Format) (Player, error)
	openScreen func() (frame.Source, error)
	newBlocker func(src io.Reader, blockSize int) (*capture.Blocker, error)

	// test seams
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
	jitter    func() time.Duration

	// frameMu serializes use of the shared raster surface.
	frameMu sync.Mutex

	mu               sync.Mutex
	status           Status
	connecting       bool
	lastErr          error
	permissionDenied bool
	retryCount       int
	retryTimer       *time.Timer

	session Conn
	micSrc  io.ReadCloser
	player  Player

	screen    *frame.Capturer
	shareStop chan struct{}
	sharing   bool

	analyzing   bool
	lastAnalyze time.Time

	state      *hud.State
	transcript *hud.Transcript

	notify chan struct{}
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithDialer replaces the live-session dialer.
func WithDialer(d Dialer) Option { return func(a *Assistant) { a.dialer = d } }

// WithAnalyzer replaces the deep-analysis backend.
func WithAnalyzer(an Analyzer) Option { return func(a *Assistant) { a.analyzer = an } }

// WithMicOpener replaces microphone acquisition.
func WithMicOpener(f func(rate int) (Mic, error)) Option {
	return func(a *Assistant) { a.openMic = f }
}

// WithPlayerOpener replaces audio output acquisition.
func WithPlayerOpener(f func(format pcm.Format) (Player, error)) Option {
	return func(a *Assistant) { a.openPlayer = f }
}

// WithScreenOpener replaces screen-source acquisition.
func WithScreenOpener(f func() (frame.Source, error)) Option {
	return func(a *Assistant) { a.openScreen = f }
}

// New creates an Assistant. Unless a custom dialer is supplied, a missing
// API key is a fatal configuration error, not a retryable one.
func New(cfg Config, opts ...Option) (*Assistant, error) {
	cfg.withDefaults()
	a := &Assistant{
		cfg:        cfg,
		openMic:    func(rate int) (Mic, error) { return device.OpenCapture(rate) },
		openPlayer: defaultOpenPlayer,
		openScreen: func() (frame.Source, error) { return frame.OpenScreen(0) },
		now:        time.Now,
		afterFunc:  time.AfterFunc,
		jitter: func() time.Duration {
			return time.Duration(rand.Int64N(int64(time.Second)))
		},
		transcript: hud.NewTranscript(cfg.MergeWindow),
		notify:     make(chan struct{}, 1),
	}
	a.newBlocker = func(src io.Reader, blockSize int) (*capture.Blocker, error) {
		return capture.NewBlocker(src, blockSize, blockQueueDepth), nil
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.dialer == nil {
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		a.dialer = liveDialer{client: live.NewClient(cfg.APIKey)}
	}
	return a, nil
}

func defaultOpenPlayer(format pcm.Format) (Player, error) {
	dev, err := device.OpenPlayback(format.SampleRate())
	if err != nil {
		return nil, err
	}
	return &devicePlayer{
		Scheduler: playback.NewScheduler(dev, format),
		dev:       dev,
	}, nil
}

type devicePlayer struct {
	*playback.Scheduler
	dev *device.Playback
}

func (p *devicePlayer) Close() error {
	p.StopAll()
	return p.dev.Close()
}

// Connect opens the microphone, the audio output and the live session, then
// starts the outbound audio pump and the inbound dispatch loop. A manual
// connect clears prior error state and the retry budget.
func (a *Assistant) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.connecting || a.session != nil {
		a.mu.Unlock()
		return ErrConnected
	}
	if a.retryTimer != nil {
		a.retryTimer.Stop()
		a.retryTimer = nil
	}
	a.connecting = true
	a.status = StatusConnecting
	a.lastErr = nil
	a.permissionDenied = false
	a.retryCount = 0
	a.mu.Unlock()
	a.notifyChange()

	return a.establish(ctx)
}

// establish runs one connection attempt and routes failures into the retry
// machinery. Retry attempts enter here directly, bypassing Connect's state
// reset.
func (a *Assistant) establish(ctx context.Context) error {
	err := a.open(ctx)

	a.mu.Lock()
	a.connecting = false
	if err != nil {
		a.lastErr = err
		if isPermissionError(err) {
			a.permissionDenied = true
		}
		a.scheduleRetryLocked()
		a.mu.Unlock()
		a.notifyChange()
		return err
	}
	a.mu.Unlock()
	a.notifyChange()
	return nil
}

func (a *Assistant) open(ctx context.Context) error {
	mic, err := a.openMic(a.cfg.InputFormat.SampleRate())
	if err != nil {
		return fmt.Errorf("assist: open microphone: %w", err)
	}

	var src io.ReadCloser = mic
	if mic.SampleRate() != a.cfg.InputFormat.SampleRate() {
		rs, err := resample.New(mic, mic.SampleRate(), a.cfg.InputFormat.SampleRate())
		if err != nil {
			_ = mic.Close()
			return fmt.Errorf("assist: resample microphone: %w", err)
		}
		src = &micSource{Reader: rs, mic: mic, rs: rs}
	}

	player, err := a.openPlayer(a.cfg.OutputFormat)
	if err != nil {
		_ = src.Close()
		return fmt.Errorf("assist: open audio output: %w", err)
	}

	decl, err := hud.Declaration()
	if err != nil {
		_ = src.Close()
		_ = player.Close()
		return fmt.Errorf("assist: tool declaration: %w", err)
	}

	conn, err := a.dialer.Dial(ctx, &live.ConnectConfig{
		Model:             a.cfg.LiveModel,
		SystemInstruction: a.cfg.SystemInstruction,
		Voice:             a.cfg.Voice,
		TranscribeInput:   true,
		TranscribeOutput:  true,
		Tools: []*live.Tool{{
			FunctionDeclarations: []*live.FunctionDeclaration{decl},
		}},
	})
	if err != nil {
		_ = src.Close()
		_ = player.Close()
		return err
	}

	// The session handle must be visible before the pump or dispatch loop
	// runs; both goroutines start only after this store.
	a.mu.Lock()
	a.session = conn
	a.micSrc = src
	a.player = player
	a.status = StatusOpen
	a.retryCount = 0
	a.mu.Unlock()

	blocker, berr := a.newBlocker(src, a.cfg.BlockSize)
	if berr != nil {
		slog.Warn("audio block pipeline unavailable, reading blocks directly", "error", berr)
		go a.pumpDirect(src, conn)
	} else {
		go a.pumpBlocks(blocker, conn)
	}
	go a.dispatch(conn)

	slog.Info("session open", "model", a.cfg.LiveModel)
	return nil
}

// micSource is a resampled microphone view. Closing it stops the pump.
type micSource struct {
	io.Reader
	mic Mic
	rs  *resample.Reader
}

func (m *micSource) Close() error {
	_ = m.rs.Close()
	return m.mic.Close()
}

// pumpBlocks forwards fixed-size microphone blocks upstream. It ends when
// the source is closed or a send fails.
func (a *Assistant) pumpBlocks(b *capture.Blocker, conn Conn) {
	rate := a.cfg.InputFormat.SampleRate()
	for block := range b.Blocks() {
		p := pcm.Encode(block, rate)
		if err := conn.SendMedia(p.MIMEType, p.Data); err != nil {
			slog.Debug("mic send failed", "error", err)
			return
		}
	}
	if err := b.Err(); err != nil {
		slog.Debug("mic pipeline ended", "error", err)
	}
}

// pumpDirect is the fallback path: it reads blocks straight off the source
// without the channel pipeline.
func (a *Assistant) pumpDirect(src io.Reader, conn Conn) {
	rate := a.cfg.InputFormat.SampleRate()
	buf := make([]byte, a.cfg.BlockSize*2)
	for {
		if _, err := io.ReadFull(src, buf); err != nil {
			return
		}
		p := pcm.Encode(pcm.BytesToFloat32(buf), rate)
		if err := conn.SendMedia(p.MIMEType, p.Data); err != nil {
			return
		}
	}
}

// dispatch consumes server messages one at a time in arrival order.
func (a *Assistant) dispatch(conn Conn) {
	for msg, err := range conn.Events() {
		if err != nil {
			a.sessionEnded(conn, err)
			return
		}
		a.handleMessage(conn, msg)
	}
	a.sessionEnded(conn, nil)
}

// handleMessage processes one inbound message. A message may carry any
// combination of tool calls, audio and transcription fragments.
func (a *Assistant) handleMessage(conn Conn, msg *live.ServerMessage) {
	changed := false

	if msg.ToolCall != nil {
		for _, fc := range msg.ToolCall.FunctionCalls {
			if fc.Name == hud.ToolName {
				if u, err := hud.DecodeUpdate(fc.Args); err != nil {
					slog.Warn("bad tool arguments", "error", err)
				} else {
					a.mu.Lock()
					if a.state == nil {
						a.state = &hud.State{}
					}
					a.state.Apply(u)
					a.mu.Unlock()
					changed = true
				}
			}
			// Delivery confirmation only; the remote side does not need the
			// merge outcome.
			if err := conn.SendToolResponse(fc.ID, fc.Name, map[string]any{"success": true}); err != nil {
				slog.Debug("tool ack failed", "error", err)
			}
		}
	}

	if chunks := msg.AudioChunks(); len(chunks) > 0 {
		a.mu.Lock()
		player := a.player
		a.mu.Unlock()
		if player != nil {
			for _, chunk := range chunks {
				if err := player.Enqueue(chunk); err != nil {
					slog.Warn("playback enqueue failed", "error", err)
				}
			}
		}
	}

	if text := msg.OutputTranscript(); text != "" {
		a.mu.Lock()
		a.transcript.Append(hud.SourceAssistant, text)
		a.mu.Unlock()
		changed = true
	}
	if text := msg.InputTranscript(); text != "" {
		a.mu.Lock()
		a.transcript.Append(hud.SourceUser, text)
		a.mu.Unlock()
		changed = true
	}

	if msg.GoAway != nil {
		slog.Info("server going away", "time_left", msg.GoAway.TimeLeft)
	}

	if changed {
		a.notifyChange()
	}
}

// sessionEnded tears down a session that closed underneath us. A nil cause
// is a clean remote close; an error schedules a retry. Stale callbacks from
// a session already replaced or torn down are ignored.
func (a *Assistant) sessionEnded(conn Conn, cause error) {
	a.mu.Lock()
	if a.session != conn {
		a.mu.Unlock()
		return
	}
	a.session = nil
	src := a.micSrc
	a.micSrc = nil
	player := a.player
	a.player = nil

	if cause != nil {
		slog.Warn("session lost", "error", cause)
		a.lastErr = cause
		if isPermissionError(cause) {
			a.permissionDenied = true
		}
		a.scheduleRetryLocked()
	} else {
		a.status = StatusIdle
	}
	a.mu.Unlock()

	_ = conn.Close()
	if player != nil {
		player.StopAll()
		_ = player.Close()
	}
	if src != nil {
		_ = src.Close()
	}
	a.notifyChange()
}

// scheduleRetryLocked arms the next reconnect attempt. Permission failures
// and an exhausted budget land in StatusFailed instead. Callers hold mu.
func (a *Assistant) scheduleRetryLocked() {
	if a.permissionDenied || a.retryCount >= a.cfg.MaxRetries {
		a.status = StatusFailed
		return
	}
	n := a.retryCount
	a.retryCount++

	delay := a.cfg.RetryBaseDelay << n
	if delay > a.cfg.RetryMaxDelay {
		delay = a.cfg.RetryMaxDelay
	}
	delay += a.jitter()

	a.status = StatusConnecting
	slog.Info("reconnecting", "attempt", a.retryCount, "delay", delay)
	a.retryTimer = a.afterFunc(delay, a.retryConnect)
}

func (a *Assistant) retryConnect() {
	a.mu.Lock()
	a.retryTimer = nil
	if a.connecting || a.session != nil {
		a.mu.Unlock()
		return
	}
	a.connecting = true
	a.status = StatusConnecting
	a.mu.Unlock()
	_ = a.establish(context.Background())
}

// Disconnect tears everything down: pending retry, session, playback,
// microphone, screen share and all UI-visible state. Fully idempotent.
func (a *Assistant) Disconnect() {
	a.mu.Lock()
	if a.retryTimer != nil {
		a.retryTimer.Stop()
		a.retryTimer = nil
	}
	session := a.session
	a.session = nil
	src := a.micSrc
	a.micSrc = nil
	player := a.player
	a.player = nil
	a.connecting = false
	a.status = StatusIdle
	a.state = nil
	a.transcript.Reset()
	a.mu.Unlock()

	if session != nil {
		_ = session.Close()
	}
	if player != nil {
		player.StopAll()
		_ = player.Close()
	}
	if src != nil {
		_ = src.Close()
	}
	a.StopScreenShare()
	a.notifyChange()
}

// Snapshot is an immutable view for the presentation layer.
type Snapshot struct {
	Status           Status
	Sharing          bool
	Analyzing        bool
	PermissionDenied bool
	Err              error
	State            *hud.State
	Transcript       []hud.Entry
}

// Snapshot returns the current state. The returned record shares nothing
// with the assistant's internals.
func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Status:           a.status,
		Sharing:          a.sharing,
		Analyzing:        a.analyzing,
		PermissionDenied: a.permissionDenied,
		Err:              a.lastErr,
		State:            a.state.Clone(),
		Transcript:       a.transcript.Entries(),
	}
}

// Changes returns a channel that receives a tick after state changes.
// Notifications coalesce; consumers re-read via Snapshot.
func (a *Assistant) Changes() <-chan struct{} {
	return a.notify
}

func (a *Assistant) notifyChange() {
	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// isPermissionError classifies credential and authorization failures, which
// must not be retried.
func isPermissionError(err error) bool {
	var le *live.Error
	if errors.As(err, &le) && (le.HTTPStatus == 401 || le.HTTPStatus == 403) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"permission", "unauthorized", "forbidden", "api key"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
