package assist

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tablesight/tablesight/pkg/audio/pcm"
	"github.com/tablesight/tablesight/pkg/frame"
	"github.com/tablesight/tablesight/pkg/hud"
	"github.com/tablesight/tablesight/pkg/live"
)

// ---- fakes ----

type eventItem struct {
	msg *live.ServerMessage
	err error
}

type mediaMsg struct{ mime, data string }

type toolAck struct {
	id, name string
	result   map[string]any
}

type fakeConn struct {
	mu     sync.Mutex
	texts  []string
	media  []mediaMsg
	acks   []toolAck
	closed bool

	events    chan eventItem
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan eventItem, 16)}
}

func (c *fakeConn) SendText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func (c *fakeConn) SendMedia(mimeType, data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.media = append(c.media, mediaMsg{mimeType, data})
	return nil
}

func (c *fakeConn) SendToolResponse(id, name string, result map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acks = append(c.acks, toolAck{id, name, result})
	return nil
}

func (c *fakeConn) Events() iter.Seq2[*live.ServerMessage, error] {
	return func(yield func(*live.ServerMessage, error) bool) {
		for item := range c.events {
			if !yield(item.msg, item.err) {
				return
			}
			if item.err != nil {
				return
			}
		}
	}
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.events) })
	return nil
}

func (c *fakeConn) push(msg *live.ServerMessage) { c.events <- eventItem{msg: msg} }
func (c *fakeConn) fail(err error)              { c.events <- eventItem{err: err} }

func (c *fakeConn) snapshot() (texts []string, media []mediaMsg, acks []toolAck) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...),
		append([]mediaMsg(nil), c.media...),
		append([]toolAck(nil), c.acks...)
}

type fakeDialer struct {
	mu       sync.Mutex
	failures int // dials to fail before succeeding
	failErr  error
	dials    int
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(_ context.Context, _ *live.ConnectConfig) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failures > 0 {
		d.failures--
		if d.failErr != nil {
			return nil, d.failErr
		}
		return nil, errors.New("dial refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fakeMic struct {
	mu        sync.Mutex
	buf       []byte
	rate      int
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeMic(rate int, blocks int, blockSize int) *fakeMic {
	return &fakeMic{
		buf:    make([]byte, blocks*blockSize*2),
		rate:   rate,
		closed: make(chan struct{}),
	}
}

func (m *fakeMic) Read(p []byte) (int, error) {
	m.mu.Lock()
	if len(m.buf) > 0 {
		n := copy(p, m.buf)
		m.buf = m.buf[n:]
		m.mu.Unlock()
		return n, nil
	}
	m.mu.Unlock()
	<-m.closed
	return 0, io.ErrClosedPipe
}

func (m *fakeMic) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *fakeMic) SampleRate() int { return m.rate }

type fakePlayer struct {
	mu       sync.Mutex
	enqueued []string
	stops    int
	closes   int
}

func (p *fakePlayer) Enqueue(data string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueued = append(p.enqueued, data)
	return nil
}

func (p *fakePlayer) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func (p *fakePlayer) counts() (enqueued, stops, closes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.enqueued), p.stops, p.closes
}

type fakeScreen struct {
	mu      sync.Mutex
	img     image.Image
	grabErr error
	closed  bool
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{img: image.NewRGBA(image.Rect(0, 0, 64, 48))}
}

func (s *fakeScreen) Grab() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grabErr != nil {
		return nil, s.grabErr
	}
	return s.img, nil
}

func (s *fakeScreen) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeAnalyzer struct {
	text string
	err  error
	hook func()
}

func (f *fakeAnalyzer) Analyze(_ context.Context, _ string, _ *frame.Image) (string, error) {
	if f.hook != nil {
		f.hook()
	}
	return f.text, f.err
}

// ---- harness ----

type harness struct {
	a      *Assistant
	dialer *fakeDialer
	mic    *fakeMic
	player *fakePlayer
	screen *fakeScreen

	mu     sync.Mutex
	timers []retryTimer
}

type retryTimer struct {
	delay time.Duration
	fn    func()
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	h := &harness{
		dialer: &fakeDialer{},
		mic:    newFakeMic(16000, 1, 4096),
		player: &fakePlayer{},
		screen: newFakeScreen(),
	}

	cfg := Config{
		APIKey:          "test-key",
		FrameInterval:   time.Hour,
		RefreshInterval: time.Hour,
		Frames: frame.Config{
			Low:  frame.Preset{Width: 32, JPEGQuality: 60},
			High: frame.Preset{Width: 128, JPEGQuality: 85},
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	a, err := New(cfg,
		WithDialer(h.dialer),
		WithMicOpener(func(int) (Mic, error) { return h.mic, nil }),
		WithPlayerOpener(func(pcm.Format) (Player, error) { return h.player, nil }),
		WithScreenOpener(func() (frame.Source, error) { return h.screen, nil }),
	)
	if err != nil {
		t.Fatal(err)
	}

	// Retry timers are captured, not armed, so tests fire them explicitly
	// without deadlocking on the state lock.
	a.jitter = func() time.Duration { return 0 }
	a.afterFunc = func(d time.Duration, f func()) *time.Timer {
		h.mu.Lock()
		h.timers = append(h.timers, retryTimer{d, f})
		h.mu.Unlock()
		return time.AfterFunc(time.Hour, func() {})
	}

	h.a = a
	t.Cleanup(a.Disconnect)
	return h
}

func (h *harness) timerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

func (h *harness) fireTimer(t *testing.T, i int) time.Duration {
	t.Helper()
	h.mu.Lock()
	if i >= len(h.timers) {
		h.mu.Unlock()
		t.Fatalf("timer %d was never scheduled", i)
	}
	tm := h.timers[i]
	h.mu.Unlock()
	tm.fn()
	return tm.delay
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ---- tests ----

func TestConnectToolCallScenario(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := h.a.Snapshot().Status; got != StatusOpen {
		t.Fatalf("status = %v", got)
	}

	conn := h.dialer.last()

	// One microphone block goes upstream.
	waitFor(t, "mic block", func() bool {
		_, media, _ := conn.snapshot()
		return len(media) >= 1
	})
	_, media, _ := conn.snapshot()
	if media[0].mime != "audio/pcm;rate=16000" {
		t.Errorf("mic mime = %q", media[0].mime)
	}

	// The model replies with one tool call.
	conn.push(&live.ServerMessage{
		ToolCall: &live.ToolCall{FunctionCalls: []*live.FunctionCall{{
			ID:   "call-1",
			Name: hud.ToolName,
			Args: []byte(`{"winProbability": 72, "suggestedAction": "RAISE", "reasoning": "top pair",
				"handStrength": "Top Pair", "holeCards": ["Ah","Kd"], "communityCards": ["7s","2c","Qh"]}`),
		}}},
	})

	waitFor(t, "tool merge", func() bool { return h.a.Snapshot().State != nil })
	snap := h.a.Snapshot()
	st := snap.State
	if st.WinProbability != 72 || st.SuggestedAction != "RAISE" || st.HandStrength != "Top Pair" {
		t.Errorf("state = %+v", st)
	}
	if len(st.HoleCards) != 2 || len(st.CommunityCards) != 3 {
		t.Errorf("cards = %v / %v", st.HoleCards, st.CommunityCards)
	}
	if len(snap.Transcript) != 0 {
		t.Errorf("tool call must not create transcript entries, got %d", len(snap.Transcript))
	}

	_, _, acks := conn.snapshot()
	if len(acks) != 1 || acks[0].id != "call-1" || acks[0].result["success"] != true {
		t.Errorf("acks = %+v", acks)
	}
}

func TestDispatchAudioAndTranscripts(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := h.dialer.last()

	conn.push(&live.ServerMessage{
		ServerContent: &live.ServerContent{
			ModelTurn: &live.Content{Parts: []*live.Part{
				{InlineData: &live.Blob{MIMEType: "audio/pcm;rate=24000", Data: "QUJDRA=="}},
			}},
			OutputTranscription: &live.Transcription{Text: "raise "},
		},
	})
	conn.push(&live.ServerMessage{
		ServerContent: &live.ServerContent{
			OutputTranscription: &live.Transcription{Text: "now"},
			InputTranscription:  &live.Transcription{Text: "ok"},
		},
	})

	waitFor(t, "transcripts", func() bool { return len(h.a.Snapshot().Transcript) >= 2 })

	enq, _, _ := h.player.counts()
	if enq != 1 {
		t.Errorf("enqueued = %d", enq)
	}
	tr := h.a.Snapshot().Transcript
	if tr[0].Source != hud.SourceAssistant || tr[0].Text != "raise now" {
		t.Errorf("entry 0 = %+v", tr[0])
	}
	if tr[1].Source != hud.SourceUser || tr[1].Text != "ok" {
		t.Errorf("entry 1 = %+v", tr[1])
	}
}

func TestDuplicateConnect(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.Connect(context.Background()); !errors.Is(err, ErrConnected) {
		t.Fatalf("err = %v, want ErrConnected", err)
	}
}

func TestRetryBackoffExhaustion(t *testing.T) {
	h := newHarness(t, nil)
	h.dialer.failures = 100

	if err := h.a.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}

	wantDelays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range wantDelays {
		if h.timerCount() != i+1 {
			t.Fatalf("after attempt %d: %d timers", i, h.timerCount())
		}
		if got := h.fireTimer(t, i); got != want {
			t.Errorf("retry %d delay = %v, want %v", i+1, got, want)
		}
	}

	snap := h.a.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %v, want failed", snap.Status)
	}
	if h.timerCount() != len(wantDelays) {
		t.Errorf("timers = %d, want no retry past the budget", h.timerCount())
	}
	if h.dialer.dialCount() != 4 {
		t.Errorf("dials = %d, want initial + 3 retries", h.dialer.dialCount())
	}
}

func TestRetryDelayIsCapped(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.MaxRetries = 6
		cfg.RetryMaxDelay = 3 * time.Second
	})
	h.dialer.failures = 100

	_ = h.a.Connect(context.Background())
	delays := []time.Duration{}
	for i := 0; i < 4; i++ {
		delays = append(delays, h.fireTimer(t, i))
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestPermissionErrorShortCircuitsRetry(t *testing.T) {
	h := newHarness(t, nil)
	h.dialer.failures = 1
	h.dialer.failErr = &live.Error{Code: "connection_failed", Message: "denied", HTTPStatus: 403}

	if err := h.a.Connect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	snap := h.a.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %v", snap.Status)
	}
	if !snap.PermissionDenied {
		t.Error("PermissionDenied not set")
	}
	if h.timerCount() != 0 {
		t.Errorf("timers = %d, permission errors must not retry", h.timerCount())
	}
}

func TestRetryCountResetsOnOpen(t *testing.T) {
	h := newHarness(t, nil)
	h.dialer.failures = 1

	_ = h.a.Connect(context.Background())
	if got := h.fireTimer(t, 0); got != time.Second {
		t.Fatalf("first retry delay = %v", got)
	}
	waitFor(t, "open", func() bool { return h.a.Snapshot().Status == StatusOpen })

	// Drop the established session; the budget starts over.
	h.dialer.last().fail(errors.New("connection reset"))
	waitFor(t, "retry scheduled", func() bool { return h.timerCount() == 2 })
	h.mu.Lock()
	delay := h.timers[1].delay
	h.mu.Unlock()
	if delay != time.Second {
		t.Errorf("post-open retry delay = %v, want base delay again", delay)
	}
}

func TestSessionErrorTearsDownAndRetries(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := h.dialer.last()
	conn.fail(errors.New("read: connection reset"))

	waitFor(t, "teardown", func() bool {
		_, stops, closes := h.player.counts()
		return stops >= 1 && closes >= 1
	})
	waitFor(t, "retry scheduled", func() bool { return h.timerCount() == 1 })
	if h.a.Snapshot().Status != StatusConnecting {
		t.Errorf("status = %v", h.a.Snapshot().Status)
	}
}

func TestCleanRemoteCloseGoesIdle(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.dialer.last().Close()

	waitFor(t, "idle", func() bool { return h.a.Snapshot().Status == StatusIdle })
	if h.timerCount() != 0 {
		t.Errorf("timers = %d, clean close must not retry", h.timerCount())
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	h := newHarness(t, nil)

	// Disconnecting while idle is a no-op.
	h.a.Disconnect()

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := h.dialer.last()
	conn.push(&live.ServerMessage{
		ServerContent: &live.ServerContent{InputTranscription: &live.Transcription{Text: "hello"}},
	})
	waitFor(t, "transcript", func() bool { return len(h.a.Snapshot().Transcript) == 1 })

	h.a.Disconnect()
	h.a.Disconnect()

	snap := h.a.Snapshot()
	if snap.Status != StatusIdle || snap.State != nil || len(snap.Transcript) != 0 {
		t.Errorf("snapshot after disconnect = %+v", snap)
	}
	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if !closed {
		t.Error("session not closed")
	}
	_, stops, closes := h.player.counts()
	if stops != 1 || closes != 1 {
		t.Errorf("player stops=%d closes=%d, want exactly one each", stops, closes)
	}
}

func TestScreenShareGuardsAndScan(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.a.StartScreenShare(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if err := h.a.TriggerManualScan(); !errors.Is(err, ErrNotSharing) {
		t.Fatalf("err = %v, want ErrNotSharing", err)
	}

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}
	// Starting twice is a no-op.
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}
	if !h.a.Snapshot().Sharing {
		t.Fatal("not sharing")
	}

	conn := h.dialer.last()
	_, before, _ := conn.snapshot()
	micFrames := len(before)

	if err := h.a.TriggerManualScan(); err != nil {
		t.Fatal(err)
	}
	texts, media, _ := conn.snapshot()
	var jpeg *mediaMsg
	for i := range media[micFrames:] {
		if media[micFrames+i].mime == "image/jpeg" {
			jpeg = &media[micFrames+i]
		}
	}
	if jpeg == nil {
		t.Fatal("no frame sent")
	}
	if len(texts) == 0 || !strings.Contains(texts[len(texts)-1], "fresh look") {
		t.Errorf("texts = %v", texts)
	}

	h.a.StopScreenShare()
	h.a.StopScreenShare()
	if h.a.Snapshot().Sharing {
		t.Error("still sharing after stop")
	}
	h.screen.mu.Lock()
	closed := h.screen.closed
	h.screen.mu.Unlock()
	if !closed {
		t.Error("screen source not closed")
	}
}

func TestAnalyzeRegionThrottleAndBands(t *testing.T) {
	h := newHarness(t, nil)
	now := time.Unix(5000, 0)
	h.a.now = func() time.Time { return now }

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}
	conn := h.dialer.last()

	prompts := func() []string {
		texts, _, _ := conn.snapshot()
		return texts
	}

	if err := h.a.AnalyzeRegion(0.5, 0.1); err != nil {
		t.Fatal(err)
	}
	if got := prompts(); len(got) != 1 || !strings.Contains(got[0], "top area") {
		t.Fatalf("prompts = %v", got)
	}

	// Inside the throttle window: dropped, not queued.
	if err := h.a.AnalyzeRegion(0.5, 0.9); err != nil {
		t.Fatal(err)
	}
	if got := prompts(); len(got) != 1 {
		t.Fatalf("throttled request was not dropped: %v", got)
	}

	cases := []struct {
		y    float64
		want string
	}{
		{0.33, "middle"}, // lower bound is inclusive for the middle band
		{0.5, "middle"},
		{0.66, "bottom"}, // upper bound is exclusive for the middle band
		{0.9, "bottom"},
	}
	for _, c := range cases {
		now = now.Add(time.Second)
		if err := h.a.AnalyzeRegion(0.5, c.y); err != nil {
			t.Fatal(err)
		}
		got := prompts()
		if !strings.Contains(got[len(got)-1], c.want) {
			t.Errorf("y=%v: prompt %q, want %q band", c.y, got[len(got)-1], c.want)
		}
	}
}

func TestShareLoopStopsOnCaptureFailure(t *testing.T) {
	h := newHarness(t, func(cfg *Config) {
		cfg.FrameInterval = 10 * time.Millisecond
	})
	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}

	h.screen.mu.Lock()
	h.screen.grabErr = errors.New("display disconnected")
	h.screen.mu.Unlock()

	waitFor(t, "share stop", func() bool { return !h.a.Snapshot().Sharing })
}

func TestDeepAnalysisMergesOnlyDeepField(t *testing.T) {
	h := newHarness(t, nil)
	an := &fakeAnalyzer{text: "they are polarized here"}
	h.a.analyzer = an

	if err := h.a.RunDeepAnalysis(context.Background()); !errors.Is(err, ErrNotSharing) {
		t.Fatalf("err = %v, want ErrNotSharing", err)
	}

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}

	// Seed ordinary state first.
	conn := h.dialer.last()
	conn.push(&live.ServerMessage{
		ToolCall: &live.ToolCall{FunctionCalls: []*live.FunctionCall{{
			ID: "c1", Name: hud.ToolName, Args: []byte(`{"winProbability": 55}`),
		}}},
	})
	waitFor(t, "state", func() bool { return h.a.Snapshot().State != nil })

	if err := h.a.RunDeepAnalysis(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := h.a.Snapshot()
	if snap.State.DeepAnalysis != "they are polarized here" {
		t.Errorf("DeepAnalysis = %q", snap.State.DeepAnalysis)
	}
	if snap.State.WinProbability != 55 {
		t.Error("deep analysis must not touch other fields")
	}
	if snap.Analyzing {
		t.Error("analyzing flag not cleared")
	}
}

func TestDeepAnalysisClearsFlagOnFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.a.analyzer = &fakeAnalyzer{err: errors.New("quota exceeded")}

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}
	if err := h.a.RunDeepAnalysis(context.Background()); err == nil {
		t.Fatal("expected analyzer error")
	}
	if h.a.Snapshot().Analyzing {
		t.Error("analyzing flag not cleared after failure")
	}
}

func TestDeepAnalysisResultMergedAfterDisconnect(t *testing.T) {
	h := newHarness(t, nil)
	an := &fakeAnalyzer{text: "late but useful"}
	an.hook = func() { h.a.Disconnect() }
	h.a.analyzer = an

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.a.StartScreenShare(); err != nil {
		t.Fatal(err)
	}
	if err := h.a.RunDeepAnalysis(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := h.a.Snapshot()
	if snap.State == nil || snap.State.DeepAnalysis != "late but useful" {
		t.Errorf("state = %+v, want stale result merged", snap.State)
	}
}

func TestMissingAPIKeyIsFatal(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestResampledMicPath(t *testing.T) {
	h := newHarness(t, nil)
	// A 48 kHz microphone is downsampled to the 16 kHz input format.
	h.mic = newFakeMic(48000, 4, 4096)
	mic := h.mic
	h.a.openMic = func(int) (Mic, error) { return mic, nil }

	if err := h.a.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	conn := h.dialer.last()
	waitFor(t, "resampled block", func() bool {
		_, media, _ := conn.snapshot()
		for _, m := range media {
			if m.mime == "audio/pcm;rate=16000" {
				return true
			}
		}
		return false
	})
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		StatusIdle: "idle", StatusConnecting: "connecting",
		StatusOpen: "open", StatusFailed: "failed",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", int(s), s.String())
		}
	}
	if got := Status(42).String(); got != fmt.Sprintf("status(%d)", 42) {
		t.Errorf("unknown = %q", got)
	}
}
