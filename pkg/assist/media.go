package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tablesight/tablesight/pkg/frame"
	"github.com/tablesight/tablesight/pkg/hud"
)

// StartScreenShare opens the screen source and starts the two capture
// timers: the low-quality frame tick and the periodic refresh prompt.
// Starting while already sharing is a no-op.
func (a *Assistant) StartScreenShare() error {
	a.mu.Lock()
	if a.session == nil {
		a.mu.Unlock()
		return ErrNotConnected
	}
	if a.sharing {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	src, err := a.openScreen()
	if err != nil {
		return fmt.Errorf("assist: open screen: %w", err)
	}

	a.mu.Lock()
	if a.sharing || a.session == nil {
		a.mu.Unlock()
		_ = src.Close()
		if a.session == nil {
			return ErrNotConnected
		}
		return nil
	}
	a.screen = frame.New(src, a.cfg.Frames)
	a.sharing = true
	stop := make(chan struct{})
	a.shareStop = stop
	a.mu.Unlock()
	a.notifyChange()

	go a.shareLoop(stop)
	return nil
}

// shareLoop drives the periodic frame and refresh timers. A capture failure
// (screen gone, permission revoked) converges on the same stop routine a
// user-initiated stop uses.
func (a *Assistant) shareLoop(stop <-chan struct{}) {
	frameTick := time.NewTicker(a.cfg.FrameInterval)
	defer frameTick.Stop()
	refreshTick := time.NewTicker(a.cfg.RefreshInterval)
	defer refreshTick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-frameTick.C:
			if err := a.sendFrame(frame.QualityLow, ""); err != nil {
				slog.Warn("screen capture failed, stopping share", "error", err)
				a.StopScreenShare()
				return
			}
		case <-refreshTick.C:
			a.mu.Lock()
			conn := a.session
			a.mu.Unlock()
			if conn != nil {
				if err := conn.SendText(a.cfg.RefreshPrompt); err != nil {
					slog.Debug("refresh prompt failed", "error", err)
				}
			}
		}
	}
}

// StopScreenShare halts the capture timers and releases the screen source.
// Fully idempotent.
func (a *Assistant) StopScreenShare() {
	a.mu.Lock()
	if !a.sharing {
		a.mu.Unlock()
		return
	}
	a.sharing = false
	stop := a.shareStop
	a.shareStop = nil
	screen := a.screen
	a.screen = nil
	a.mu.Unlock()

	close(stop)
	if screen != nil {
		_ = screen.Close()
	}
	a.notifyChange()
}

// TriggerManualScan sends one high-quality frame with the scan prompt.
func (a *Assistant) TriggerManualScan() error {
	a.mu.Lock()
	ok := a.session != nil && a.sharing
	a.mu.Unlock()
	if !ok {
		return ErrNotSharing
	}
	return a.sendFrame(frame.QualityHigh, a.cfg.ScanPrompt)
}

// AnalyzeRegion sends a high-quality frame with a prompt focused on the
// horizontal band the point falls into. x and y are normalized to [0, 1];
// only y selects the band (bands span the full width). Requests inside the
// throttle window are dropped, not queued.
func (a *Assistant) AnalyzeRegion(x, y float64) error {
	_ = x

	a.mu.Lock()
	if a.session == nil || !a.sharing {
		a.mu.Unlock()
		return ErrNotSharing
	}
	now := a.now()
	if now.Sub(a.lastAnalyze) < a.cfg.AnalyzeThrottle {
		a.mu.Unlock()
		return nil
	}
	a.lastAnalyze = now
	a.mu.Unlock()

	return a.sendFrame(frame.QualityHigh, a.regionPrompt(y))
}

// regionPrompt maps a normalized y to a band prompt. Bands are half-open:
// [0, low) top, [low, high) middle, [high, 1] bottom.
func (a *Assistant) regionPrompt(y float64) string {
	switch {
	case y < a.cfg.RegionLowY:
		return a.cfg.RegionTopPrompt
	case y < a.cfg.RegionHighY:
		return a.cfg.RegionMiddlePrompt
	default:
		return a.cfg.RegionBottomPrompt
	}
}

// sendFrame captures one frame at the given quality and sends it, followed
// by the prompt if non-empty. A source with no frame yet is a silent no-op.
func (a *Assistant) sendFrame(q frame.Quality, prompt string) error {
	a.mu.Lock()
	conn := a.session
	screen := a.screen
	a.mu.Unlock()
	if conn == nil || screen == nil {
		return nil
	}

	a.frameMu.Lock()
	img, err := screen.Capture(q)
	a.frameMu.Unlock()
	if err != nil {
		return err
	}
	if img == nil {
		return nil
	}

	if err := conn.SendMedia(img.MIMEType, img.Data); err != nil {
		return err
	}
	if prompt != "" {
		return conn.SendText(prompt)
	}
	return nil
}

// RunDeepAnalysis captures a high-quality frame and runs it through the pro
// model in a one-shot request, independent of the realtime session. Only the
// DeepAnalysis field is merged. The result is merged even if the session
// dropped or restarted while the request was in flight; a slightly stale
// deep read is still useful.
func (a *Assistant) RunDeepAnalysis(ctx context.Context) error {
	a.mu.Lock()
	if !a.sharing {
		a.mu.Unlock()
		return ErrNotSharing
	}
	if a.analyzing {
		a.mu.Unlock()
		return nil
	}
	a.analyzing = true
	screen := a.screen
	a.mu.Unlock()
	a.notifyChange()

	defer func() {
		a.mu.Lock()
		a.analyzing = false
		a.mu.Unlock()
		a.notifyChange()
	}()

	a.frameMu.Lock()
	img, err := screen.Capture(frame.QualityHigh)
	a.frameMu.Unlock()
	if err != nil {
		return fmt.Errorf("assist: deep analysis capture: %w", err)
	}
	if img == nil {
		return errors.New("assist: no frame available yet")
	}

	analyzer, err := a.getAnalyzer(ctx)
	if err != nil {
		return err
	}
	text, err := analyzer.Analyze(ctx, a.cfg.DeepPrompt, img)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.state == nil {
		a.state = new(hud.State)
	}
	a.state.DeepAnalysis = text
	a.mu.Unlock()
	a.notifyChange()
	return nil
}

func (a *Assistant) getAnalyzer(ctx context.Context) (Analyzer, error) {
	a.mu.Lock()
	if a.analyzer != nil {
		an := a.analyzer
		a.mu.Unlock()
		return an, nil
	}
	a.mu.Unlock()

	an, err := NewGenAIAnalyzer(ctx, a.cfg.APIKey, a.cfg.ProModel)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	if a.analyzer == nil {
		a.analyzer = an
	}
	an2 := a.analyzer
	a.mu.Unlock()
	return an2, nil
}

var _ = hud.ToolName
