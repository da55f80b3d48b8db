package assist

import (
	"time"

	"github.com/tablesight/tablesight/pkg/audio/pcm"
	"github.com/tablesight/tablesight/pkg/frame"
)

// Default model identifiers. The live model carries the realtime session,
// the pro model serves deep analysis, the lite model is reserved for cheap
// auxiliary calls.
const (
	DefaultLiveModel = "gemini-2.0-flash-live-001"
	DefaultProModel  = "gemini-2.5-pro"
	DefaultLiteModel = "gemini-2.5-flash-lite"

	DefaultVoice = "Puck"
)

// Default prompt templates. The system instruction itself is opaque
// configuration supplied by the caller.
const (
	defaultScanPrompt    = "Take a fresh look at the table on screen and update the analysis."
	defaultRefreshPrompt = "Re-check the current screen. If the situation changed, update the analysis."
	defaultDeepPrompt    = "Study this poker table carefully. Give a thorough strategic analysis: ranges, equity, and the best line with reasoning."

	defaultRegionTopPrompt    = "Focus on the top area of the screen (opponents and their stacks) and update the analysis."
	defaultRegionMiddlePrompt = "Focus on the middle of the screen (the board and pot) and update the analysis."
	defaultRegionBottomPrompt = "Focus on the bottom of the screen (my hole cards and stack) and update the analysis."
)

// Config is the full tunable surface of the assistant. The zero value of
// most fields selects a sensible default.
type Config struct {
	// APIKey authenticates both the realtime session and deep analysis.
	// Required.
	APIKey string

	LiveModel string
	ProModel  string
	LiteModel string

	Voice             string
	SystemInstruction string

	// InputFormat is the microphone format sent upstream, OutputFormat the
	// model's native audio format played back.
	InputFormat  pcm.Format
	OutputFormat pcm.Format

	// BlockSize is the number of samples per outgoing microphone block.
	BlockSize int

	// FrameInterval is the periodic low-quality frame tick while sharing;
	// RefreshInterval is the periodic re-check prompt.
	FrameInterval   time.Duration
	RefreshInterval time.Duration

	// AnalyzeThrottle is the minimum spacing between region analyses;
	// requests inside the window are dropped, not queued.
	AnalyzeThrottle time.Duration

	// MergeWindow is the transcript coalescing window.
	MergeWindow time.Duration

	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// RegionLowY and RegionHighY split the screen into three horizontal
	// bands by normalized Y. Bands are half-open: [0, low) is top,
	// [low, high) is middle, [high, 1] is bottom.
	RegionLowY  float64
	RegionHighY float64

	Frames frame.Config

	ScanPrompt    string
	RefreshPrompt string
	DeepPrompt    string

	RegionTopPrompt    string
	RegionMiddlePrompt string
	RegionBottomPrompt string
}

func (c *Config) withDefaults() {
	if c.LiveModel == "" {
		c.LiveModel = DefaultLiveModel
	}
	if c.ProModel == "" {
		c.ProModel = DefaultProModel
	}
	if c.LiteModel == "" {
		c.LiteModel = DefaultLiteModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.InputFormat == 0 {
		c.InputFormat = pcm.L16Mono16K
	}
	if c.OutputFormat == 0 {
		c.OutputFormat = pcm.L16Mono24K
	}
	if c.BlockSize == 0 {
		c.BlockSize = 4096
	}
	if c.FrameInterval == 0 {
		c.FrameInterval = time.Second
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = 10 * time.Second
	}
	if c.AnalyzeThrottle == 0 {
		c.AnalyzeThrottle = 500 * time.Millisecond
	}
	if c.MergeWindow == 0 {
		c.MergeWindow = 2 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay == 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RetryMaxDelay == 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	if c.RegionLowY == 0 {
		c.RegionLowY = 0.33
	}
	if c.RegionHighY == 0 {
		c.RegionHighY = 0.66
	}
	if c.ScanPrompt == "" {
		c.ScanPrompt = defaultScanPrompt
	}
	if c.RefreshPrompt == "" {
		c.RefreshPrompt = defaultRefreshPrompt
	}
	if c.DeepPrompt == "" {
		c.DeepPrompt = defaultDeepPrompt
	}
	if c.RegionTopPrompt == "" {
		c.RegionTopPrompt = defaultRegionTopPrompt
	}
	if c.RegionMiddlePrompt == "" {
		c.RegionMiddlePrompt = defaultRegionMiddlePrompt
	}
	if c.RegionBottomPrompt == "" {
		c.RegionBottomPrompt = defaultRegionBottomPrompt
	}
}
