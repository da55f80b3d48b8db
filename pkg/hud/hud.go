// Package hud holds the analysis state the assistant paints for the player:
// the structured poker read produced by tool calls, plus the running
// transcript of both audio directions.
package hud

// State is the current table read. It is a plain value; the orchestrator is
// the single writer and hands out copies to readers.
type State struct {
	WinProbability   float64  `json:"winProbability"`
	Equity           float64  `json:"equity,omitempty"`
	PotOdds          float64  `json:"potOdds,omitempty"`
	SuggestedAction  string   `json:"suggestedAction"`
	Reasoning        string   `json:"reasoning"`
	HandStrength     string   `json:"handStrength"`
	HoleCards        []string `json:"holeCards"`
	CommunityCards   []string `json:"communityCards"`
	OpponentEstimate string   `json:"opponentEstimate,omitempty"`
	OpponentRange    string   `json:"opponentRange,omitempty"`

	// DeepAnalysis is written only by the deep-analysis flow, never by
	// ordinary updates.
	DeepAnalysis string `json:"deepAnalysis,omitempty"`
}

// Update is a partial state change. A nil field means "not mentioned" and
// preserves the previous value. A decoded empty array is non-nil and
// therefore overwrites.
type Update struct {
	WinProbability   *float64 `json:"winProbability,omitempty"`
	Equity           *float64 `json:"equity,omitempty"`
	PotOdds          *float64 `json:"potOdds,omitempty"`
	SuggestedAction  *string  `json:"suggestedAction,omitempty"`
	Reasoning        *string  `json:"reasoning,omitempty"`
	HandStrength     *string  `json:"handStrength,omitempty"`
	HoleCards        []string `json:"holeCards,omitempty"`
	CommunityCards   []string `json:"communityCards,omitempty"`
	OpponentEstimate *string  `json:"opponentEstimate,omitempty"`
	OpponentRange    *string  `json:"opponentRange,omitempty"`
}

// Apply merges u into s. Present fields overwrite, absent fields are
// preserved. DeepAnalysis is untouched.
func (s *State) Apply(u *Update) {
	if u == nil {
		return
	}
	if u.WinProbability != nil {
		s.WinProbability = *u.WinProbability
	}
	if u.Equity != nil {
		s.Equity = *u.Equity
	}
	if u.PotOdds != nil {
		s.PotOdds = *u.PotOdds
	}
	if u.SuggestedAction != nil {
		s.SuggestedAction = *u.SuggestedAction
	}
	if u.Reasoning != nil {
		s.Reasoning = *u.Reasoning
	}
	if u.HandStrength != nil {
		s.HandStrength = *u.HandStrength
	}
	if u.HoleCards != nil {
		s.HoleCards = u.HoleCards
	}
	if u.CommunityCards != nil {
		s.CommunityCards = u.CommunityCards
	}
	if u.OpponentEstimate != nil {
		s.OpponentEstimate = *u.OpponentEstimate
	}
	if u.OpponentRange != nil {
		s.OpponentRange = *u.OpponentRange
	}
}

// Clone returns a deep copy safe to hand to readers.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.HoleCards = append([]string(nil), s.HoleCards...)
	out.CommunityCards = append([]string(nil), s.CommunityCards...)
	return &out
}
