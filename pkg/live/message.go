package live

import (
	"encoding/json"
	"strings"
)

// ServerMessage is one asynchronous message from the server. Any combination
// of fields may be present; a message may carry zero or more of tool calls,
// inline audio and transcription fragments.
type ServerMessage struct {
	SetupComplete *SetupComplete `json:"setupComplete,omitempty"`
	ServerContent *ServerContent `json:"serverContent,omitempty"`
	ToolCall      *ToolCall      `json:"toolCall,omitempty"`
	GoAway        *GoAway        `json:"goAway,omitempty"`

	// Raw is the unparsed message for debugging.
	Raw json.RawMessage `json:"-"`
}

// SetupComplete confirms the setup message was accepted.
type SetupComplete struct{}

// ServerContent carries model output and transcription fragments.
type ServerContent struct {
	ModelTurn           *Content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	OutputTranscription *Transcription `json:"outputTranscription,omitempty"`
	InputTranscription  *Transcription `json:"inputTranscription,omitempty"`
}

// Transcription is a fragment of transcribed audio.
type Transcription struct {
	Text string `json:"text,omitempty"`
}

// ToolCall asks the client to execute function-call invocations.
type ToolCall struct {
	FunctionCalls []*FunctionCall `json:"functionCalls,omitempty"`
}

// FunctionCall is one invocation: id, name, and raw JSON arguments.
type FunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// GoAway warns that the server will close the connection.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// AudioChunks returns the base64 payloads of inline PCM audio parts, in
// order.
func (m *ServerMessage) AudioChunks() []string {
	if m.ServerContent == nil || m.ServerContent.ModelTurn == nil {
		return nil
	}
	var out []string
	for _, p := range m.ServerContent.ModelTurn.Parts {
		if p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "audio/pcm") {
			out = append(out, p.InlineData.Data)
		}
	}
	return out
}

// OutputTranscript returns the output (assistant) transcription fragment, or
// "".
func (m *ServerMessage) OutputTranscript() string {
	if m.ServerContent == nil || m.ServerContent.OutputTranscription == nil {
		return ""
	}
	return m.ServerContent.OutputTranscription.Text
}

// InputTranscript returns the input (user) transcription fragment, or "".
func (m *ServerMessage) InputTranscript() string {
	if m.ServerContent == nil || m.ServerContent.InputTranscription == nil {
		return ""
	}
	return m.ServerContent.InputTranscription.Text
}
