package live

import "github.com/google/jsonschema-go/jsonschema"

// clientMessage is the envelope for every message sent to the server.
// Exactly one field is set per message.
type clientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *ToolResponse  `json:"toolResponse,omitempty"`
}

// Setup is the first message of a session. It declares the model, system
// instruction, tools, response modality and transcription flags.
type Setup struct {
	Model                    string                    `json:"model"`
	GenerationConfig         *GenerationConfig         `json:"generationConfig,omitempty"`
	SystemInstruction        *Content                  `json:"systemInstruction,omitempty"`
	Tools                    []*Tool                   `json:"tools,omitempty"`
	InputAudioTranscription  *AudioTranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *AudioTranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// GenerationConfig selects response modalities and voice.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// SpeechConfig configures audio responses.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// VoiceConfig selects a voice.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig names one of the server's stock voices.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

// AudioTranscriptionConfig requests transcription of an audio direction.
// The empty object enables it.
type AudioTranscriptionConfig struct{}

// Content is a sequence of parts with an optional role.
type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts,omitempty"`
}

// Part is one piece of content: text or inline binary data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Blob is base64 data with a MIME tag, e.g. audio/pcm;rate=16000 or
// image/jpeg.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Tool declares callable functions to the model.
type Tool struct {
	FunctionDeclarations []*FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// FunctionDeclaration declares one callable with JSON-Schema typed
// parameters.
type FunctionDeclaration struct {
	Name                 string             `json:"name"`
	Description          string             `json:"description,omitempty"`
	ParametersJSONSchema *jsonschema.Schema `json:"parametersJsonSchema,omitempty"`
}

// RealtimeInput is one realtime input unit: a text instruction or media
// payloads.
type RealtimeInput struct {
	Text        string  `json:"text,omitempty"`
	MediaChunks []*Blob `json:"mediaChunks,omitempty"`
}

// ToolResponse acknowledges function-call invocations.
type ToolResponse struct {
	FunctionResponses []*FunctionResponse `json:"functionResponses,omitempty"`
}

// FunctionResponse is the reply to one function call, keyed by its id.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name,omitempty"`
	Response map[string]any `json:"response,omitempty"`
}
