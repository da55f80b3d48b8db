// Package live implements a client for the Gemini Live API over WebSocket
// (the BidiGenerateContent wire protocol).
//
// A Client opens duplex sessions; a Session carries realtime input units
// (text instructions and media payloads) upstream and yields server messages
// (tool calls, inline audio, transcription fragments) downstream through an
// iterator fed by a background read loop.
//
// Basic usage:
//
//	client := live.NewClient(apiKey)
//	session, err := client.Connect(ctx, &live.ConnectConfig{
//		Model:             "gemini-2.0-flash-live-001",
//		SystemInstruction: "You are a poker assistant.",
//	})
//	if err != nil { ... }
//	defer session.Close()
//
//	for msg, err := range session.Events() {
//		if err != nil { ... }
//		// dispatch msg
//	}
//
// The transport is assumed to preserve message order; the package does not
// re-verify ordering.
package live
