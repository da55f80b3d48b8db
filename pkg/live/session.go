package live

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Session is an open duplex connection. Send methods are safe for concurrent
// use; Events must be consumed by a single goroutine.
type Session struct {
	conn      *websocket.Conn
	config    *ConnectConfig
	closeCh   chan struct{}
	eventsCh  chan messageOrError
	closeOnce sync.Once
	mu        sync.Mutex
}

type messageOrError struct {
	msg *ServerMessage
	err error
}

// SendText sends a text instruction as a realtime input unit.
func (s *Session) SendText(text string) error {
	return s.send(&clientMessage{
		RealtimeInput: &RealtimeInput{Text: text},
	})
}

// SendMedia sends one media payload (base64 data with a MIME tag) as a
// realtime input unit.
func (s *Session) SendMedia(mimeType, data string) error {
	return s.send(&clientMessage{
		RealtimeInput: &RealtimeInput{
			MediaChunks: []*Blob{{MIMEType: mimeType, Data: data}},
		},
	})
}

// SendToolResponse acknowledges a function-call invocation by id, reporting
// the given result object.
func (s *Session) SendToolResponse(id, name string, result map[string]any) error {
	return s.send(&clientMessage{
		ToolResponse: &ToolResponse{
			FunctionResponses: []*FunctionResponse{
				{ID: id, Name: name, Response: result},
			},
		},
	})
}

// Events returns an iterator over server messages. The iterator yields until
// the session is closed or a read error occurs; after an error is yielded,
// iteration stops.
func (s *Session) Events() iter.Seq2[*ServerMessage, error] {
	return func(yield func(*ServerMessage, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.msg, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// Close closes the session. Safe to call multiple times.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) sendSetup(setup *Setup) error {
	return s.send(&clientMessage{Setup: setup})
}

func (s *Session) send(msg *clientMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closeCh:
		return fmt.Errorf("live: session closed")
	default:
	}

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.Marshal(msg); err == nil {
			str := string(b)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("live: sending", "content", str)
		}
	}

	return s.conn.WriteJSON(msg)
}

// readLoop reads messages from the WebSocket connection and forwards them to
// the events channel.
func (s *Session) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- messageOrError{err: fmt.Errorf("live: read: %w", err)}:
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			str := string(data)
			if len(str) > 1000 {
				str = str[:1000] + "..."
			}
			slog.Debug("live: received", "len", len(data), "content", str)
		}

		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case <-s.closeCh:
				return
			case s.eventsCh <- messageOrError{err: fmt.Errorf("live: parse: %w", err)}:
			}
			continue
		}
		msg.Raw = data

		select {
		case <-s.closeCh:
			return
		case s.eventsCh <- messageOrError{msg: &msg}:
		}
	}
}
