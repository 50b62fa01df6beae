// Package assistant holds the chat widget's conversation state machine: a
// transcript, an open/closed flag, and a single-flight request cycle against
// the generative-AI collaborator.
package assistant

import (
	"context"
	"strings"
	"sync"

	"github.com/SurajPadalkar17/Kids-Paradise/internal/gemini"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Fixed user-facing replies. FallbackReply is used when the provider answers
// without the expected text path, ErrorReply when the call itself fails.
const (
	FallbackReply = "Sorry, I could not process your request."
	ErrorReply    = "Sorry, there was an error processing your request."
)

// ContentSource is the one provider call the widget makes per turn. Each call
// carries only the current prompt; no transcript history is sent.
type ContentSource interface {
	GenerateContent(ctx context.Context, prompt string) (*gemini.GenerateContentResponse, error)
}

type Widget struct {
	source ContentSource

	mu         sync.Mutex
	open       bool
	pending    bool
	transcript []Message
	sessionCtx context.Context
	cancel     context.CancelFunc
}

func New(source ContentSource) *Widget {
	return &Widget{source: source}
}

func (w *Widget) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open {
		return
	}
	w.open = true
	w.sessionCtx, w.cancel = context.WithCancel(context.Background())
}

// Close cancels the session context, so a request still in flight cannot
// append to the transcript afterwards. The transcript itself survives until
// the widget is discarded.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return
	}
	w.open = false
	w.cancel()
}

func (w *Widget) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

func (w *Widget) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

func (w *Widget) Transcript() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Message, len(w.transcript))
	copy(out, w.transcript)
	return out
}

// Send runs one conversation turn and blocks for the provider round trip.
// It reports false when the submission is dropped: blank input, widget
// closed, or a request already pending. A dropped submission is not queued.
func (w *Widget) Send(input string) bool {
	input = strings.TrimSpace(input)

	w.mu.Lock()
	if input == "" || !w.open || w.pending {
		w.mu.Unlock()
		return false
	}
	w.pending = true
	ctx := w.sessionCtx
	w.transcript = append(w.transcript, Message{Role: RoleUser, Content: input})
	w.mu.Unlock()

	reply := ErrorReply
	resp, err := w.source.GenerateContent(ctx, input)
	if err == nil {
		if text, ok := resp.Text(); ok {
			reply = text
		} else {
			reply = FallbackReply
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = false
	if ctx.Err() != nil {
		// Widget was closed mid-flight; the turn's reply is discarded.
		return true
	}
	w.transcript = append(w.transcript, Message{Role: RoleAssistant, Content: reply})
	return true
}
