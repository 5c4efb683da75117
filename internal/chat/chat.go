// Package chat serves the public site assistant.
package chat

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"arq/internal/ai"
	dErrors "arq/pkg/domain-errors"
	"arq/pkg/platform/httputil"
	"arq/pkg/platform/validation"
	"arq/pkg/requestcontext"
)

const systemPrompt = `You are the website assistant for a workplace consultancy. Answer briefly and suggest the contact form for project enquiries.`

// Completer is the AI capability the assistant needs.
type Completer interface {
	Complete(ctx context.Context, p ai.Prompt) (string, error)
}

// Message is one conversation turn. Only user and assistant turns are
// accepted; the system prompt is ours.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// Request is the body of POST /api/chat.
type Request struct {
	Messages []Message `json:"messages" validate:"required,min=1,max=20,dive"`
}

func (r *Request) Normalize() {
	for i := range r.Messages {
		r.Messages[i].Role = strings.ToLower(strings.TrimSpace(r.Messages[i].Role))
		r.Messages[i].Content = strings.TrimSpace(r.Messages[i].Content)
	}
}

func (r *Request) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.Messages[len(r.Messages)-1].Role != "user" {
		return dErrors.New(dErrors.CodeValidation, "last message must be from the user")
	}
	return nil
}

func (r *Request) turns() []ai.Message {
	out := make([]ai.Message, len(r.Messages))
	for i, m := range r.Messages {
		out[i] = ai.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// Response carries the assistant's reply.
type Response struct {
	Reply string `json:"reply"`
}

type Handler struct {
	ai     Completer
	logger *slog.Logger
}

func New(completer Completer, logger *slog.Logger) *Handler {
	return &Handler{ai: completer, logger: logger}
}

var errChatFailed = dErrors.New(dErrors.CodeUpstream, "assistant is unavailable")

// HandleChat implements POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[Request](w, r, h.logger)
	if !ok {
		return
	}

	reply, err := h.ai.Complete(ctx, ai.Prompt{
		System:      systemPrompt,
		Messages:    req.turns(),
		MaxTokens:   500,
		Temperature: 0.5,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "chat completion failed",
			"error", err,
			"turns", len(req.Messages),
			"request_id", requestID,
		)
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteError(w, errChatFailed)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &Response{Reply: reply})
}
