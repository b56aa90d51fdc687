package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser   = "user"
	RoleSystem = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Result struct {
	Text     string
	Usage    Usage
	Duration time.Duration
}

// Request carries only the conversation. Each client answers with the model
// it was configured with, so a fallback chain never forwards one provider's
// model name to another.
type Request struct {
	Messages []Message
}

type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}

var ErrEmptyResponse = errors.New("llm: empty response")

// UserPrompt builds a single-turn request.
func UserPrompt(prompt string) Request {
	return Request{Messages: []Message{{Role: RoleUser, Content: prompt}}}
}

// Fallback tries each client in order and returns the first non-empty
// answer. The error lists every failure when all of them fail.
type Fallback []Client

func (f Fallback) Chat(ctx context.Context, req Request) (Result, error) {
	var errs []error
	for i, c := range f {
		if c == nil {
			continue
		}
		res, err := c.Chat(ctx, req)
		if err == nil && strings.TrimSpace(res.Text) == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			return res, nil
		}
		errs = append(errs, fmt.Errorf("client %d: %w", i, err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return Result{}, fmt.Errorf("llm: no client configured")
	}
	return Result{}, errors.Join(errs...)
}
