// Package llm wraps single-turn chat completions behind a narrow interface so
// callers can degrade to deterministic output when the model is unavailable.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var (
	// ErrUnavailable is returned when no provider is configured.
	ErrUnavailable   = errors.New("language model unavailable")
	ErrEmptyResponse = errors.New("language model returned an empty response")
)

type Request struct {
	SystemInstruction string
	UserMessage       string
	MaxTokens         int
	Temperature       float32
}

type Response struct {
	Text string
}

// ChatService issues one non-streaming chat request.
type ChatService interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// EinoChat adapts an eino chat model to ChatService.
type EinoChat struct {
	model model.BaseChatModel
}

func NewEinoChat(m model.BaseChatModel) *EinoChat {
	return &EinoChat{model: m}
}

func (c *EinoChat) Complete(ctx context.Context, req Request) (Response, error) {
	messages := make([]*schema.Message, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, schema.SystemMessage(req.SystemInstruction))
	}
	messages = append(messages, schema.UserMessage(req.UserMessage))

	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	opts = append(opts, model.WithTemperature(req.Temperature))

	resp, err := c.model.Generate(ctx, messages, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("chat generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return Response{}, ErrEmptyResponse
	}
	return Response{Text: resp.Content}, nil
}

// Disabled is used when no provider is configured; every call fails with ErrUnavailable.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
}
