// Package claude adapts the Anthropic API for the two Claude-backed
// pipeline stages: primary document analysis and the vision fallback.
package claude

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kirillkom/case-analysis-backend/internal/infrastructure/resilience"
)

type Client struct {
	api      anthropic.Client
	executor *resilience.Executor
}

func New(apiKey string, executor *resilience.Executor) *Client {
	return &Client{
		api:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		executor: executor,
	}
}

// message sends one Messages.New call through the retry executor.
func (c *Client) message(ctx context.Context, operation string, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	var resp *anthropic.Message
	err := c.executor.Execute(ctx, operation, func(ctx context.Context) error {
		var callErr error
		resp, callErr = c.api.Messages.New(ctx, params)
		return callErr
	}, classifyAnthropicError)
	if err != nil {
		return nil, mapAnthropicError(operation, err)
	}
	return resp, nil
}

func messageText(msg *anthropic.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
