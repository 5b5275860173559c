package anthropic

import (
	"context"
	"errors"
	"strings"

	"gptui/internal/agent"
	"gptui/internal/logger"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

type Options struct {
	Token     string
	BaseURL   string
	Model     string
	MaxTokens int64
}

type Client struct {
	api       *anthropic.Client
	model     string
	maxTokens int64
}

var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("missing token")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("missing model")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	client := anthropic.NewClient(reqOpts...)
	return &Client{
		api:       &client,
		model:     strings.TrimSpace(opts.Model),
		maxTokens: maxTokens,
	}, nil
}

// normalizeBaseURL 去掉 /v1 与 /v1/messages，SDK 会自己拼接。
func normalizeBaseURL(raw string) string {
	return agent.ServiceBaseURL(raw, "", "/messages")
}

func (c *Client) Stream(ctx context.Context, messages []agent.Message) (agent.Stream, error) {
	params := buildMessageParams(messages, anthropic.Model(c.model), c.maxTokens)
	if len(params.Messages) == 0 {
		return nil, errors.New("no messages to send")
	}
	logger.Request(c.model, agent.ToLLMMessages(messages))
	stream := c.api.Messages.NewStreaming(ctx, params)
	return agent.WithLogging(agent.ExpandFrames[anthropic.MessageStreamEventUnion](stream, eventFragments), c.model, nil), nil
}

func eventFragments(event anthropic.MessageStreamEventUnion) []agent.Fragment {
	switch v := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		return []agent.Fragment{agent.Metadata{ID: v.Message.ID, Model: string(v.Message.Model)}}
	case anthropic.ContentBlockDeltaEvent:
		switch d := v.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if d.Text != "" {
				return []agent.Fragment{agent.Content{Delta: d.Text, Index: int(v.Index)}}
			}
		}
	case anthropic.MessageDeltaEvent:
		out := []agent.Fragment{agent.Usage{
			PromptTokens:     v.Usage.InputTokens,
			CompletionTokens: v.Usage.OutputTokens,
		}}
		if reason := string(v.Delta.StopReason); reason != "" {
			out = append(out, agent.Finish{Reason: reason})
		}
		return out
	}
	return nil
}

func buildMessageParams(msgs []agent.Message, model anthropic.Model, maxTokens int64) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, msg := range msgs {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case agent.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: text})
		case agent.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	return params
}
