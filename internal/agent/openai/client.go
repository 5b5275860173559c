package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gptui/internal/agent"
	"gptui/internal/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	WireAPI string
}

type Client struct {
	api   *openai.Client
	model string
	wire  string
}

// 确保Client实现了agent.ModelClient接口
var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	if strings.TrimSpace(opts.Model) == "" {
		return nil, errors.New("missing model")
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(normalizeBaseURL(base)))
	}
	client := openai.NewClient(cfg...)

	return &Client{
		api:   &client,
		model: strings.TrimSpace(opts.Model),
		wire:  strings.ToLower(strings.TrimSpace(opts.WireAPI)),
	}, nil
}

// normalizeBaseURL 允许用户把完整的接口地址填进 base_url。
func normalizeBaseURL(raw string) string {
	return agent.ServiceBaseURL(raw, "/v1", "/chat/completions", "/completions", "/responses")
}

// Stream 发起一次流式请求。HTTP 错误不会在这里返回，而是通过 Stream.Err 暴露。
func (c *Client) Stream(ctx context.Context, messages []agent.Message) (agent.Stream, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send")
	}
	logger.Request(c.model, agent.ToLLMMessages(messages))
	var stream agent.Stream
	if c.wire == "responses" {
		stream = c.streamResponses(ctx, messages)
	} else {
		stream = c.streamChat(ctx, messages)
	}
	return agent.WithLogging(stream, c.model, wrapHTTPError), nil
}

func (c *Client) streamChat(ctx context.Context, messages []agent.Message) agent.Stream {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toChatMessages(messages),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	return agent.ExpandFrames[openai.ChatCompletionChunk](c.api.Chat.Completions.NewStreaming(ctx, params), chatChunkFragments)
}

func (c *Client) streamResponses(ctx context.Context, messages []agent.Message) agent.Stream {
	params := buildResponseParams(messages, c.model)
	return agent.ExpandFrames[responses.ResponseStreamEventUnion](c.api.Responses.NewStreaming(ctx, params), responseEventFragments)
}

// chatChunkFragments 将一个 chat completion chunk 展开为 Fragment。
// 一个 chunk 可能携带多个 choice，每个 choice 的 Index 原样保留。
func chatChunkFragments(chunk openai.ChatCompletionChunk) []agent.Fragment {
	var out []agent.Fragment
	if chunk.ID != "" || chunk.Model != "" {
		out = append(out, agent.Metadata{ID: chunk.ID, Model: chunk.Model})
	}
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			out = append(out, agent.Content{Delta: choice.Delta.Content, Index: int(choice.Index)})
		}
		if choice.FinishReason != "" {
			out = append(out, agent.Finish{Index: int(choice.Index), Reason: choice.FinishReason})
		}
	}
	if chunk.Usage.TotalTokens > 0 {
		out = append(out, agent.Usage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
		})
	}
	return out
}

func responseEventFragments(event responses.ResponseStreamEventUnion) []agent.Fragment {
	switch v := event.AsAny().(type) {
	case responses.ResponseCreatedEvent:
		return []agent.Fragment{agent.Metadata{ID: v.Response.ID, Model: string(v.Response.Model)}}
	case responses.ResponseTextDeltaEvent:
		if v.Delta != "" {
			return []agent.Fragment{agent.Content{Delta: v.Delta, Index: int(v.OutputIndex)}}
		}
	case responses.ResponseErrorEvent:
		return []agent.Fragment{agent.Failure{Err: errors.New(v.Message)}}
	case responses.ResponseFailedEvent:
		if msg := v.Response.Error.Message; msg != "" {
			return []agent.Fragment{agent.Failure{Err: errors.New(msg)}}
		}
		return []agent.Fragment{agent.Failure{Err: errors.New("response failed")}}
	case responses.ResponseCompletedEvent:
		return []agent.Fragment{
			agent.Usage{
				PromptTokens:     v.Response.Usage.InputTokens,
				CompletionTokens: v.Response.Usage.OutputTokens,
			},
			agent.Finish{Reason: "completed"},
		}
	}
	return nil
}

func toChatMessages(msgs []agent.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case agent.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func buildResponseParams(messages []agent.Message, model string) responses.ResponseNewParams {
	instructions, convo := splitInstructions(messages)
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}
	if len(convo) > 0 {
		params.Input.OfInputItemList = responses.ResponseInputParam(toResponseInput(convo))
	}
	return params
}

func wrapHTTPError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		respDump := strings.TrimSpace(string(apiErr.DumpResponse(true)))
		if respDump != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, respDump)
		}
		raw := strings.TrimSpace(apiErr.RawJSON())
		if raw != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, raw)
		}
		return fmt.Errorf("http_%d: %v", apiErr.StatusCode, err)
	}
	return err
}

func toResponseInput(msgs []agent.Message) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, responses.ResponseInputItemParamOfMessage(msg.Content, toResponseRole(msg.Role)))
	}
	return items
}

func toResponseRole(role agent.Role) responses.EasyInputMessageRole {
	switch role {
	case agent.RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case agent.RoleSystem:
		return responses.EasyInputMessageRoleSystem
	default:
		return responses.EasyInputMessageRoleUser
	}
}

func splitInstructions(messages []agent.Message) (string, []agent.Message) {
	var instructions []string
	convo := make([]agent.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == agent.RoleSystem {
			instructions = append(instructions, strings.TrimSpace(msg.Content))
			continue
		}
		convo = append(convo, msg)
	}
	return strings.Join(instructions, "\n\n"), convo
}
