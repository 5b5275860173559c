package agent

import (
	"context"

	"gptui/internal/logger"
)

// ModelClient 定义模型客户端接口。客户端本身无状态，每次请求携带完整对话。
type ModelClient interface {
	Stream(ctx context.Context, messages []Message) (Stream, error)
}

// Stream 是一次性、惰性的 Fragment 序列。
// Next 可能阻塞直到传输层交付下一帧；返回 false 后应检查 Err。
type Stream interface {
	Next() bool
	Current() Fragment
	Err() error
	Close() error
}

// ToLLMMessages 将内部消息转换为日志友好的结构。
func ToLLMMessages(msgs []Message) []logger.LLMMessage {
	out := make([]logger.LLMMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, logger.LLMMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}
