package history

import "gptui/internal/agent"

// Conversation 是一次会话内按时间顺序排列、只追加的消息记录。
// 只有会话循环持有并写入它，因此不需要加锁。
type Conversation struct {
	messages []agent.Message
}

func New() *Conversation {
	return &Conversation{}
}

// Append 追加消息，多条消息按参数顺序写入。
func (c *Conversation) Append(msgs ...agent.Message) {
	c.messages = append(c.messages, msgs...)
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages 返回记录的副本，调用方修改副本不会影响历史。
func (c *Conversation) Messages() []agent.Message {
	return append([]agent.Message(nil), c.messages...)
}

// With 返回历史加上 pending 的副本，用于构造请求而不提前写入历史。
func (c *Conversation) With(pending ...agent.Message) []agent.Message {
	out := make([]agent.Message, 0, len(c.messages)+len(pending))
	out = append(out, c.messages...)
	return append(out, pending...)
}
