package agent

// Fragment 是流式响应中的一个增量单元。
// 变体集合是封闭的：只有本包内的类型实现 isFragment，消费方 switch 时应保留 default 分支以兼容未来新增变体。
type Fragment interface {
	isFragment()
}

// Content 携带助手输出的一段增量文本，Index 对应响应槽位（choice/output index）。
type Content struct {
	Delta string
	Index int
}

// Metadata 描述响应本身（id、模型名），不产生可见输出。
type Metadata struct {
	ID    string
	Model string
}

// Finish 标记某个响应槽位结束。
type Finish struct {
	Index  int
	Reason string
}

// Usage 报告 token 用量。
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Failure 表示传输层在流中途报告的错误。
type Failure struct {
	Err error
}

func (Content) isFragment()  {}
func (Metadata) isFragment() {}
func (Finish) isFragment()   {}
func (Usage) isFragment()    {}
func (Failure) isFragment()  {}
