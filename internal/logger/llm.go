package logger

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// LLMMessage 是请求日志里的一条消息。
type LLMMessage struct {
	Role    string
	Content string
}

// LLMLogger 记录一次流式请求的生命周期。
// StreamComplete 的 fragments 是流中 Fragment 的总数，不是 Content 的个数。
type LLMLogger interface {
	Request(model string, messages []LLMMessage)
	StreamChunk(model string, chunk string, seq int)
	StreamComplete(model string, fragments int)
	Error(model string, err error)
}

var llmLog LLMLogger = NewLLMLogger(nil)

// SetGlobalLLMLogger 替换全局 LLM 日志器，nil 恢复为写入全局 logger 的默认实现。
func SetGlobalLLMLogger(l LLMLogger) {
	if l == nil {
		l = NewLLMLogger(nil)
	}
	llmLog = l
}

// NewLLMLogger 返回写入 l 的 LLM 日志器，l 为 nil 时写入全局 logger。
// 请求概要与完成记为 info，消息正文与逐片内容记为 debug。
func NewLLMLogger(l *logrus.Logger) LLMLogger {
	if l == nil {
		l = std
	}
	return entryLLMLogger{entry: logrus.NewEntry(l).WithField(componentKey, "llm")}
}

type entryLLMLogger struct {
	entry *logrus.Entry
}

func (l entryLLMLogger) Request(model string, messages []LLMMessage) {
	l.at().WithFields(logrus.Fields{"model": model, "messages": len(messages)}).Info("request")
	if !l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for i, msg := range messages {
		l.at().WithFields(logrus.Fields{"n": i, "role": msg.Role}).Debug(escapeNewlines(msg.Content))
	}
}

func (l entryLLMLogger) StreamChunk(model string, chunk string, seq int) {
	if !l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	l.at().WithFields(logrus.Fields{"model": model, "seq": seq}).Debug(escapeNewlines(chunk))
}

func (l entryLLMLogger) StreamComplete(model string, fragments int) {
	l.at().WithFields(logrus.Fields{"model": model, "fragments": fragments}).Info("stream complete")
}

func (l entryLLMLogger) Error(model string, err error) {
	l.at().WithField("model", model).WithError(err).Error("stream failed")
}

// at 附加日志器之外第一个调用帧，否则 caller 总是指向本文件。
func (l entryLLMLogger) at() *logrus.Entry {
	pcs := make([]uintptr, 12)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(3, pcs)])
	for {
		frame, more := frames.Next()
		if frame.File == "" {
			return l.entry
		}
		if !strings.HasSuffix(frame.File, "/logger/llm.go") {
			return l.entry.WithField(callerKey, fmt.Sprintf("%s:%d", relativeSource(frame.File), frame.Line))
		}
		if !more {
			return l.entry
		}
	}
}

// NoopLLMLogger 丢弃所有 LLM 日志，测试里用它隔离全局状态。
type NoopLLMLogger struct{}

func (NoopLLMLogger) Request(string, []LLMMessage)    {}
func (NoopLLMLogger) StreamChunk(string, string, int) {}
func (NoopLLMLogger) StreamComplete(string, int)      {}
func (NoopLLMLogger) Error(string, error)             {}

func Request(model string, messages []LLMMessage) { llmLog.Request(model, messages) }

func StreamChunk(model string, chunk string, seq int) { llmLog.StreamChunk(model, chunk, seq) }

func StreamComplete(model string, fragments int) { llmLog.StreamComplete(model, fragments) }

func Error(model string, err error) { llmLog.Error(model, err) }

func escapeNewlines(text string) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(text)
}
