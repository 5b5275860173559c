// Package logger 封装 logrus：日志写入配置目录下的 gptui.log，终端只留给对话。
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry 让调用方持有带字段的日志入口而不必直接引入 logrus。
type LogEntry = logrus.Entry

// DefaultLogName 是日志文件名，与 config.json 同目录。
const DefaultLogName = "gptui.log"

const (
	componentKey = "component"
	callerKey    = "caller"
)

var std = logrus.StandardLogger()

// Configure 设置全局日志格式与 caller 输出。
func Configure() {
	std.SetReportCaller(true)
	std.SetFormatter(PlainFormatter{})
}

// DefaultLogPath 返回 <UserConfigDir>/gptui/gptui.log，取不到配置目录时退回 logs/gptui.log。
func DefaultLogPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join("logs", DefaultLogName)
	}
	return filepath.Join(dir, "gptui", DefaultLogName)
}

// SetupFile 把全局日志追加写入 path（空则用 DefaultLogPath），返回文件与实际路径。
func SetupFile(path string) (io.Closer, string, error) {
	if path == "" {
		path = DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	std.SetOutput(f)
	return f, path, nil
}

// Discard 在日志文件不可用时丢弃全部日志。
func Discard() {
	std.SetOutput(io.Discard)
}

func SetLevel(name string) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return err
	}
	std.SetLevel(level)
	return nil
}

// Named 返回带 component 字段的入口。
func Named(component string) *LogEntry {
	entry := logrus.NewEntry(std)
	if component == "" {
		return entry
	}
	return entry.WithField(componentKey, component)
}

// PlainFormatter 输出单行文本：caller [ts] [LEVEL] [component] message k=v...
// caller 字段优先于 logrus 记录的调用位置，LLM 日志借此标出真正的调用方。
type PlainFormatter struct{}

func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return nil, nil
	}
	var sb strings.Builder
	if caller := entryCaller(entry); caller != "" {
		sb.WriteString(caller)
		sb.WriteByte(' ')
	}
	fmt.Fprintf(&sb, "[%s] [%s]", entry.Time.UTC().Format(time.RFC3339Nano), strings.ToUpper(entry.Level.String()))
	if component, _ := entry.Data[componentKey].(string); component != "" {
		fmt.Fprintf(&sb, " [%s]", component)
	}
	sb.WriteByte(' ')
	sb.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != componentKey && k != callerKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Data[k])
	}
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

func entryCaller(entry *logrus.Entry) string {
	if caller, _ := entry.Data[callerKey].(string); caller != "" {
		return caller
	}
	if entry.HasCaller() {
		return fmt.Sprintf("%s:%d", relativeSource(entry.Caller.File), entry.Caller.Line)
	}
	return ""
}

// relativeSource 把源文件绝对路径裁成仓库内路径。
func relativeSource(file string) string {
	file = filepath.ToSlash(file)
	for _, marker := range []string{"/internal/", "/cmd/"} {
		if idx := strings.LastIndex(file, marker); idx != -1 {
			return file[idx+1:]
		}
	}
	return filepath.Base(file)
}
