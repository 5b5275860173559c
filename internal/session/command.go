package session

import "strings"

// Command 是一行输入的分类结果。
type Command int

const (
	// CommandNone 表示忽略该行（例如空行）。
	CommandNone Command = iota
	CommandHelp
	CommandExit
	// CommandRequest 表示把原文作为请求发送。
	CommandRequest
)

func (c Command) String() string {
	switch c {
	case CommandHelp:
		return "help"
	case CommandExit:
		return "exit"
	case CommandRequest:
		return "request"
	default:
		return "none"
	}
}

// Classify 去掉首尾空白后精确匹配保留命令，大小写敏感。
func Classify(line string) Command {
	switch strings.TrimSpace(line) {
	case "":
		return CommandNone
	case "help":
		return CommandHelp
	case "exit":
		return CommandExit
	default:
		return CommandRequest
	}
}
