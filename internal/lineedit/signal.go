// Package lineedit reads one logical line of input at a time and reports
// what the user did with it.
package lineedit

import (
	"context"

	"gptui/internal/prompt"
)

type Kind int

const (
	// Success 表示用户提交了一行（可能为空）。
	Success Kind = iota
	// Interrupt 对应 ctrl+c。
	Interrupt
	// EOF 对应空行上的 ctrl+d 或输入流结束。
	EOF
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Interrupt:
		return "interrupt"
	case EOF:
		return "eof"
	default:
		return "unknown"
	}
}

// Signal 是一次 ReadLine 的结果。
type Signal struct {
	Kind Kind
	Text string
}

// Editor 阻塞读取一行输入，使用 renderer 绘制提示符。
type Editor interface {
	ReadLine(ctx context.Context, renderer prompt.Renderer) (Signal, error)
}
