// Package assembler turns a streamed sequence of fragments into one assistant
// message, echoing content to the terminal as it arrives.
package assembler

import (
	"context"
	"io"
	"sort"
	"strings"

	"gptui/internal/agent"
)

type flusher interface {
	Flush() error
}

// Assembler 消费 agent.Stream：逐片打印 Content，流结束后折叠为至多一条助手消息。
type Assembler struct {
	out io.Writer
}

func New(out io.Writer) *Assembler {
	if out == nil {
		out = io.Discard
	}
	return &Assembler{out: out}
}

// Assemble 驱动 stream 直到耗尽。
// 每个 Content 在请求下一片之前已写出并 flush；ok=false 表示流中没有任何内容。
// stream 总会被关闭。
func (a *Assembler) Assemble(ctx context.Context, stream agent.Stream) (msg agent.Message, ok bool, err error) {
	defer func() {
		if cerr := stream.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	var fragments []agent.Fragment
	for {
		if err := ctx.Err(); err != nil {
			return agent.Message{}, false, err
		}
		if !stream.Next() {
			break
		}
		frag := stream.Current()
		switch v := frag.(type) {
		case agent.Content:
			if err := a.write(v.Delta); err != nil {
				return agent.Message{}, false, err
			}
		case agent.Failure:
			return agent.Message{}, false, v.Err
		case agent.Metadata, agent.Finish, agent.Usage:
		default:
			// 未知变体：保留但不输出。
		}
		fragments = append(fragments, frag)
	}
	if err := stream.Err(); err != nil {
		return agent.Message{}, false, err
	}

	msg, ok = Fold(fragments)
	return msg, ok, nil
}

func (a *Assembler) write(text string) error {
	if _, err := io.WriteString(a.out, text); err != nil {
		return err
	}
	// *os.File 无缓冲；带缓冲的 writer 需要在请求下一片之前 flush。
	if f, ok := a.out.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Fold 把 Content 按 Index 稳定排序后拼接。没有 Content 时返回 ok=false。
func Fold(fragments []agent.Fragment) (agent.Message, bool) {
	var contents []agent.Content
	for _, frag := range fragments {
		if c, ok := frag.(agent.Content); ok && c.Delta != "" {
			contents = append(contents, c)
		}
	}
	if len(contents) == 0 {
		return agent.Message{}, false
	}
	sort.SliceStable(contents, func(i, j int) bool {
		return contents[i].Index < contents[j].Index
	})

	var sb strings.Builder
	for _, c := range contents {
		sb.WriteString(c.Delta)
	}
	return agent.AssistantMessage(sb.String()), true
}
