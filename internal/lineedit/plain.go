package lineedit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"gptui/internal/prompt"
)

// Plain 在 stdin 不是终端时使用：逐行扫描，行尾的 "\" 表示续行。
type Plain struct {
	scanner *bufio.Scanner
	out     io.Writer
}

var _ Editor = (*Plain)(nil)

func NewPlain(in io.Reader, out io.Writer) *Plain {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Plain{scanner: scanner, out: out}
}

func (p *Plain) ReadLine(ctx context.Context, renderer prompt.Renderer) (Signal, error) {
	if err := ctx.Err(); err != nil {
		return Signal{}, err
	}
	fmt.Fprint(p.out, renderer.RenderLeft()+renderer.RenderIndicator(prompt.Default()))

	var lines []string
	for p.scanner.Scan() {
		line := strings.TrimRight(p.scanner.Text(), "\r")
		if rest, ok := strings.CutSuffix(line, `\`); ok {
			lines = append(lines, rest)
			fmt.Fprint(p.out, renderer.RenderMultilineIndicator())
			continue
		}
		lines = append(lines, line)
		return Signal{Kind: Success, Text: strings.Join(lines, "\n")}, nil
	}
	if err := p.scanner.Err(); err != nil {
		return Signal{}, err
	}
	fmt.Fprintln(p.out)
	if len(lines) > 0 {
		return Signal{Kind: Success, Text: strings.Join(lines, "\n")}, nil
	}
	return Signal{Kind: EOF}, nil
}
