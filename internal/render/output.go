package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// CommandHelp 描述帮助横幅中的一行。
type CommandHelp struct {
	Name        string
	Description string
}

// SystemPrintln 输出带 "system:" 标签的一行。
func SystemPrintln(w io.Writer, text string) {
	fmt.Fprintf(w, "%s: %s\n", SystemStyle.Render("system"), text)
}

// AssistantLabel 输出 "<name>: "，不换行，随后的流式文本接在同一行。
func AssistantLabel(w io.Writer, name string) {
	fmt.Fprintf(w, "%s: ", AssistantStyle.Render(name))
}

// SetupPrompt 返回首次运行时询问 api key 的提示。
func SetupPrompt(text string) string {
	return SetupStyle.Render(text) + ": "
}

// Banner 生成命令帮助横幅，命令名按显示宽度对齐。
func Banner(commands []CommandHelp) string {
	width := 0
	for _, c := range commands {
		if w := runewidth.StringWidth(c.Name); w > width {
			width = w
		}
	}
	var sb strings.Builder
	sb.WriteString("\ncommands:")
	for _, c := range commands {
		sb.WriteString("\n    ")
		sb.WriteString(runewidth.FillRight(c.Name, width))
		sb.WriteString(" - ")
		sb.WriteString(c.Description)
	}
	return sb.String()
}
