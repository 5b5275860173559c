package prompts

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed text/*
var builtinFS embed.FS

// Goodbye 是 exit 命令发送的固定请求。
const Goodbye = "Goodbye"

var greetingTmpl = template.Must(template.ParseFS(builtinFS, "text/greeting.tmpl"))

// Greeting 构造开场请求：介绍用户并让助手以 aiName 自我介绍。
func Greeting(user, aiName string) string {
	var sb strings.Builder
	data := struct {
		User   string
		AIName string
	}{User: user, AIName: aiName}
	// strings.Builder 的写入不会失败。
	_ = greetingTmpl.Execute(&sb, data)
	return sb.String()
}
