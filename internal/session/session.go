// Package session drives one interactive conversation: it greets the
// assistant, reads lines, dispatches commands and streams replies.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gptui/internal/agent"
	"gptui/internal/assembler"
	"gptui/internal/history"
	"gptui/internal/lineedit"
	"gptui/internal/logger"
	"gptui/internal/prompt"
	"gptui/internal/prompts"
	"gptui/internal/render"

	"github.com/google/uuid"
)

// ErrTerminated 在会话结束后再次调用 Run 时返回。
var ErrTerminated = errors.New("session: terminated")

// State 是会话循环所处的阶段，Terminating 之后不再变化。
type State int

const (
	StateGreeting State = iota
	StateAwaitingLine
	StateDispatching
	StateTerminating
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateAwaitingLine:
		return "awaiting_line"
	case StateDispatching:
		return "dispatching"
	case StateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Commands 是帮助横幅列出的保留命令。
var Commands = []render.CommandHelp{
	{Name: "help", Description: "displays this message"},
	{Name: "exit", Description: "exits the application"},
}

// Options 由 cmd 组装：客户端与编辑器必填，Renderer 为空时用用户名和 UserStyle 构造。
type Options struct {
	Client   agent.ModelClient
	Editor   lineedit.Editor
	Renderer prompt.Renderer
	Out      io.Writer
	Username string
	AIName   string
}

// Session 只在一个 goroutine 中运行；history 仅由 Run 写入。
type Session struct {
	client    agent.ModelClient
	editor    lineedit.Editor
	renderer  prompt.Renderer
	out       io.Writer
	username  string
	aiName    string
	assembler *assembler.Assembler

	id      string
	log     *logger.LogEntry
	state   State
	history *history.Conversation
}

func New(opts Options) *Session {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = prompt.New(opts.Username, render.UserStyle)
	}
	id := uuid.NewString()
	return &Session{
		client:    opts.Client,
		editor:    opts.Editor,
		renderer:  renderer,
		out:       out,
		username:  opts.Username,
		aiName:    opts.AIName,
		assembler: assembler.New(out),
		id:        id,
		log:       logger.Named("session").WithField("session_id", id),
		state:     StateGreeting,
		history:   history.New(),
	}
}

// ID 是写入每条会话日志的 session_id。
func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.state }

// History 返回当前对话记录的副本。
func (s *Session) History() []agent.Message {
	return s.history.Messages()
}

// Run 打印横幅、完成问候，然后循环读取输入直到 exit、中断或 EOF。
// 传输错误会直接返回，会话随之进入 Terminating。
func (s *Session) Run(ctx context.Context) error {
	if s.state == StateTerminating {
		return ErrTerminated
	}
	if s.client == nil || s.editor == nil {
		return errors.New("session: client and editor are required")
	}
	defer s.terminate()

	s.history = history.New()
	s.log.Infof("session started user=%s ai_name=%s", s.username, s.aiName)
	render.SystemPrintln(s.out, render.Banner(Commands))

	s.state = StateGreeting
	if err := s.round(ctx, prompts.Greeting(s.username, s.aiName)); err != nil {
		return fmt.Errorf("greeting: %w", err)
	}

	for {
		s.state = StateAwaitingLine
		sig, err := s.editor.ReadLine(ctx, s.renderer)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				s.log.Info("input canceled")
				return nil
			}
			return fmt.Errorf("read line: %w", err)
		}

		switch sig.Kind {
		case lineedit.Interrupt, lineedit.EOF:
			s.log.Infof("input ended signal=%s", sig.Kind)
			return nil
		case lineedit.Success:
		default:
			continue
		}

		cmd := Classify(sig.Text)
		if cmd == CommandNone {
			continue
		}
		s.state = StateDispatching
		switch cmd {
		case CommandHelp:
			render.SystemPrintln(s.out, render.Banner(Commands))
		case CommandExit:
			if err := s.round(ctx, prompts.Goodbye); err != nil {
				return err
			}
			return nil
		case CommandRequest:
			if err := s.round(ctx, sig.Text); err != nil {
				return err
			}
		}
	}
}

// round 发送一次请求并流式打印回复。只有拿到回复时才把用户与助手两条消息一起写入历史。
func (s *Session) round(ctx context.Context, text string) error {
	pending := agent.UserMessage(text)
	render.AssistantLabel(s.out, s.aiName)

	stream, err := s.client.Stream(ctx, s.history.With(pending))
	if err != nil {
		fmt.Fprintln(s.out)
		return err
	}
	reply, ok, err := s.assembler.Assemble(ctx, stream)
	fmt.Fprintln(s.out)
	if err != nil {
		s.log.WithError(err).Warn("request failed")
		return err
	}
	if !ok {
		s.log.Warnf("empty reply request_len=%d history_len=%d", len(text), s.history.Len())
		render.SystemPrintln(s.out, s.aiName+" returned an empty reply")
		return nil
	}
	s.history.Append(pending, reply)
	s.log.Debugf("round complete reply_len=%d history_len=%d", len(strings.TrimSpace(reply.Content)), s.history.Len())
	return nil
}

func (s *Session) terminate() {
	s.state = StateTerminating
	s.log.Infof("session terminated history_len=%d", s.history.Len())
}
