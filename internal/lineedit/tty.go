package lineedit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gptui/internal/prompt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// TTY 为每一行启动一个内联（非 alt screen）的 Bubble Tea 程序。
// 两行之间终端处于普通模式，助手回复可以直接写到 stdout。
type TTY struct {
	in      io.Reader
	out     io.Writer
	vi      bool
	history promptHistory
}

var _ Editor = (*TTY)(nil)

// NewTTY 创建终端行编辑器；vi 为 true 时每行从 vi insert 模式开始，否则使用 emacs 键位。
func NewTTY(in io.Reader, out io.Writer, vi bool) *TTY {
	return &TTY{in: in, out: out, vi: vi}
}

func (t *TTY) initialMode() prompt.EditMode {
	if t.vi {
		return prompt.Vi(prompt.ViInsert)
	}
	return prompt.Emacs()
}

func (t *TTY) ReadLine(ctx context.Context, renderer prompt.Renderer) (Signal, error) {
	m := newModel(renderer, &t.history, t.initialMode())
	program := tea.NewProgram(m,
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
		tea.WithContext(ctx),
	)
	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil {
			return Signal{}, ctx.Err()
		}
		return Signal{}, fmt.Errorf("line editor: %w", err)
	}
	fm, ok := final.(*model)
	if !ok {
		return Signal{}, errors.New("line editor: unexpected model")
	}
	// View 在结束后为空，这里补打最终内容，使输入行留在滚动区中。
	fmt.Fprintln(t.out, fm.transcript())
	if fm.signal.Kind == Success {
		t.history.Add(fm.signal.Text)
	}
	return fm.signal, nil
}

type model struct {
	input    textinput.Model
	renderer prompt.Renderer
	history  *promptHistory
	mode     prompt.EditMode

	// lines 保存已用 "\" 续行的前几行。
	lines []string

	searching bool
	search    prompt.HistorySearch
	matches   fuzzy.Matches
	matchIdx  int

	signal Signal
	done   bool
}

func newModel(renderer prompt.Renderer, history *promptHistory, mode prompt.EditMode) *model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 0
	ti.Focus()
	if history == nil {
		history = &promptHistory{}
	}
	history.reset()
	return &model{
		input:    ti,
		renderer: renderer,
		history:  history,
		mode:     mode,
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c":
		return m.finish(Signal{Kind: Interrupt})
	case "ctrl+d":
		if m.input.Value() == "" && len(m.lines) == 0 {
			return m.finish(Signal{Kind: EOF})
		}
	}

	if m.searching {
		return m, m.updateSearch(key)
	}

	switch key.String() {
	case "enter":
		value := m.input.Value()
		if rest, ok := strings.CutSuffix(value, `\`); ok {
			m.lines = append(m.lines, rest)
			m.input.Reset()
			return m, nil
		}
		text := strings.Join(append(append([]string(nil), m.lines...), value), "\n")
		return m.finish(Signal{Kind: Success, Text: text})
	case "ctrl+r":
		m.searching = true
		m.search = prompt.HistorySearch{Status: prompt.SearchPassing}
		m.matches = nil
		m.matchIdx = 0
		return m, nil
	case "up":
		if prev, ok := m.history.Prev(m.input.Value()); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil
	case "down":
		if next, ok := m.history.Next(); ok {
			m.input.SetValue(next)
			m.input.CursorEnd()
		}
		return m, nil
	}

	if m.mode.Kind == prompt.ModeVi {
		if m.mode.Vi == prompt.ViNormal {
			m.updateViNormal(key)
			return m, nil
		}
		if key.String() == "esc" {
			m.mode = prompt.Vi(prompt.ViNormal)
			if pos := m.input.Position(); pos > 0 {
				m.input.SetCursor(pos - 1)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) updateViNormal(key tea.KeyMsg) {
	pos := m.input.Position()
	runes := []rune(m.input.Value())
	switch key.String() {
	case "i":
		m.mode = prompt.Vi(prompt.ViInsert)
	case "a":
		m.mode = prompt.Vi(prompt.ViInsert)
		if pos < len(runes) {
			m.input.SetCursor(pos + 1)
		}
	case "A":
		m.mode = prompt.Vi(prompt.ViInsert)
		m.input.CursorEnd()
	case "I":
		m.mode = prompt.Vi(prompt.ViInsert)
		m.input.CursorStart()
	case "h", "left":
		if pos > 0 {
			m.input.SetCursor(pos - 1)
		}
	case "l", "right":
		if pos < len(runes)-1 {
			m.input.SetCursor(pos + 1)
		}
	case "0", "home":
		m.input.CursorStart()
	case "$", "end":
		m.input.CursorEnd()
	case "x":
		if pos < len(runes) {
			runes = append(runes[:pos], runes[pos+1:]...)
			m.input.SetValue(string(runes))
			if pos >= len(runes) && pos > 0 {
				pos = len(runes) - 1
			}
			m.input.SetCursor(pos)
		}
	}
}

func (m *model) updateSearch(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyRunes:
		m.search.Term += string(key.Runes)
		m.matchIdx = 0
		m.refreshSearch()
		return nil
	case tea.KeySpace:
		m.search.Term += " "
		m.matchIdx = 0
		m.refreshSearch()
		return nil
	case tea.KeyBackspace:
		if r := []rune(m.search.Term); len(r) > 0 {
			m.search.Term = string(r[:len(r)-1])
		}
		m.matchIdx = 0
		m.refreshSearch()
		return nil
	case tea.KeyCtrlR:
		if m.matchIdx < len(m.matches)-1 {
			m.matchIdx++
			m.refreshSearch()
		}
		return nil
	case tea.KeyEnter, tea.KeyEsc, tea.KeyCtrlG:
		m.searching = false
		m.input.CursorEnd()
		return nil
	}
	return nil
}

func (m *model) refreshSearch() {
	if m.search.Term == "" {
		m.matches = nil
		m.search.Status = prompt.SearchPassing
		return
	}
	m.matches = fuzzy.Find(m.search.Term, m.history.Recent())
	// 按时间而非得分排序，越新的输入越先出现。
	sort.SliceStable(m.matches, func(i, j int) bool {
		return m.matches[i].Index < m.matches[j].Index
	})
	if len(m.matches) == 0 {
		m.search.Status = prompt.SearchFailing
		return
	}
	m.search.Status = prompt.SearchPassing
	if m.matchIdx >= len(m.matches) {
		m.matchIdx = len(m.matches) - 1
	}
	m.input.SetValue(m.matches[m.matchIdx].Str)
	m.input.CursorEnd()
}

func (m *model) finish(sig Signal) (tea.Model, tea.Cmd) {
	m.signal = sig
	m.done = true
	return m, tea.Quit
}

func (m *model) View() string {
	if m.done {
		return ""
	}
	return m.render(m.input.View())
}

// transcript 返回不带光标的最终内容。
func (m *model) transcript() string {
	return m.render(m.input.Value())
}

func (m *model) render(current string) string {
	var sb strings.Builder
	for i, line := range m.lines {
		sb.WriteString(m.linePrefix(i))
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if m.searching && !m.done {
		sb.WriteString(m.renderer.RenderHistorySearchIndicator(m.search))
	} else {
		sb.WriteString(m.linePrefix(len(m.lines)))
	}
	sb.WriteString(current)
	if right := m.renderer.RenderRight(); right != "" {
		sb.WriteString(" ")
		sb.WriteString(right)
	}
	return sb.String()
}

func (m *model) linePrefix(i int) string {
	if i == 0 {
		return m.renderer.RenderLeft() + m.renderer.RenderIndicator(m.mode)
	}
	return m.renderer.RenderMultilineIndicator()
}
