// Package prompt renders the decorations shown around the line editor:
// the left prompt, the edit-mode indicator and the history search banner.
package prompt

import "github.com/charmbracelet/lipgloss"

const (
	indicator          = ": "
	multilineIndicator = "::: "
	viInsertIndicator  = "[i]: "
	viNormalIndicator  = "[n]: "
)

type EditModeKind int

const (
	ModeDefault EditModeKind = iota
	ModeEmacs
	ModeVi
	ModeCustom
)

type ViMode int

const (
	ViNormal ViMode = iota
	ViInsert
)

// EditMode 描述行编辑器当前的输入模式，由编辑器在每次渲染时提供。
type EditMode struct {
	Kind  EditModeKind
	Vi    ViMode
	Label string
}

func Default() EditMode            { return EditMode{Kind: ModeDefault} }
func Emacs() EditMode              { return EditMode{Kind: ModeEmacs} }
func Vi(mode ViMode) EditMode      { return EditMode{Kind: ModeVi, Vi: mode} }
func Custom(label string) EditMode { return EditMode{Kind: ModeCustom, Label: label} }

type SearchStatus int

const (
	SearchPassing SearchStatus = iota
	SearchFailing
)

// HistorySearch 是反向历史搜索的瞬时状态。
type HistorySearch struct {
	Status SearchStatus
	Term   string
}

// Renderer 是行编辑器渲染提示符所需的能力集合。
type Renderer interface {
	RenderLeft() string
	RenderRight() string
	RenderIndicator(mode EditMode) string
	RenderMultilineIndicator() string
	RenderHistorySearchIndicator(search HistorySearch) string
}

// Prompt 以强调色显示用户名，右侧提示始终为空。
type Prompt struct {
	username string
	style    lipgloss.Style
}

var _ Renderer = Prompt{}

func New(username string, style lipgloss.Style) Prompt {
	return Prompt{username: username, style: style}
}

func (p Prompt) RenderLeft() string {
	return p.style.Render(p.username)
}

func (p Prompt) RenderRight() string {
	return ""
}

func (p Prompt) RenderIndicator(mode EditMode) string {
	switch mode.Kind {
	case ModeVi:
		if mode.Vi == ViInsert {
			return viInsertIndicator
		}
		return viNormalIndicator
	case ModeCustom:
		return "(" + mode.Label + ")"
	default:
		return indicator
	}
}

func (p Prompt) RenderMultilineIndicator() string {
	return multilineIndicator
}

func (p Prompt) RenderHistorySearchIndicator(search HistorySearch) string {
	prefix := ""
	if search.Status == SearchFailing {
		prefix = "failing "
	}
	return "(" + prefix + "reverse-search: " + search.Term + ") "
}
