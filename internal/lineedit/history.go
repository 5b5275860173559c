package lineedit

import "strings"

// promptHistory 保存本次运行中提交过的输入行，供上下箭头浏览与反向搜索使用。
// cursor == len(entries) 表示当前在“正在编辑的新行”上，draft 保存该行在开始浏览前的内容。
type promptHistory struct {
	entries []string
	cursor  int
	draft   string
}

// Add 记录一条提交的输入，空行与紧邻的重复行会被忽略。
func (h *promptHistory) Add(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == text {
		h.reset()
		return
	}
	h.entries = append(h.entries, text)
	h.reset()
}

func (h *promptHistory) reset() {
	h.cursor = len(h.entries)
	h.draft = ""
}

// Prev 向更早的条目移动，current 为当前输入框内容。
func (h *promptHistory) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor == len(h.entries) {
		h.draft = current
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next 向更新的条目移动，越过最后一条时恢复 draft。
func (h *promptHistory) Next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.cursor = len(h.entries)
	return h.draft, true
}

// Recent 返回按时间倒序排列的历史副本。
func (h *promptHistory) Recent() []string {
	out := make([]string, 0, len(h.entries))
	for i := len(h.entries) - 1; i >= 0; i-- {
		out = append(out, h.entries[i])
	}
	return out
}
