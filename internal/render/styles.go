package render

import "github.com/charmbracelet/lipgloss"

var (
	SystemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	AssistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	// UserStyle 用于输入提示符里的用户名。
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	SetupStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13"))
)
