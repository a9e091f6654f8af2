// Package tui holds the terminal styling, key bindings and widgets the
// interactive commands share.
package tui

func SuccessIcon(colorize bool) string {
	icon := "✅"
	if colorize {
		return QuestionStyle.Render(icon)
	}
	return icon
}

func ErrorIcon(colorize bool) string {
	icon := "❌"
	if colorize {
		return ErrorStyle.Render(icon)
	}
	return icon
}

// Notice renders a one line status message with the matching icon.
func Notice(message string, failed bool) string {
	if message == "" {
		return ""
	}
	if failed {
		return ErrorIcon(true) + " " + ErrorStyle.Render(message)
	}
	return SuccessIcon(true) + " " + NoticeStyle.Render(message)
}
