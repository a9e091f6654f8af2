package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type HeaderConfig struct {
	App     string
	Version string
	// Extras are appended after the version, e.g. the record name and the
	// submission state.
	Extras []string
}

var gradient = []string{
	"#89DCEB", "#99C9F5", "#B0B0FF", "#C49FFF", "#DB8AFF",
}

// Header paints a full width bar of exactly width cells with the header text
// on top of the gradient.
func Header(cfg HeaderConfig, width int) string {
	parts := []string{cfg.App}
	if cfg.Version != "" {
		parts = append(parts, "v"+cfg.Version)
	}
	for _, extra := range cfg.Extras {
		if extra != "" {
			parts = append(parts, extra)
		}
	}
	runes := []rune(" " + strings.Join(parts, " | "))

	var out strings.Builder
	for col := 0; col < width; col++ {
		background := gradientAt(col, width)
		glyph := " "
		if col < len(runes) {
			glyph = string(runes[col])
		}
		foreground := "#FFFFFF"
		if isLight(background) {
			foreground = "#000000"
		}
		out.WriteString(lipgloss.NewStyle().
			Background(lipgloss.Color(background)).
			Foreground(lipgloss.Color(foreground)).
			Bold(true).
			Render(glyph))
	}
	return out.String()
}

func gradientAt(col, width int) string {
	if width < 1 {
		width = 1
	}
	return gradient[col*len(gradient)/width]
}

// isLight uses Rec. 709 relative luminance.
func isLight(hex string) bool {
	r, g, b := hexToRGB(hex)
	return 0.2126*r+0.7152*g+0.0722*b > 0.5
}

func hexToRGB(h string) (r, g, b float64) {
	channel := func(s string) float64 {
		v, _ := strconv.ParseUint(s, 16, 8)
		return float64(v) / 255
	}
	h = strings.TrimPrefix(h, "#")
	switch len(h) {
	case 6:
		r, g, b = channel(h[0:2]), channel(h[2:4]), channel(h[4:6])
	case 3:
		r = channel(strings.Repeat(h[0:1], 2))
		g = channel(strings.Repeat(h[1:2], 2))
		b = channel(strings.Repeat(h[2:3], 2))
	}
	return
}
