package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette helpers. Colors are adaptive so cards stay readable on light and dark
// terminal backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted          = ac("240", "243")
	colorSurfaceFg      = ac("235", "252")
	colorControlBg      = ac("252", "235")
	colorAccent         = ac("27", "62")
	colorAccentFg       = ac("255", "235")
	colorCardBorder     = ac("250", "243")
	colorSelectedBorder = ac("232", "255")
	colorError          = ac("160", "203")

	// The insertion line is drawn in the accent color; a low-confidence guess is never drawn.
	colorIndicator = ac("27", "75")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// applyColorProfilePreference sets Lip Gloss's color profile for the interactive TUI.
//
// termenv.EnvColorProfile honors CLICOLOR/CLICOLOR_FORCE, which suits piped CLI output
// but can disable colors in a TUI, so only NO_COLOR is honored here.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Trust TERM/COLORTERM when they claim more than the detector reports.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") {
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures Lip Gloss's background detection.
//
// Priority:
// 1) BIOLINK_TUI_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg", e.g. "15;0" is a dark background)
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("BIOLINK_TUI_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
