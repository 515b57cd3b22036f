package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

type rendererKey struct {
	dark  bool
	width int
}

var (
	themeOnce sync.Once
	// glamour.WithAutoStyle queries the terminal background, which can block; the style
	// is fixed from the theme preference instead.
	renderers sync.Map // rendererKey -> *glamour.TermRenderer
)

// RenderMarkdown renders md for a terminal of the given width. On renderer errors the
// source is returned unchanged.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	themeOnce.Do(applyThemePreference)

	key := rendererKey{dark: lipgloss.HasDarkBackground(), width: max(width, 10)}
	r, ok := renderers.Load(key)
	if !ok {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStyles(previewStyle(key.dark)),
			glamour.WithWordWrap(key.width),
		)
		if err != nil {
			return md
		}
		r, _ = renderers.LoadOrStore(key, tr)
	}

	out, err := r.(*glamour.TermRenderer).Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// previewStyle is glamour's stock style with links in the card accent color, since
// links are most of what a page holds.
func previewStyle(dark bool) ansi.StyleConfig {
	cfg, accent := styles.LightStyleConfig, colorAccent.Light
	if dark {
		cfg, accent = styles.DarkStyleConfig, colorAccent.Dark
	}
	cfg.Link.Color = &accent
	cfg.LinkText.Color = &accent
	return cfg
}
