package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestRenderMarkdown(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	if got := RenderMarkdown("  \n", 40); got != "" {
		t.Fatalf("blank input rendered %q", got)
	}

	out := RenderMarkdown("# Ada\n\n[Blog](https://ada.dev)", 3)
	if !strings.Contains(out, "Ada") || !strings.Contains(out, "Blog") {
		t.Fatalf("rendered:\n%s", out)
	}
	if _, ok := renderers.Load(rendererKey{dark: lipgloss.HasDarkBackground(), width: 10}); !ok {
		t.Fatalf("expected narrow widths to share the minimum-width renderer")
	}
}

func TestPreviewStyleAccentsLinks(t *testing.T) {
	for _, dark := range []bool{false, true} {
		cfg := previewStyle(dark)
		want := colorAccent.Light
		if dark {
			want = colorAccent.Dark
		}
		if cfg.Link.Color == nil || *cfg.Link.Color != want {
			t.Fatalf("dark=%v link color=%v, want %s", dark, cfg.Link.Color, want)
		}
	}
}
