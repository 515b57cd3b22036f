package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"biolink-cli/internal/model"
)

type RenderOptions struct {
	// IncludeMeta adds the page ID, background and timestamps.
	IncludeMeta bool
}

// RenderMarkdown renders p as a markdown document in committed element order.
func RenderMarkdown(p *model.Page, opt RenderOptions) (string, error) {
	if p == nil {
		return "", fmt.Errorf("missing page")
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = p.ID
	}
	writeLn("# " + title)
	writeLn("")

	if opt.IncludeMeta {
		writeLn("## Meta")
		writeLn("")
		writeLn("- ID: " + p.ID)
		writeLn("- Background: " + describeBackground(p.Background))
		writeLn("- Elements: " + fmt.Sprint(len(p.Elements)))
		if !p.CreatedAt.IsZero() {
			writeLn("- Created: " + p.CreatedAt.UTC().Format(time.RFC3339))
		}
		if !p.UpdatedAt.IsZero() {
			writeLn("- Updated: " + p.UpdatedAt.UTC().Format(time.RFC3339))
		}
		writeLn("")
	}

	for _, e := range p.SortedElements() {
		block := renderElement(e)
		if block == "" {
			continue
		}
		writeLn(block)
		writeLn("")
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

func renderElement(e model.Element) string {
	c := e.Content
	switch e.Type {
	case model.ElementProfile:
		var lines []string
		if c.ImageURL != "" {
			lines = append(lines, "![avatar]("+c.ImageURL+")")
		}
		if t := strings.TrimSpace(c.Title); t != "" {
			lines = append(lines, "## "+t)
		}
		if s := strings.TrimSpace(c.Subtitle); s != "" {
			lines = append(lines, "_"+s+"_")
		}
		return strings.Join(lines, "\n\n")
	case model.ElementLink:
		label := strings.TrimSpace(c.Title)
		if label == "" {
			label = c.URL
		}
		if c.URL == "" {
			return "- " + label
		}
		return "- [" + label + "](" + c.URL + ")"
	case model.ElementText:
		return strings.TrimSpace(c.Text)
	case model.ElementSocial:
		parts := make([]string, 0, len(c.Socials))
		for _, s := range c.Socials {
			if s.URL == "" {
				continue
			}
			parts = append(parts, "["+s.Network+"]("+s.URL+")")
		}
		return strings.Join(parts, " · ")
	case model.ElementImage:
		if c.ImageURL == "" {
			return ""
		}
		alt := strings.TrimSpace(c.Title)
		if alt == "" {
			alt = "image"
		}
		return "![" + alt + "](" + c.ImageURL + ")"
	case model.ElementDivider:
		return "---"
	default:
		return ""
	}
}

func describeBackground(bg model.Background) string {
	switch bg.Kind {
	case model.BackgroundSolid:
		return "solid " + bg.Color
	case model.BackgroundGradient:
		if bg.Gradient == nil {
			return "gradient"
		}
		return fmt.Sprintf("gradient %s → %s (%d°)", bg.Gradient.From, bg.Gradient.To, bg.Gradient.Angle)
	case model.BackgroundImage:
		return "image " + bg.ImageURL
	default:
		return "default"
	}
}
