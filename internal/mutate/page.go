package mutate

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"biolink-cli/internal/model"
)

var colorRE = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func ValidColor(s string) bool {
	return colorRE.MatchString(strings.TrimSpace(s))
}

func ValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SetBackground replaces the page background after checking it is well formed for its
// kind.
func SetBackground(p *model.Page, bg model.Background, now time.Time) (bool, error) {
	if p == nil {
		return false, nil
	}
	switch bg.Kind {
	case model.BackgroundSolid:
		if !ValidColor(bg.Color) {
			return false, InvalidValueError{Field: "background color", Value: bg.Color, Reason: "expected #rgb or #rrggbb"}
		}
		bg.Gradient = nil
		bg.ImageURL = ""
	case model.BackgroundGradient:
		if bg.Gradient == nil || !ValidColor(bg.Gradient.From) || !ValidColor(bg.Gradient.To) {
			return false, InvalidValueError{Field: "gradient", Reason: "needs from and to colors"}
		}
		if bg.Gradient.Angle < 0 || bg.Gradient.Angle >= 360 {
			return false, InvalidValueError{Field: "gradient angle", Reason: "must be in [0, 360)"}
		}
		g := *bg.Gradient
		bg.Gradient = &g
		bg.Color = ""
		bg.ImageURL = ""
	case model.BackgroundImage:
		if !ValidURL(bg.ImageURL) {
			return false, InvalidValueError{Field: "background image", Value: bg.ImageURL, Reason: "expected an absolute http(s) URL"}
		}
		bg.Gradient = nil
	default:
		return false, InvalidValueError{Field: "background kind", Value: string(bg.Kind), Reason: "unknown"}
	}
	if backgroundEqual(p.Background, bg) {
		return false, nil
	}
	p.Background = bg
	p.UpdatedAt = now
	return true, nil
}

func SetTitle(p *model.Page, title string, now time.Time) (bool, error) {
	title = strings.TrimSpace(title)
	if p == nil {
		return false, nil
	}
	if title == "" {
		return false, InvalidValueError{Field: "title", Reason: "empty"}
	}
	if p.Title == title {
		return false, nil
	}
	p.Title = title
	p.UpdatedAt = now
	return true, nil
}

func backgroundEqual(a, b model.Background) bool {
	if a.Kind != b.Kind || a.Color != b.Color || a.ImageURL != b.ImageURL {
		return false
	}
	if (a.Gradient == nil) != (b.Gradient == nil) {
		return false
	}
	return a.Gradient == nil || *a.Gradient == *b.Gradient
}
