package model

// Template is a palette entry that can be dragged onto a page. It has no position
// until it is dropped and materialized as an Element.
type Template struct {
	ID       string         `json:"id" yaml:"id"`
	Type     ElementType    `json:"type" yaml:"type"`
	Label    string         `json:"label" yaml:"label"`
	Defaults ElementContent `json:"defaults" yaml:"defaults"`
}

// DraggedItem is what a drag session carries: either an existing element or a template.
type DraggedItem interface {
	ItemID() string
	isDraggedItem()
}

type ElementItem struct {
	Element Element
}

func (i ElementItem) ItemID() string { return i.Element.ID }
func (ElementItem) isDraggedItem()   {}

type TemplateItem struct {
	Template Template
}

func (i TemplateItem) ItemID() string { return i.Template.ID }
func (TemplateItem) isDraggedItem()   {}

// ElementRect is the vertical extent of a drop target in viewport coordinates.
type ElementRect struct {
	Top    float64 `json:"top" yaml:"top"`
	Height float64 `json:"height" yaml:"height"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

func NewElementRect(top, height float64) ElementRect {
	return ElementRect{Top: top, Height: height, Bottom: top + height}
}

func DefaultTemplates() []Template {
	return []Template{
		{ID: "tpl-profile", Type: ElementProfile, Label: "Profile card", Defaults: ElementContent{Title: "Your name", Subtitle: "A short bio"}},
		{ID: "tpl-link", Type: ElementLink, Label: "Link", Defaults: ElementContent{Title: "My website", URL: "https://example.com"}},
		{ID: "tpl-text", Type: ElementText, Label: "Text", Defaults: ElementContent{Text: "Write something here"}},
		{ID: "tpl-social", Type: ElementSocial, Label: "Social buttons", Defaults: ElementContent{Socials: []SocialLink{
			{Network: "instagram", URL: "https://instagram.com/"},
			{Network: "x", URL: "https://x.com/"},
		}}},
		{ID: "tpl-image", Type: ElementImage, Label: "Image", Defaults: ElementContent{ImageURL: "https://example.com/image.png"}},
		{ID: "tpl-divider", Type: ElementDivider, Label: "Divider"},
	}
}

// FindTemplate looks up a template by ID or by element type name.
func FindTemplate(key string) (Template, bool) {
	for _, t := range DefaultTemplates() {
		if t.ID == key || string(t.Type) == key {
			return t, true
		}
	}
	return Template{}, false
}
