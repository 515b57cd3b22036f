package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"biolink-cli/internal/model"
)

func testPage() *model.Page {
	now := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)
	return &model.Page{
		ID:         "page-ada",
		Title:      "Ada",
		Background: model.Background{Kind: model.BackgroundGradient, Gradient: &model.Gradient{From: "#000", To: "#fff", Angle: 90}},
		Elements: []model.Element{
			{ID: "el-3", Type: model.ElementDivider, Position: 2},
			{ID: "el-1", Type: model.ElementProfile, Position: 0, Content: model.ElementContent{Title: "Ada Lovelace", Subtitle: "Analyst"}},
			{ID: "el-2", Type: model.ElementLink, Position: 1, Content: model.ElementContent{Title: "Notes", URL: "https://example.com/notes"}},
			{ID: "el-4", Type: model.ElementSocial, Position: 3, Content: model.ElementContent{Socials: []model.SocialLink{{Network: "x", URL: "https://x.com/ada"}}}},
			{ID: "el-5", Type: model.ElementImage, Position: 4},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRenderMarkdown_CommittedOrder(t *testing.T) {
	t.Parallel()

	md, err := RenderMarkdown(testPage(), RenderOptions{})
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	if !strings.HasPrefix(md, "# Ada\n") {
		t.Fatalf("expected title heading, got:\n%s", md)
	}
	profile := strings.Index(md, "## Ada Lovelace")
	link := strings.Index(md, "- [Notes](https://example.com/notes)")
	divider := strings.Index(md, "\n---\n")
	social := strings.Index(md, "[x](https://x.com/ada)")
	if profile < 0 || link < 0 || divider < 0 || social < 0 {
		t.Fatalf("missing blocks:\n%s", md)
	}
	if !(profile < link && link < divider && divider < social) {
		t.Fatalf("blocks out of order:\n%s", md)
	}
	if strings.Contains(md, "## Meta") {
		t.Fatalf("meta rendered without IncludeMeta")
	}
	if strings.Contains(md, "![image]") {
		t.Fatalf("image without URL should be skipped:\n%s", md)
	}
}

func TestRenderMarkdown_Meta(t *testing.T) {
	t.Parallel()

	md, err := RenderMarkdown(testPage(), RenderOptions{IncludeMeta: true})
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	for _, want := range []string{"- ID: page-ada", "- Background: gradient #000 → #fff (90°)", "- Elements: 5", "- Created: 2025-12-20T00:00:00Z"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in:\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_NilPage(t *testing.T) {
	if _, err := RenderMarkdown(nil, RenderOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWritePage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res, err := WritePage(testPage(), dir, WriteOptions{})
	if err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if len(res.Written) != 1 || filepath.Base(res.Written[0]) != "page-ada.md" {
		t.Fatalf("unexpected result: %+v", res)
	}
	b, err := os.ReadFile(res.Written[0])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "# Ada") {
		t.Fatalf("unexpected file content: %s", b)
	}

	if _, err := WritePage(testPage(), dir, WriteOptions{}); err == nil {
		t.Fatalf("expected exists error without overwrite")
	}
	if _, err := WritePage(testPage(), dir, WriteOptions{Overwrite: true}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if _, err := WritePage(testPage(), " ", WriteOptions{}); err == nil {
		t.Fatalf("expected missing dir error")
	}
}
