package utils_test

import (
	"errors"
	"strings"
	"testing"

	"classnexy/utils"
)

func TestRenderDocument(t *testing.T) {
	doc, err := utils.RenderDocument("# Field trip\n\nBring **boots**.")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.HTML, "<h1") || !strings.Contains(doc.HTML, "Field trip") {
		t.Errorf("heading missing from output: %q", doc.HTML)
	}
	if !strings.Contains(doc.HTML, "<strong>boots</strong>") {
		t.Errorf("bold text missing from output: %q", doc.HTML)
	}
	if len(doc.FrontMatter) != 0 {
		t.Errorf("unexpected front matter: %v", doc.FrontMatter)
	}
}

func TestRenderDocument_FrontMatter(t *testing.T) {
	raw := "---\npinned: true\naudience: parents\n---\n\nSchool closes early on Friday."
	doc, err := utils.RenderDocument(raw)
	if err != nil {
		t.Fatal(err)
	}
	if doc.FrontMatter["pinned"] != true {
		t.Errorf("pinned = %v, want true", doc.FrontMatter["pinned"])
	}
	if doc.FrontMatter["audience"] != "parents" {
		t.Errorf("audience = %v, want parents", doc.FrontMatter["audience"])
	}
	if strings.Contains(doc.HTML, "pinned") {
		t.Errorf("front matter leaked into HTML: %q", doc.HTML)
	}
}

func TestRenderDocument_InvalidFrontMatter(t *testing.T) {
	raw := "---\npinned: [unclosed\n---\n\nBody."
	_, err := utils.RenderDocument(raw)
	var compileErr *utils.CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("error = %v, want CompileError", err)
	}
}

func TestRenderDocument_TableExtension(t *testing.T) {
	raw := "| Day | Room |\n| --- | --- |\n| Mon | 104 |"
	doc, err := utils.RenderDocument(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.HTML, "<table>") {
		t.Errorf("table not rendered: %q", doc.HTML)
	}
}
