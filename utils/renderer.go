package utils

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Document is the result of compiling a rich announcement body:
// rendered HTML plus the YAML front-matter metadata.
type Document struct {
	HTML        string                 `json:"html"`
	FrontMatter map[string]interface{} `json:"front_matter"`
}

// CompileError reports a document that failed to compile. Expected
// outcome of user input, surfaced as a 400, never a 500.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("document compile failed: %s", e.Message)
}

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		meta.Meta,
	),
)

// RenderDocument compiles raw announcement text into a Document.
// Invoked per preview request; the result is never persisted.
func RenderDocument(raw string) (*Document, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()

	if err := markdown.Convert([]byte(raw), &buf, parser.WithContext(ctx)); err != nil {
		return nil, &CompileError{Message: err.Error()}
	}

	frontMatter, err := meta.TryGet(ctx)
	if err != nil {
		return nil, &CompileError{Message: "invalid front matter: " + err.Error()}
	}

	return &Document{
		HTML:        buf.String(),
		FrontMatter: frontMatter,
	}, nil
}
