package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/textstamp/dsl"
)

const sampleDSL = `
// shared settings
defaults {
  font: "builtin:gobold"
  size: 14pt
}

/* the banner */
image banner {
  width: 240; padding: 8
  color: #202020
  background: #ffffff
  align: center
  angle: -15.5deg
  "Hello, ${user.name}!"
  "second literal"
}
`

func TestParseDocument(t *testing.T) {
	doc, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if kind := doc.Sections[0].Kind(); kind != "defaults" {
		t.Fatalf("expected defaults section, got %s", kind)
	}
	if kind := doc.Sections[1].Kind(); kind != "image" {
		t.Fatalf("expected image section, got %s", kind)
	}

	defaults := doc.Sections[0].Defaults.Block.Statements
	if len(defaults) != 2 {
		t.Fatalf("defaults statements = %d", len(defaults))
	}
	font := defaults[0].Assignment
	if font == nil || font.Key != "font" || font.Value.String == nil {
		t.Fatalf("expected font string assignment, got %+v", defaults[0])
	}
	if got := font.Value.Raw(); got != "builtin:gobold" {
		t.Fatalf("font = %q", got)
	}
	if size := defaults[1].Assignment; size.Value.Number == nil || *size.Value.Number != "14pt" {
		t.Fatalf("size should be a number with unit, got %+v", size.Value)
	}

	image := doc.Sections[1].Image
	if image.Name != "banner" {
		t.Fatalf("image name = %q", image.Name)
	}
	stmts := image.Block.Statements
	if len(stmts) != 8 {
		t.Fatalf("expected 8 statements, got %d", len(stmts))
	}
	if c := stmts[2].Assignment; c.Value.Color == nil || *c.Value.Color != "#202020" {
		t.Fatalf("color should lex as Color, got %+v", c.Value)
	}
	if a := stmts[4].Assignment; a.Value.Ident == nil || *a.Value.Ident != "center" {
		t.Fatalf("align should be an ident, got %+v", a.Value)
	}
	if a := stmts[5].Assignment; a.Value.Raw() != "-15.5deg" {
		t.Fatalf("angle = %q", a.Value.Raw())
	}
	if txt := stmts[6].Text; txt == nil || string(txt.Value) != "Hello, ${user.name}!" {
		t.Fatalf("unexpected text literal %+v", stmts[6])
	}
}

func TestParseAnonymousImage(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader(`image { "x" }`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Image.Name != "" {
		t.Fatalf("unexpected sections: %+v", doc.Sections)
	}
}

func TestParseEscapedString(t *testing.T) {
	doc, err := dsl.ParseString(`image { "line \"quoted\"\ttab" }`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := string(doc.Sections[0].Image.Block.Statements[0].Text.Value)
	if got != "line \"quoted\"\ttab" {
		t.Fatalf("unquote failed: %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		`image { width: }`,
		`page { "x" }`,
		`image { "unterminated }`,
	}
	for _, src := range bad {
		if _, err := dsl.ParseString(src); err == nil {
			t.Fatalf("expected parse error for %q", src)
		}
	}
}
