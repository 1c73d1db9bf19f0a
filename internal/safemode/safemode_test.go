package safemode

import (
	"strings"
	"testing"
)

// Notes:
// - bluemonday rewrites void elements as <br/> and <img .../>, the same
//   shape x/net/html renders, so expectations below use that form.

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q\n%s", w, got)
		}
	}
}

func assertExcludes(t *testing.T, got string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(got, u) {
			t.Errorf("output should not contain %q\n%s", u, got)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSanitize - Stripping rules
// ---------------------------------------------------------------------------

func TestSanitize_Strips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		excludes []string
	}{
		{"script", `<p>a</p><script>alert(1)</script>`, []string{"<script", "alert"}},
		{"style element", `<style>p{color:red}</style><p>a</p>`, []string{"<style", "color:red"}},
		{"link", `<link rel="stylesheet" href="x.css"><p>a</p>`, []string{"<link", "x.css"}},
		{"inline style", `<p style="color: red">a</p>`, []string{"style=", "color"}},
		{"event handler", `<img src="a.png" onerror="x()">`, []string{"onerror"}},
		{"javascript href", `<a href="javascript:x()">a</a>`, []string{"javascript"}},
		{"form controls", `<input type="checkbox" checked><button>go</button>`, []string{"<input", "<button"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertExcludes(t, Sanitize(tt.input), tt.excludes...)
		})
	}
}

func TestSanitize_Keeps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"class and id", `<h2 id="intro" class="title">Intro</h2>`, `<h2 id="intro" class="title">Intro</h2>`},
		{"anchor name", `<a name="intro"></a>`, `<a name="intro">`},
		{"fragment link", `<a href="#intro" class="wikilink">x</a>`, `<a href="#intro" class="wikilink">x</a>`},
		{"external link", `<a href="https://example.com">x</a>`, `href="https://example.com"`},
		{"data uri image", `<img class="emoji" src="data:image/png;base64,iVBORw0KGgo=" alt="x">`, `src="data:image/png;base64,iVBORw0KGgo="`},
		{"file image", `<img src="file:///tmp/a.png">`, `src="file:///tmp/a.png"`},
		{"emoji alt", `<img class="emoji" src="data:image/png;base64,iVBORw0KGgo=" alt="🚀">`, `alt="🚀"`},
		{"layout table", `<table class="clip-guard" border="0" cellpadding="0" cellspacing="0" align="center"><tbody><tr><td width="16" valign="top">x</td></tr></tbody></table>`,
			`<table class="clip-guard" border="0" cellpadding="0" cellspacing="0" align="center">`},
		{"cell attrs", `<table><tr><td width="16" valign="top" align="right">1</td></tr></table>`, `<td width="16" valign="top" align="right">1</td>`},
		{"abbr title", `<abbr title="HyperText">HTML</abbr>`, `<abbr title="HyperText">HTML</abbr>`},
		{"definition list", `<dl><dt class="dl-term">a</dt><dd class="dl-desc">b</dd></dl>`, `<dt class="dl-term">a</dt>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertContains(t, Sanitize(tt.input), tt.want)
		})
	}
}

func TestSanitize_NoNofollow(t *testing.T) {
	t.Parallel()

	for _, link := range []string{
		`<a href="https://example.com">x</a>`,
		`<a href="#intro" class="wikilink">x</a>`,
		`<p><img src="data:image/png;base64,iVBORw0KGgo="> <a href="notes.html">n</a></p>`,
	} {
		assertExcludes(t, Sanitize(link), "nofollow")
	}
}

// ---------------------------------------------------------------------------
// TestDocument - Page assembly
// ---------------------------------------------------------------------------

func TestDocument(t *testing.T) {
	t.Parallel()

	out := Document("A & B", `<p style="color:red">hi</p><style>x{}</style>`, "p { margin: 0 }")

	assertContains(t, out,
		"<!DOCTYPE html>",
		"<title>A &amp; B</title>",
		"<style>\np { margin: 0 }\n</style>",
		"<div class=\"markdown-body\">\n<p>hi</p>",
	)
	if n := strings.Count(out, "<style>"); n != 1 {
		t.Errorf("style elements = %d, want 1", n)
	}
}

func TestDocument_EscapesStyleClose(t *testing.T) {
	t.Parallel()

	out := Document("", "<p>x</p>", "a{} </style><script>x</script>")
	assertExcludes(t, out, "</style><script>", "<title>")
}
