package transform

import (
	"context"
	"testing"

	"github.com/alnah/go-htmlexport/internal/htmltree"
)

// ---------------------------------------------------------------------------
// TestExtractMath - Source precedence
// ---------------------------------------------------------------------------

func TestExtractMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  MathFragment
	}{
		{
			name:  "legacy script inline",
			input: `<script type="math/tex">x+1</script>`,
			want:  MathFragment{TeX: "x+1"},
		},
		{
			name:  "legacy script display",
			input: `<script type="math/tex; mode=display"> \sum_i i </script>`,
			want:  MathFragment{TeX: `\sum_i i`, Display: true},
		},
		{
			name:  "katex annotation",
			input: `<span class="katex-display"><span class="katex"><span class="katex-mathml"><math><semantics><mrow></mrow><annotation encoding="application/x-tex">E=mc^2</annotation></semantics></math></span><span class="katex-html">E=mc2</span></span></span>`,
			want:  MathFragment{TeX: "E=mc^2", Display: true},
		},
		{
			name:  "arithmatex block delimiters",
			input: `<div class="arithmatex">\[a &lt; b\]</div>`,
			want:  MathFragment{TeX: "a < b", Display: true},
		},
		{
			name:  "arithmatex inline delimiters",
			input: `<span class="arithmatex">\(y_1\)</span>`,
			want:  MathFragment{TeX: "y_1"},
		},
		{
			name:  "raw dollars",
			input: `<span class="arithmatex">$$z$$</span>`,
			want:  MathFragment{TeX: "z", Display: true},
		},
		{
			name:  "empty",
			input: `<span class="arithmatex">  </span>`,
			want:  MathFragment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := htmltree.Parse(`<div id="host">` + tt.input + `</div>`)
			if err != nil {
				t.Fatal(err)
			}
			host := htmltree.Query(doc.Root, "#host")
			got := ExtractMath(host.FirstChild)
			if got != tt.want {
				t.Errorf("ExtractMath() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInlineFormula - TeX to inline nodes
// ---------------------------------------------------------------------------

func TestInlineFormula(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tex  string
		want string
	}{
		{`x^2`, `x<sup>2</sup>`},
		{`a_{ij}`, `a<sub>ij</sub>`},
		{`e^{i\pi}`, `e<sup>iπ</sup>`},
		{`\alpha \rightarrow \beta`, `α → β`},
		{`\frac{1}{2}`, `1/2`},
		{`\frac{a+b}{c}`, `(a+b)/c`},
		{`\sqrt{x}`, `√x`},
		{`\sqrt[3]{x+1}`, `<sup>3</sup>√(x+1)`},
		{`\mathbf{v}`, `<b>v</b>`},
		{`\text{if } x`, `if x`},
		{`\unknown`, `unknown`},
		{`\left( x \right)`, `( x )`},
		{`\{ \}`, `{ }`},
		{`a~b`, "a\u00a0b"},
		{`x^2 `, `x<sup>2</sup>`},
	}

	for _, tt := range tests {
		t.Run(tt.tex, func(t *testing.T) {
			t.Parallel()

			span := InlineFormula(tt.tex)
			if !htmltree.HasClass(span, "formula") {
				t.Error("missing formula class")
			}
			got, err := htmltree.RenderChildren(span)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("InlineFormula(%q) = %q, want %q", tt.tex, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestScanDollars - Bare dollar delimiters
// ---------------------------------------------------------------------------

func TestScanDollars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []dollarSegment
	}{
		{"inline", "a $x$ b", []dollarSegment{{start: 2, end: 5, tex: "x"}}},
		{"display", "$$ a+b $$", []dollarSegment{{start: 0, end: 9, tex: "a+b", display: true}}},
		{"prices", "costs $5 and $10", nil},
		{"space after opening", "$ x$", nil},
		{"space before closing", "$x $", nil},
		{"digit after closing", "$x$1", nil},
		{"escaped", `\$x$`, nil},
		{"two inline", "$a$, $b$", []dollarSegment{{start: 0, end: 3, tex: "a"}, {start: 5, end: 8, tex: "b"}}},
		{"unclosed display", "$$ a", nil},
		{"empty display", "$$$$", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := scanDollars(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("scanDollars(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMath - Full pass
// ---------------------------------------------------------------------------

func TestMath_EmptyCandidatesRemoved(t *testing.T) {
	t.Parallel()

	src := `<p>a<span class="arithmatex"> </span>b</p><div class="katex-display"></div><script type="math/tex"></script><math></math>`
	out := runPasses(t, TargetPDF, src, Math())

	if out != `<p>ab</p>` {
		t.Errorf("output = %q, want %q", out, `<p>ab</p>`)
	}
}

func TestMath_DisplayRendered(t *testing.T) {
	t.Parallel()

	math := &fakeMath{data: testPNG(t, 300, 150)}
	src := `<div class="arithmatex">\[x^2\]</div><ul><li><div class="arithmatex">\[y\]</div></li></ul>`
	out, report, err := runEngine(t, TargetPDF, src, WithPasses(Math()), WithMathRenderer(math))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v", report.Errors)
	}
	assertContains(t, out,
		`<table class="formula formula-block" border="0" cellpadding="0" cellspacing="0" align="center">`,
		`<td class="formula-cell" align="center"><img class="formula-img" src="data:image/png;base64,`,
		`alt="x^2" width="96" height="48"/>`,
		`class="formula formula-block formula-left"`,
		`<td class="formula-cell" align="left">`,
	)
	if got := math.Calls(); len(got) != 2 || got[0] != "x^2" || got[1] != "y" {
		t.Errorf("calls = %v", got)
	}
}

func TestMath_DisplayFallbackPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
		want    string
	}{
		{"fallback", DefaultPolicy, false, `<div class="formula formula-fallback"><code>$a$</code></div>`},
		{"skip", Policy{KindDependency: ActionSkip}, false, `<div class="arithmatex">\[a\]</div>`},
		{"abort", Policy{KindDependency: ActionAbort}, true, `<div class="arithmatex">\[a\]</div>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, _, err := runEngine(t, TargetPDF, `<div class="arithmatex">\[a\]</div>`,
				WithPasses(Math()),
				WithMathRenderer(&fakeMath{err: errUnreachable}),
				WithPolicy(tt.policy),
			)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertContains(t, out, tt.want)
		})
	}
}

func TestMath_NoRendererFallsBack(t *testing.T) {
	t.Parallel()

	out, report, err := runEngine(t, TargetWord, `<p>$$a+b$$</p>`, WithPasses(Math()))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != `<div class="formula formula-fallback"><code>$a+b$</code></div>` {
		t.Errorf("output = %q", out)
	}
	if report.Count(KindDependency) != 1 {
		t.Errorf("Count(KindDependency) = %d, want 1", report.Count(KindDependency))
	}
}

func TestMath_DollarText(t *testing.T) {
	t.Parallel()

	math := &fakeMath{data: testPNG(t, 30, 30)}
	src := `<p>Let $x_1$ be it, costs $5.</p><pre><code>echo $HOME$</code></pre><p>mid $$y$$ text</p>`
	out, _, err := runEngine(t, TargetPDF, src, WithPasses(Math()), WithMathRenderer(math))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	assertContains(t, out,
		`<p>Let <span class="formula">x<sub>1</sub></span> be it, costs $5.</p>`,
		`<code>echo $HOME$</code>`,
		`<p>mid <table class="formula formula-block"`,
	)
	if got := math.Calls(); len(got) != 1 || got[0] != "y" {
		t.Errorf("calls = %v, want [y]", got)
	}
}

func TestMath_RemnantsAndIdempotence(t *testing.T) {
	t.Parallel()

	src := `<p><span class="MathJax_Preview">x</span><script type="math/tex">x^2</script></p>`
	once := runPasses(t, TargetPDF, src, Math())
	assertExcludes(t, once, "MathJax", "<script")
	assertContains(t, once, `<span class="formula">x<sup>2</sup></span>`)

	twice := runPasses(t, TargetPDF, once, Math())
	if once != twice {
		t.Errorf("second run changed output\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestDisplayFormula_NilRenderer(t *testing.T) {
	t.Parallel()

	n, err := displayFormula(context.Background(), "a", false, &Env{Policy: DefaultPolicy})
	if err == nil {
		t.Fatal("displayFormula() without renderer should fail")
	}
	if !htmltree.HasClass(n, "formula-fallback") {
		t.Error("fallback node expected")
	}
}
