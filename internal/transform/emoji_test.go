package transform

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestEmoji - Emoji substitution per target
// ---------------------------------------------------------------------------

func TestEmoji_PDF(t *testing.T) {
	t.Parallel()

	src := `<p>Launch 🚀 and :tada:</p><pre><code>keep 🚀</code></pre>`
	out := runPasses(t, TargetPDF, src, Emoji())

	if n := strings.Count(out, `<img class="emoji"`); n != 2 {
		t.Errorf("emoji images = %d, want 2\n%s", n, out)
	}
	assertContains(t, out, `alt="🚀" width="16" height="16"/>`, `<code>keep 🚀</code>`)
	assertExcludes(t, out, ":tada:")
}

func TestEmoji_Word(t *testing.T) {
	t.Parallel()

	out := runPasses(t, TargetWord, "<p>Sun \u2600 here</p>", Emoji())
	assertContains(t, out,
		`<span class="emoji" style="font-family: &#39;Segoe UI Emoji&#39;, sans-serif;">`+"\u2600\ufe0f</span>",
		"Sun ", " here",
	)
	assertExcludes(t, out, "<img")
}

func TestEmoji_RasterizerFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy Policy
		want   string
	}{
		{"fallback keeps span", DefaultPolicy, `<span class="emoji">🚀</span>`},
		{"skip keeps text", Policy{KindDependency: ActionSkip}, `<p>a 🚀 b 🚀</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, report, err := runEngine(t, TargetPDF, "<p>a 🚀 b 🚀</p>",
				WithPasses(Emoji()),
				WithRasterizer(&fakeRasterizer{fail: map[string]bool{"🚀": true}}),
				WithPolicy(tt.policy),
			)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			assertContains(t, out, tt.want)
			if got := report.Count(KindDependency); got != 1 {
				t.Errorf("failures should be reported once per cluster, got %d", got)
			}
		})
	}
}

func TestEmoji_NoRasterizerAborts(t *testing.T) {
	t.Parallel()

	_, _, err := runEngine(t, TargetPDF, "<p>🚀</p>",
		WithPasses(Emoji()),
		WithPolicy(Policy{KindDependency: ActionAbort}),
	)
	if err == nil {
		t.Error("Run() should abort when the policy says so")
	}
}

func TestEmoji_SkipsFormulas(t *testing.T) {
	t.Parallel()

	src := `<p><span class="formula">x ⭐</span></p>`
	out := runPasses(t, TargetPDF, src, Emoji())
	if out != src {
		t.Errorf("output = %q, want unchanged", out)
	}
}
