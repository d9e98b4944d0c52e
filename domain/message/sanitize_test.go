package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`<p>Hello world</p>`,
		`<div class="ProseMirror editor-content"><p>Hi</p></div>`,
		`<table class="m_12345layout"><tr><td>cell</td></tr></table>`,
		`<script>alert(1)</script><p onclick="steal()">text</p>`,
		`text   with     runs

` + "\n\n\n\n" + `of blank lines`,
		`<a href="javascript:alert(1)">click</a>`,
		`<div on onclick="x"click="alert(1)">x</div>`,
		`jjavascript:avascript:alert(1)`,
		``,
		`<div><span class="code-block selectedCell">x</span></div>`,
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", in)
	}
}

func TestSanitizeRemovesDangerousConstructs(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"script block", `<p>hi</p><script type="text/javascript">document.cookie</script>`},
		{"unclosed script", `<p>hi</p><script>var x = 1`},
		{"event handler double quoted", `<img src="x.png" onclick="steal()">`},
		{"event handler single quoted", `<div onmouseover='attack()'>hover</div>`},
		{"event handler unquoted", `<div onload=boom>x</div>`},
		{"javascript url", `<a href="javascript:alert(1)">click</a>`},
		{"javascript url with spaces", `<a href="javascript  :alert(1)">click</a>`},
		{"handler reassembled by removal", `<div on onclick="x"click="alert(1)">x</div>`},
		{"javascript url reassembled by removal", `<a href="jjavascript:avascript:alert(1)">click</a>`},
		{"nested script blocks", `<scr<script>alert(1)</script>ipt>alert(2)</script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(tt.input)
			assert.NotContains(t, out, "<script")
			assert.NotContains(t, out, "onclick=")
			assert.NotContains(t, out, "onmouseover=")
			assert.NotContains(t, out, "onload=")
			assert.NotContains(t, strings.ToLower(out), "javascript:")
		})
	}
}

func TestSanitizeFlattensForwardedTables(t *testing.T) {
	in := `<table class="m_998877layout"><tbody><tr><td>forwarded text</td></tr></tbody></table>`
	out := Sanitize(in)

	assert.NotContains(t, out, "<table")
	assert.NotContains(t, out, "<td")
	assert.NotContains(t, out, "m_998877")
	assert.Contains(t, out, "forwarded text")
	assert.Contains(t, out, "<div>")
}

func TestSanitizeKeepsPlainTables(t *testing.T) {
	// A bare data table with no class attributes is not forwarded-mail
	// layout and stays a table.
	in := `<table><tr><td>a</td><td>b</td></tr></table>`
	out := Sanitize(in)
	assert.Contains(t, out, "<table")
}

func TestSanitizeStripsEditorClassesKeepsElements(t *testing.T) {
	in := `<div class="ProseMirror"><p class="editor-paragraph keep-me">text</p></div>`
	out := Sanitize(in)

	require.Contains(t, out, "text")
	assert.NotContains(t, out, "ProseMirror")
	assert.NotContains(t, out, "editor-paragraph")
	assert.Contains(t, out, `class="keep-me"`)
	assert.Contains(t, out, "<p")
}

func TestSanitizeCollapsesWhitespace(t *testing.T) {
	in := "a    b\tc\n\n\n\n\nd"
	out := Sanitize(in)
	assert.Equal(t, "a b c\n\nd", out)
}

func TestSanitizeNeverPanicsOnMalformedHTML(t *testing.T) {
	inputs := []string{
		`<div <p>><<>>`,
		`<script><script></script>`,
		`<a href="`,
		strings.Repeat("<", 1000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Sanitize(in) })
	}
}
