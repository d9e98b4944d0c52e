package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParagraphBecomesStyledDiv(t *testing.T) {
	out := Format("<p>Hi</p>")

	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "</p>")
	assert.Contains(t, out, `<div style="`+paragraphStyle+`">Hi</div>`)
	assert.Contains(t, out, "line-height:1.5")
}

func TestFormatEmptyParagraphBecomesSpacer(t *testing.T) {
	for _, in := range []string{"<p></p>", "<p><br></p>", "<p> <br/> </p>", "<p>&nbsp;</p>"} {
		out := Format(in)
		assert.Contains(t, out, `<div style="`+spacerStyle+`">&nbsp;</div>`, "input %q", in)
	}
}

func TestFormatHeadings(t *testing.T) {
	out := Format("<h1>a</h1><h2>b</h2><h3>c</h3><h4>d</h4>")

	assert.Contains(t, out, `<h1 style="font-size:2em`)
	assert.Contains(t, out, `<h2 style="font-size:1.5em`)
	assert.Contains(t, out, `<h3 style="font-size:1.17em`)
	assert.Contains(t, out, `<h4 style="font-size:1em`)
	assert.Equal(t, 4, strings.Count(out, "font-weight:bold"))
}

func TestFormatBlockquoteAndHr(t *testing.T) {
	out := Format("<blockquote>quote</blockquote><hr>")

	assert.Contains(t, out, `<blockquote style="`+blockquoteStyle+`">`)
	assert.Contains(t, out, `<hr style="`+hrStyle+`">`)
	assert.Contains(t, out, "border-top:2px solid")
	assert.NotContains(t, out, "border:1px")
}

func TestFormatCodeInsideStyledPreStaysBare(t *testing.T) {
	out := Format("<pre><code>x := 1</code></pre>")

	assert.Contains(t, out, `<pre style="`+preStyle+`"><code>x := 1</code></pre>`)
	// Standalone inline code still gets its own style.
	out = Format("run <code>go vet</code> first")
	assert.Contains(t, out, `<code style="`+codeStyle+`">go vet</code>`)
}

func TestFormatLists(t *testing.T) {
	out := Format("<ul><li>one</li></ul><ol><li>two</li></ol>")

	assert.Contains(t, out, "list-style-type:disc")
	assert.Contains(t, out, "list-style-type:decimal")
	assert.Contains(t, out, `<li style="`+liStyle+`">`)
}

func TestFormatTables(t *testing.T) {
	out := Format("<table><tr><th>h</th><td>d</td></tr></table>")

	assert.Contains(t, out, "border-collapse:collapse")
	assert.Contains(t, out, `<th style="`+thStyle+`">`)
	assert.Contains(t, out, `<td style="`+tdStyle+`">`)
}

func TestFormatLinks(t *testing.T) {
	out := Format(`<a href="https://example.com">x</a>`)
	assert.Contains(t, out, `style="`+linkStyle+`"`)

	// Pre-styled links are left alone.
	styled := `<a href="https://example.com" style="color:red">x</a>`
	out = Format(styled)
	assert.Contains(t, out, "color:red")
	assert.NotContains(t, out, linkStyle)
}

func TestFormatMark(t *testing.T) {
	out := Format(`<mark data-color="#aaffaa">hi</mark>`)
	assert.Contains(t, out, "background-color:#aaffaa")

	out = Format(`<mark>hi</mark>`)
	assert.Contains(t, out, "background-color:"+defaultMarkColor)
}

func TestFormatImages(t *testing.T) {
	out := Format(`<img src="a.png" alt="pic">`)
	assert.Contains(t, out, "max-width:100%")
	assert.Contains(t, out, "height:auto")

	styled := `<img src="a.png" style="width:40px">`
	out = Format(styled)
	assert.Contains(t, out, "width:40px")
	assert.NotContains(t, out, "max-width:100%")
}

func TestFormatWrapsExactlyOnce(t *testing.T) {
	once := Format("<p>Hi</p>")
	require.True(t, strings.HasPrefix(once, wrapMarker))

	twice := Format(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 1, strings.Count(twice, `dir="ltr"`))
}

func TestFormatBodyFullPipeline(t *testing.T) {
	in := `<script>evil()</script><p class="editor-paragraph">Welcome <img class="emoji" alt="😀" src="cdn/1f600.png"></p>`
	out := FormatBody(in)

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "editor-paragraph")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "😀")
	assert.Contains(t, out, `<div style="`+paragraphStyle+`">`)
	assert.True(t, strings.HasPrefix(out, wrapMarker))
}
