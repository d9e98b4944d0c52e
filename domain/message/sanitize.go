package message

import (
	"regexp"
	"strings"
)

// The sanitizer works on the raw HTML string with independent regex rules
// rather than a DOM round-trip. Pasted and forwarded mail is full of markup
// no parser accepts cleanly; a failed rule must never take the other rules
// down with it, and re-running the whole chain must be a no-op.

var (
	scriptRe      = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	scriptOpenRe  = regexp.MustCompile(`(?is)<script\b[^>]*>`)
	eventAttrRe   = regexp.MustCompile(`(?is)\s+on\w+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	jsURLRe       = regexp.MustCompile(`(?i)javascript\s*:`)
	classAttrRe   = regexp.MustCompile(`(?is)\sclass\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	tableOpenRe   = regexp.MustCompile(`(?is)<(table|tbody|thead|tr|td|th)\b[^>]*>`)
	tableCloseRe  = regexp.MustCompile(`(?is)</(table|tbody|thead|tr|td|th)\s*>`)
	forwardedRe   = regexp.MustCompile(`(?is)class\s*=\s*["'][^"']*\bm_\d`)
	hasTableRe    = regexp.MustCompile(`(?is)<table\b`)
	hSpaceRe      = regexp.MustCompile(`[ \t]+`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	forwardedTokn = regexp.MustCompile(`^m_\d+`)
)

// Class tokens that only exist inside the editor and must never reach the
// wire format or a stored template.
var editorClassTokens = []string{
	"code-block", "blockquote", "hr", "email-table", "selectedCell",
}

// Sanitize strips dangerous constructs and editor/forwarded-mail residue
// from arbitrary HTML. It is idempotent and never fails: each rule runs on
// its own, tolerating whatever malformed fragment the previous one left.
func Sanitize(html string) string {
	html = flattenForwardedTables(html)
	html = stripDangerous(html)
	html = stripEditorClasses(html)
	html = collapseWhitespace(html)
	return html
}

// flattenForwardedTables collapses legacy table-as-layout markup (typically
// Gmail forwards, recognizable by m_-prefixed classes or classed tables)
// into nested divs.
func flattenForwardedTables(html string) string {
	complex := forwardedRe.MatchString(html) ||
		(hasTableRe.MatchString(html) && classAttrRe.MatchString(html))
	if !complex {
		return html
	}
	html = tableOpenRe.ReplaceAllString(html, "<div>")
	html = tableCloseRe.ReplaceAllString(html, "</div>")
	return html
}

func stripDangerous(html string) string {
	html = removeAll(scriptRe, html)
	// Unclosed <script> blocks survive the paired rule; drop the tag itself
	// so no executable context remains.
	html = removeAll(scriptOpenRe, html)
	html = removeAll(eventAttrRe, html)
	html = removeAll(jsURLRe, html)
	return html
}

// removeAll deletes matches until the input stops changing. A single pass is
// not enough: removing one match can splice the surrounding text into a new
// one (`jjavascript:avascript:` becomes `javascript:` after one deletion).
func removeAll(re *regexp.Regexp, html string) string {
	for {
		next := re.ReplaceAllString(html, "")
		if next == html {
			return next
		}
		html = next
	}
}

// stripEditorClasses removes editor-only class tokens while keeping the
// element. A class attribute left with no tokens is dropped entirely.
func stripEditorClasses(html string) string {
	return classAttrRe.ReplaceAllStringFunc(html, func(attr string) string {
		m := classAttrRe.FindStringSubmatch(attr)
		val := m[1]
		if val == "" {
			val = m[2]
		}
		var kept []string
		for _, tok := range strings.Fields(val) {
			if isEditorClass(tok) {
				continue
			}
			kept = append(kept, tok)
		}
		if len(kept) == 0 {
			return ""
		}
		return ` class="` + strings.Join(kept, " ") + `"`
	})
}

func isEditorClass(tok string) bool {
	if strings.HasPrefix(tok, "ProseMirror") || strings.HasPrefix(tok, "editor-") {
		return true
	}
	if forwardedTokn.MatchString(tok) {
		return true
	}
	for _, t := range editorClassTokens {
		if tok == t {
			return true
		}
	}
	return false
}

func collapseWhitespace(html string) string {
	html = hSpaceRe.ReplaceAllString(html, " ")
	html = blankLinesRe.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}
