package message

import (
	"regexp"
	"strings"
)

// Inline-style formatting turns sanitized semantic HTML into something a
// mail client renders the same way a browser would. Most clients throw away
// <style> blocks and linked stylesheets, so every structural tag gets its
// visual defaults written out as an inline style attribute. The constants
// below are the whole visual contract; changing one changes how every sent
// campaign looks.

const (
	baseFontFamily = "Arial, Helvetica, sans-serif"
	baseFontSize   = "14px"
	baseLineHeight = "1.5"
	baseTextColor  = "#222222"

	paragraphStyle = "margin:0;padding:0 0 0.5em 0;line-height:1.5"
	spacerStyle    = "margin:0;padding:0;min-height:1.5em;line-height:1.5"

	blockquoteStyle = "border-left:3px solid #cccccc;margin:0.5em 0;padding:0 0 0 1em;color:#555555;font-style:italic"
	preStyle        = "font-family:monospace;font-size:13px;background-color:#f5f5f5;padding:12px;border-radius:4px;overflow:auto;margin:0.5em 0"
	codeStyle       = "font-family:monospace;font-size:13px;background-color:#f5f5f5;padding:2px 4px;border-radius:3px"
	hrStyle         = "border:none;border-top:2px solid #dddddd;margin:1em 0"

	ulStyle = "list-style-type:disc;margin:0.5em 0;padding-left:2em"
	olStyle = "list-style-type:decimal;margin:0.5em 0;padding-left:2em"
	liStyle = "margin:0.25em 0;line-height:1.5"

	tableStyle = "border-collapse:collapse;width:100%;margin:0.5em 0"
	thStyle    = "border:1px solid #dddddd;padding:8px;text-align:left;font-weight:bold;background-color:#f5f5f5"
	tdStyle    = "border:1px solid #dddddd;padding:8px"

	linkStyle = "color:#1a73e8;text-decoration:underline"
	imgStyle  = "max-width:100%;height:auto"

	defaultMarkColor = "#ffff00"
)

// Heading sizes walk down from 2em to 1em with browser-default margins.
var headingStyles = map[string]string{
	"h1": "font-size:2em;font-weight:bold;margin:0.67em 0;line-height:1.3",
	"h2": "font-size:1.5em;font-weight:bold;margin:0.83em 0;line-height:1.3",
	"h3": "font-size:1.17em;font-weight:bold;margin:1em 0;line-height:1.3",
	"h4": "font-size:1em;font-weight:bold;margin:1.33em 0;line-height:1.3",
}

var (
	emptyParaRe  = regexp.MustCompile(`(?is)<p\b[^>]*>(?:\s|&nbsp;|<br\s*/?>)*</p>`)
	paraOpenRe   = regexp.MustCompile(`(?is)<p\b([^>]*)>`)
	headingRe    = regexp.MustCompile(`(?is)<(h[1-4])\b[^>]*>`)
	blockquoteRe = regexp.MustCompile(`(?is)<blockquote\b[^>]*>`)
	preCodeRe    = regexp.MustCompile(`(?is)<pre\b[^>]*>\s*<code\b[^>]*>`)
	preOpenRe    = regexp.MustCompile(`(?is)<pre\b[^>]*>`)
	codeOpenRe   = regexp.MustCompile(`(?is)<code\b[^>]*>`)
	hrRe         = regexp.MustCompile(`(?is)<hr\b[^>]*/?>`)
	ulRe         = regexp.MustCompile(`(?is)<ul\b[^>]*>`)
	olRe         = regexp.MustCompile(`(?is)<ol\b[^>]*>`)
	liRe         = regexp.MustCompile(`(?is)<li\b[^>]*>`)
	tableRe      = regexp.MustCompile(`(?is)<table\b[^>]*>`)
	thRe         = regexp.MustCompile(`(?is)<th\b[^>]*>`)
	tdRe         = regexp.MustCompile(`(?is)<td\b[^>]*>`)
	anchorRe     = regexp.MustCompile(`(?is)<a\b([^>]*\bhref\s*=[^>]*)>`)
	markRe       = regexp.MustCompile(`(?is)<mark\b([^>]*)>`)
	imgOpenRe    = regexp.MustCompile(`(?is)<img\b([^>]*?)(/?)>`)
	styleAttrRe  = regexp.MustCompile(`(?is)\bstyle\s*=`)
	dataColorRe  = regexp.MustCompile(`(?is)\bdata-color\s*=\s*["']([^"']+)["']`)

	wrapMarker = `<div dir="ltr" style="font-family:` + baseFontFamily +
		`;font-size:` + baseFontSize +
		`;line-height:` + baseLineHeight +
		`;color:` + baseTextColor + `">`
)

// Format rewrites sanitized semantic HTML into inline-styled,
// mail-client-portable HTML and wraps it once in the outer dir="ltr"
// container. Calling Format on already formatted output does not nest a
// second wrapper.
func Format(html string) string {
	if strings.HasPrefix(strings.TrimSpace(html), wrapMarker) {
		return html
	}

	// Paragraphs become divs: blank ones turn into &nbsp; spacers so mail
	// clients cannot collapse intentional empty lines, the rest keep their
	// text in a fixed-rhythm block.
	html = emptyParaRe.ReplaceAllString(html, `<div style="`+spacerStyle+`">&nbsp;</div>`)
	html = paraOpenRe.ReplaceAllString(html, `<div style="`+paragraphStyle+`">`)
	html = strings.ReplaceAll(html, "</p>", "</div>")

	html = headingRe.ReplaceAllStringFunc(html, func(tag string) string {
		m := headingRe.FindStringSubmatch(tag)
		name := strings.ToLower(m[1])
		return "<" + name + ` style="` + headingStyles[name] + `">`
	})

	html = blockquoteRe.ReplaceAllString(html, `<blockquote style="`+blockquoteStyle+`">`)

	// Style <pre> blocks first; a <code> directly inside a styled <pre>
	// stays bare so backgrounds and padding do not double up.
	html = preCodeRe.ReplaceAllString(html, `<pre style="`+preStyle+`"><code data-inpre>`)
	html = preOpenRe.ReplaceAllString(html, `<pre style="`+preStyle+`">`)
	html = codeOpenRe.ReplaceAllStringFunc(html, func(tag string) string {
		if styleAttrRe.MatchString(tag) || strings.Contains(tag, "data-inpre") {
			return tag
		}
		return `<code style="` + codeStyle + `">`
	})
	html = strings.ReplaceAll(html, "<code data-inpre>", "<code>")

	html = hrRe.ReplaceAllString(html, `<hr style="`+hrStyle+`">`)

	// Explicit list styles: plenty of clients reset list-style-type and
	// padding to nothing.
	html = ulRe.ReplaceAllString(html, `<ul style="`+ulStyle+`">`)
	html = olRe.ReplaceAllString(html, `<ol style="`+olStyle+`">`)
	html = liRe.ReplaceAllString(html, `<li style="`+liStyle+`">`)

	html = tableRe.ReplaceAllString(html, `<table style="`+tableStyle+`" border="1" cellpadding="0" cellspacing="0">`)
	html = thRe.ReplaceAllString(html, `<th style="`+thStyle+`">`)
	html = tdRe.ReplaceAllString(html, `<td style="`+tdStyle+`">`)

	html = anchorRe.ReplaceAllStringFunc(html, func(tag string) string {
		if styleAttrRe.MatchString(tag) {
			return tag
		}
		m := anchorRe.FindStringSubmatch(tag)
		return `<a` + m[1] + ` style="` + linkStyle + `">`
	})

	html = markRe.ReplaceAllStringFunc(html, func(tag string) string {
		color := defaultMarkColor
		if m := dataColorRe.FindStringSubmatch(tag); m != nil {
			color = m[1]
		}
		return `<mark style="background-color:` + color + `;padding:1px 2px">`
	})

	html = imgOpenRe.ReplaceAllStringFunc(html, func(tag string) string {
		if styleAttrRe.MatchString(tag) {
			return tag
		}
		m := imgOpenRe.FindStringSubmatch(tag)
		return `<img` + m[1] + ` style="` + imgStyle + `"` + m[2] + `>`
	})

	return wrapMarker + html + "</div>"
}

// FormatBody runs the full content pipeline: emoji normalization,
// sanitization, then inline styling. Formatting must never be the reason a
// campaign cannot go out; if the pipeline panics on pathological input the
// original content is sent wrapped but otherwise untouched.
func FormatBody(raw string) (formatted string) {
	defer func() {
		if r := recover(); r != nil {
			formatted = wrapMarker + raw + "</div>"
		}
	}()
	return Format(Sanitize(NormalizeEmoji(raw)))
}
