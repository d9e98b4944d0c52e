package tracking

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var hrefRe = regexp.MustCompile(`href="(https?://[^"]+)"`)

// Instrumentor returns a body rewriter for one campaign: every absolute
// http(s) link is routed through GET /track-click and a 1x1 open pixel is
// appended. It runs after formatting and before MIME assembly, so the
// rewritten URLs are what recipients actually click.
func Instrumentor(baseURL, campaignRef string) func(body, recipient string) string {
	baseURL = strings.TrimRight(baseURL, "/")

	return func(body, recipient string) string {
		out := hrefRe.ReplaceAllStringFunc(body, func(match string) string {
			target := hrefRe.FindStringSubmatch(match)[1]
			// Never re-wrap our own redirect links.
			if strings.HasPrefix(target, baseURL+"/track-") {
				return match
			}
			return fmt.Sprintf(`href="%s/track-click?c=%s&e=%s&url=%s"`,
				baseURL,
				url.QueryEscape(campaignRef),
				url.QueryEscape(recipient),
				url.QueryEscape(target),
			)
		})

		pixel := fmt.Sprintf(`<img src="%s/track-open?c=%s&e=%s" width="1" height="1" alt="" style="display:none">`,
			baseURL,
			url.QueryEscape(campaignRef),
			url.QueryEscape(recipient),
		)

		// Keep the pixel inside the outer wrapper div when there is one.
		if idx := strings.LastIndex(out, "</div>"); idx >= 0 {
			return out[:idx] + pixel + out[idx:]
		}
		return out + pixel
	}
}
