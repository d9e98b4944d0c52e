package message

import (
	"regexp"
	"strconv"
	"strings"
)

// Rich text editors insert emoji as <img> tags pointing at sprite sheets or
// CDN-hosted PNGs. Mail clients render those as broken images once the
// editor's assets are out of reach, so every emoji image is converted back
// to its Unicode character before the message hits the wire.

var (
	emojiImgRe    = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	emojiAltRe    = regexp.MustCompile(`(?is)\balt\s*=\s*["']([^"']*)["']`)
	emojiSrcRe    = regexp.MustCompile(`(?is)\bsrc\s*=\s*["']([^"']*)["']`)
	emojiClassRe  = regexp.MustCompile(`(?is)\bclass\s*=\s*["'][^"']*\bemoji\b[^"']*["']`)
	emojiDataRe   = regexp.MustCompile(`(?is)\bdata-emoji\b`)
	codePointFile = regexp.MustCompile(`(?i)(?:^|/)([0-9a-f]{2,6}(?:-[0-9a-f]{2,6})*)\.(?:png|gif|svg|webp)(?:[?#].*)?$`)
)

// NormalizeEmoji replaces emoji <img> elements with their Unicode text.
// The alt attribute wins when present; otherwise the code point is decoded
// from the image filename (e.g. "1f600.png" or "1f1fa-1f1f8.png").
// Emoji images with no recoverable character are deleted outright so no
// broken image reference survives. Non-emoji images are left alone.
func NormalizeEmoji(html string) string {
	return emojiImgRe.ReplaceAllStringFunc(html, func(img string) string {
		if !isEmojiImg(img) {
			return img
		}
		if m := emojiAltRe.FindStringSubmatch(img); m != nil && m[1] != "" {
			return m[1]
		}
		if m := emojiSrcRe.FindStringSubmatch(img); m != nil {
			if cp := codePointFile.FindStringSubmatch(m[1]); cp != nil {
				return decodeCodePoints(cp[1])
			}
		}
		return ""
	})
}

func isEmojiImg(img string) bool {
	if emojiDataRe.MatchString(img) || emojiClassRe.MatchString(img) {
		return true
	}
	if m := emojiSrcRe.FindStringSubmatch(img); m != nil {
		return codePointFile.MatchString(m[1])
	}
	return false
}

// decodeCodePoints turns "1f1fa-1f1f8" into the corresponding runes.
// Unparseable or out-of-range code points are dropped silently.
func decodeCodePoints(points string) string {
	var b strings.Builder
	for _, part := range strings.Split(points, "-") {
		n, err := strconv.ParseInt(part, 16, 32)
		if err != nil || n <= 0 || n > 0x10FFFF {
			continue
		}
		b.WriteRune(rune(n))
	}
	return b.String()
}
