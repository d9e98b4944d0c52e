package message

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// The Gmail API takes a complete RFC 2822 message in its "raw" field, so
// the builder emits the whole thing as one CRLF-delimited text blob:
// headers, a text/html part, then one part per attachment, all separated by
// a random boundary.

const boundaryLen = 16

const boundaryAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// encodeWord B-encodes a header value as =?UTF-8?B?...?=. Subjects and
// attachment filenames are always encoded, ASCII or not, so every client
// decodes them the same way.
func encodeWord(s string) string {
	return "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte(s)) + "?="
}

// randomBoundary returns an alphanumeric boundary token from crypto/rand.
func randomBoundary() (string, error) {
	buf := make([]byte, boundaryLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate boundary: %w", err)
	}
	b := make([]byte, boundaryLen)
	for i, c := range buf {
		b[i] = boundaryAlphabet[int(c)%len(boundaryAlphabet)]
	}
	return string(b), nil
}

// BuildMIME assembles a multipart/mixed RFC 2822 message. Attachment data
// must already be base64; callers resolve URL-only attachments before
// getting here. The boundary is regenerated until it appears nowhere in the
// body or attachment data, so content can never terminate a part early.
func BuildMIME(from, to, subject, htmlBody string, attachments []Attachment) (string, error) {
	boundary, err := randomBoundary()
	if err != nil {
		return "", err
	}
	for collides(boundary, htmlBody, attachments) {
		if boundary, err = randomBoundary(); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	writeLine := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	writeLine("From: " + from)
	writeLine("To: " + to)
	writeLine("Subject: " + encodeWord(subject))
	writeLine("MIME-Version: 1.0")
	writeLine(`Content-Type: multipart/mixed; boundary="` + boundary + `"`)
	writeLine("")

	writeLine("--" + boundary)
	writeLine("Content-Type: text/html; charset=utf-8")
	writeLine("Content-Transfer-Encoding: 8bit")
	writeLine("")
	writeLine(htmlBody)

	for _, att := range attachments {
		name := encodeWord(att.Name)
		mimeType := att.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		writeLine("--" + boundary)
		writeLine("Content-Type: " + mimeType + `; name="` + name + `"`)
		writeLine(`Content-Disposition: attachment; filename="` + name + `"`)
		writeLine("Content-Transfer-Encoding: base64")
		writeLine("")
		// Data is already base64; re-wrap it to 76-char lines for
		// transfer-encoding compliance.
		for _, line := range wrapBase64(att.Data) {
			writeLine(line)
		}
	}

	writeLine("--" + boundary + "--")
	return b.String(), nil
}

func collides(boundary, htmlBody string, attachments []Attachment) bool {
	if strings.Contains(htmlBody, boundary) {
		return true
	}
	for _, att := range attachments {
		if strings.Contains(att.Data, boundary) {
			return true
		}
	}
	return false
}

func wrapBase64(data string) []string {
	data = strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, data)

	const width = 76
	var lines []string
	for len(data) > width {
		lines = append(lines, data[:width])
		data = data[width:]
	}
	if len(data) > 0 {
		lines = append(lines, data)
	}
	return lines
}

// EncodeTransport converts a built MIME message into the URL-safe base64
// form the Gmail send endpoint requires for its "raw" field: standard
// base64 with + and / swapped for - and _ and the trailing padding removed.
func EncodeTransport(mime string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(mime))
}
