package message

import (
	"regexp"
	"strings"
)

// Placeholders come in two spellings: the current editor emits {{field}},
// older stored templates still carry single-brace {field}. Both resolve
// against the recipient record, first with the key exactly as written and
// then lowercased, because CSV headers arrive with whatever casing the
// operator typed ("Email" vs "email"). A placeholder with no matching field
// stays in the text verbatim; silently blanking it would hide data problems
// from the operator.

var (
	doubleBraceRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)
	singleBraceRe = regexp.MustCompile(`\{\s*([A-Za-z0-9_.-]+)\s*\}`)
)

// Substitute replaces every {{key}} and {key} occurrence in tmpl with the
// recipient's value for that key.
func Substitute(tmpl string, record RecipientRecord) string {
	tmpl = doubleBraceRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		key := doubleBraceRe.FindStringSubmatch(ph)[1]
		if v, ok := lookup(record, key); ok {
			return v
		}
		return ph
	})
	// Single-brace placeholders are matched after the double-brace pass so
	// an unresolved {{key}} is not half-eaten by the {key} rule.
	tmpl = singleBraceRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		key := singleBraceRe.FindStringSubmatch(ph)[1]
		if v, ok := lookup(record, key); ok {
			return v
		}
		return ph
	})
	return tmpl
}

func lookup(record RecipientRecord, key string) (string, bool) {
	if v, ok := record[key]; ok {
		return v, true
	}
	lk := strings.ToLower(key)
	if v, ok := record[lk]; ok {
		return v, true
	}
	for k, v := range record {
		if strings.ToLower(k) == lk {
			return v, true
		}
	}
	return "", false
}
