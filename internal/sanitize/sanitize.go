// Package sanitize cleans free-text player names before they are stored.
package sanitize

import (
	"errors"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// maxPasses bounds the strip/decode loop. Each pass removes one layer of
// markup or entity encoding.
const maxPasses = 4

var policy = bluemonday.StrictPolicy()

// Name strips every tag from s, drops the content of script-like elements
// and returns plain text with entities decoded. Text is only re-parsed while
// it still holds a complete tag or comment, so decoding "&lt;b&gt;" cannot
// smuggle a tag through while "a < b" and "Alice <3" are kept as written.
func Name(s string) string {
	out := s
	converged := false
	for i := 0; i < maxPasses; i++ {
		var next string
		if hasMarkup(out) {
			next = html.UnescapeString(policy.Sanitize(out))
		} else {
			next = html.UnescapeString(out)
		}
		if next == out {
			converged = true
			break
		}
		out = next
	}
	if !converged && hasMarkup(out) {
		// Still encoding markup after maxPasses: keep the escaped form.
		out = policy.Sanitize(out)
	}
	return strings.TrimSpace(out)
}

// hasMarkup reports whether s tokenizes to at least one tag, comment or
// doctype. A '<' that does not open a complete tag is text.
func hasMarkup(s string) bool {
	z := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return true
			}
			return false
		case xhtml.TextToken:
			continue
		default:
			return true
		}
	}
}
