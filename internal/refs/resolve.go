// Package refs reconciles the two variants of a streamed answer, one plain
// and one carrying inline [[N]] citation markers, and renders the result to
// sanitized HTML for the widget frontend.
package refs

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"parla-backend/internal/chat"
)

// firstRefIndex decides whether [[0]] or [[1]] denotes the first reference.
const firstRefIndex = 0

// fenceBreak keeps a code fence recognizable when a reference link directly
// follows it.
var fenceBreak = regexp.MustCompile("(``[`]+)(<a\\b)")

// Resolve splices the citation markers of answerWithRefs into answer. The two
// texts are aligned marker by marker: the annotated substring since the
// previous marker must, after trimming leading whitespace on both sides, be a
// prefix of the remaining plain text. Whitespace is emitted as it appeared in
// the plain stream. Once alignment diverges, resolution stops and the
// untouched plain remainder is appended.
//
// seen deduplicates citations across calls: the first occurrence of a
// reference id is assigned the next sequential ordinal, repeats reuse it.
// Marker indices outside the reference list contribute nothing.
func Resolve(answer, answerWithRefs string, references []chat.Reference, seen map[string]int, baseURL, target string) string {
	var b strings.Builder
	rest := answer
	restStart := 0
	pos := 0
	nextOrdinal := len(seen) + 1

	for {
		m, ok := nextMarker(answerWithRefs, pos)
		if !ok {
			break
		}
		prefix := answerWithRefs[pos:m.start]
		prefixTrimmed := strings.TrimLeftFunc(prefix, unicode.IsSpace)
		pos = m.end

		restTrimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if prefixTrimmed != "" && !strings.HasPrefix(restTrimmed, prefixTrimmed) {
			break
		}

		// leading whitespace comes from the plain stream, not the annotated one
		if prefixTrimmed != "" {
			if lead := len(rest) - len(restTrimmed); lead > 0 {
				b.WriteString(rest[:lead])
				rest = rest[lead:]
				restStart += lead
			}
		}

		b.WriteString(prefixTrimmed)
		rest = rest[len(prefixTrimmed):]
		restStart += len(prefixTrimmed)

		idx := m.index - firstRefIndex
		if idx < 0 || idx >= len(references) {
			continue
		}
		ref := references[idx]
		ordinal, known := seen[ref.H]
		if !known {
			ordinal = nextOrdinal
			seen[ref.H] = ordinal
			nextOrdinal++
		}
		b.WriteString(refAnchor(ordinal, baseURL+ref.H, target, ref.T))
	}

	result := fenceBreak.ReplaceAllString(b.String(), "$1\n$2")
	return result + answer[restStart:]
}

// marker is one [[N]] occurrence; start includes the whitespace run absorbed
// into the match, index is -1 when the digits do not fit an int.
type marker struct {
	start, end int
	index      int
}

func nextMarker(s string, from int) (marker, bool) {
	for i := from; ; {
		j := strings.Index(s[i:], "[[")
		if j < 0 {
			return marker{}, false
		}
		j += i
		k := j + 2
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k == j+2 || !strings.HasPrefix(s[k:], "]]") {
			i = j + 1
			continue
		}

		start := j
		for start > from {
			r, size := utf8.DecodeLastRuneInString(s[:start])
			if !unicode.IsSpace(r) {
				break
			}
			start -= size
		}
		index, err := strconv.Atoi(s[j+2 : k])
		if err != nil {
			index = -1
		}
		return marker{start: start, end: k + 2, index: index}, true
	}
}

func refAnchor(ordinal int, href, target, title string) string {
	if target == "" {
		target = "_blank"
	}
	return fmt.Sprintf(`<a class="ref" ref="%d" href="%s" target="%s" title="%s"></a>`,
		ordinal, html.EscapeString(href), html.EscapeString(target), html.EscapeString(title))
}
