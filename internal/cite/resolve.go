// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite post-processes a drafted report: inline reference markers are
// rewritten to links against the source registry and a bibliography is
// rendered. Resolution never deletes a citation: an unknown number stays in
// the text, bracketed, for a human to chase.
package cite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/deepresearch/internal/registry"
)

// markerPattern matches inline reference markers: a single bracketed integer
// ([3]) or a comma-separated list in one bracket ([2, 5, 7]).
var markerPattern = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// placeholderTitle is used in the bibliography when a source has no title.
const placeholderTitle = "Untitled"

// Resolution is the resolver's output: the rewritten text and the rendered
// bibliography lines.
type Resolution struct {
	Text         string
	Bibliography []string
}

// Resolve rewrites every reference marker in draft against the registry and
// renders the bibliography. Resolution is pure and idempotent: a marker that
// is already followed by a link target is left untouched, so re-running on
// resolved text with the same registry state is a no-op.
func Resolve(draft string, reg *registry.Registry) Resolution {
	var b strings.Builder
	last := 0

	for _, m := range markerPattern.FindAllStringSubmatchIndex(draft, -1) {
		start, end := m[0], m[1]
		b.WriteString(draft[last:start])
		last = end

		// Already resolved: "[n](" means this bracket is a link's label.
		if end < len(draft) && draft[end] == '(' {
			b.WriteString(draft[start:end])
			continue
		}

		b.WriteString(rewriteMarker(draft[m[2]:m[3]], reg))
	}
	b.WriteString(draft[last:])

	return Resolution{
		Text:         b.String(),
		Bibliography: Bibliography(reg),
	}
}

// rewriteMarker rewrites the inner number list of one marker. Each resolved
// number becomes its own linked marker; each unresolved number keeps a bare
// bracket.
func rewriteMarker(inner string, reg *registry.Registry) string {
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			// Not reachable through the pattern, but never drop a citation.
			out = append(out, "["+p+"]")
			continue
		}
		if src, ok := reg.Lookup(n); ok && src.URL != "" {
			out = append(out, fmt.Sprintf("[%d](%s)", n, src.URL))
		} else {
			out = append(out, fmt.Sprintf("[%d]", n))
		}
	}
	return strings.Join(out, ", ")
}

// Bibliography renders all registered sources in ascending reference-number
// order, one line per source.
func Bibliography(reg *registry.Registry) []string {
	sources := reg.Sources()
	lines := make([]string, 0, len(sources))
	for _, src := range sources {
		title := src.Title
		if title == "" {
			title = placeholderTitle
		}
		lines = append(lines, fmt.Sprintf("%d. %s(%s)", src.Ref, title, src.URL))
	}
	return lines
}
