package markup

import (
	"regexp"
	"strings"
)

var (
	orderedItemRe   = regexp.MustCompile(`^(\s*)\d+\.\s+(.*)$`)
	unorderedItemRe = regexp.MustCompile(`^(\s*)[-*]\s+(.*)$`)
	depthMarkerRe   = regexp.MustCompile(`^([*#]+) `)
)

// Reindent turns visually nested list items into depth-prefixed Jira items.
// Ordered items get '#' per level, unordered items '*', decided by each
// line's own marker.
//
// The indent stack holds the leading-whitespace width of each open level.
// A deeper indent opens a level; a shallower one pops every level wider
// than itself and opens a new level if it lands on an unseen column. Any
// line that is not a list item, blank lines included, clears the stack.
func Reindent(lines []string) []string {
	out := make([]string, 0, len(lines))
	var stack []int

	for _, line := range lines {
		marker, indent, content, ok := parseListItem(line)
		if !ok {
			stack = stack[:0]
			out = append(out, line)
			continue
		}

		switch {
		case len(stack) == 0:
			stack = append(stack, indent)
		case indent > stack[len(stack)-1]:
			stack = append(stack, indent)
		default:
			for len(stack) > 0 && indent < stack[len(stack)-1] {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 || stack[len(stack)-1] != indent {
				stack = append(stack, indent)
			}
		}

		out = append(out, strings.Repeat(marker, len(stack))+" "+content)
	}
	return out
}

// parseListItem splits a list line into its Jira marker character, indent
// width and content. Ordered items are checked first.
func parseListItem(line string) (marker string, indent int, content string, ok bool) {
	if m := orderedItemRe.FindStringSubmatch(line); m != nil {
		return "#", len(m[1]), m[2], true
	}
	if m := unorderedItemRe.FindStringSubmatch(line); m != nil {
		return "*", len(m[1]), m[2], true
	}
	return "", 0, "", false
}

// Depth reads the nesting depth back from a re-indented line.
func Depth(line string) (int, bool) {
	m := depthMarkerRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return len(m[1]), true
}
