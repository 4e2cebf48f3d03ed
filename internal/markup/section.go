package markup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
)

// emptyHeadingRe matches an ATX heading line with no text, such as "##" or
// "> ### ###".
var emptyHeadingRe = regexp.MustCompile(`^(?:[ \t]*>)*[ \t]{0,3}#{1,6}(?:[ \t]+#*)?[ \t]*$`)

// headingSpan locates a heading in the source, by line.
type headingSpan struct {
	level     int
	text      string
	firstLine int // line holding the heading text
	lastLine  int // last line the heading occupies, setext underline included
}

// ExtractSection returns the body of the first heading whose text contains
// name, ignoring case. The section runs until the next heading of the same
// or a shallower level; deeper headings stay in the result as '#' lines.
// The bool is false when no heading matches.
func ExtractSection(document, name string) (string, bool) {
	source := []byte(document)
	headings := collectHeadings(source)
	lines := strings.Split(document, "\n")

	fold := cases.Fold()
	want := fold.String(name)

	match := -1
	for i, h := range headings {
		if strings.Contains(fold.String(h.text), want) {
			match = i
			break
		}
	}
	if match < 0 {
		return "", false
	}

	level := headings[match].level
	end := len(lines)
	nested := make(map[int]headingSpan)
	for _, h := range headings[match+1:] {
		if h.level <= level {
			end = h.firstLine
			break
		}
		nested[h.firstLine] = h
	}

	var captured []string
	for ln := headings[match].lastLine + 1; ln < end; ln++ {
		if h, ok := nested[ln]; ok {
			captured = append(captured, strings.TrimSpace(strings.Repeat("#", h.level)+" "+h.text))
			ln = h.lastLine
			continue
		}
		captured = append(captured, lines[ln])
	}

	return strings.TrimSpace(strings.Join(captured, "\n")), true
}

// collectHeadings parses source and returns its headings in document order.
// Headings without text carry no source position; they are located by
// scanning forward from the last line a block before them covered.
func collectHeadings(source []byte) []headingSpan {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	starts := lineStarts(source)
	lines := strings.Split(string(source), "\n")

	var headings []headingSpan
	cursor := -1
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		segs := n.Lines()
		h, ok := n.(*ast.Heading)
		if !ok {
			if segs.Len() > 0 {
				cursor = lineOf(starts, segs.At(segs.Len()-1).Start)
			}
			return ast.WalkContinue, nil
		}

		if segs.Len() == 0 {
			for ln := cursor + 1; ln < len(lines); ln++ {
				if emptyHeadingRe.MatchString(lines[ln]) {
					headings = append(headings, headingSpan{level: h.Level, firstLine: ln, lastLine: ln})
					cursor = ln
					break
				}
			}
			return ast.WalkSkipChildren, nil
		}

		parts := make([]string, 0, segs.Len())
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			parts = append(parts, strings.TrimSpace(string(seg.Value(source))))
		}

		first := lineOf(starts, segs.At(0).Start)
		last := lineOf(starts, segs.At(segs.Len()-1).Start)
		if !isATX(source, starts[first], segs.At(0).Start) {
			last++
		}

		headings = append(headings, headingSpan{
			level:     h.Level,
			text:      strings.Join(parts, " "),
			firstLine: first,
			lastLine:  last,
		})
		cursor = last
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, c := range source {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
}

// isATX reports whether the heading text starting at textStart follows a
// run of '#'. Setext headings have only indentation or container markers
// before their text, and an underline on the next line.
func isATX(source []byte, lineStart, textStart int) bool {
	prefix := strings.TrimRight(string(source[lineStart:textStart]), " \t")
	return strings.HasSuffix(prefix, "#")
}
