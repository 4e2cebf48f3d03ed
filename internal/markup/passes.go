package markup

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tableRowRe      = regexp.MustCompile(`^\s*\|.*\|`)
	codeFenceRe     = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)\\n```")
	headingRe       = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*)$`)
	boldRe          = regexp.MustCompile(`\*\*(.+?)\*\*`)
	inlineCodeRe    = regexp.MustCompile("`(.*?)`")
	emptyQuoteRe    = regexp.MustCompile(`(?m)^>[ \t]*$`)
	quoteRe         = regexp.MustCompile(`(?m)^>[ \t]?`)
	imageRe         = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	linkRe          = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	ruleRe          = regexp.MustCompile(`(?m)^-{3,}[ \t]*$`)
	strikethroughRe = regexp.MustCompile(`~~(.*?)~~`)
	emojiNameRe     = regexp.MustCompile(`^[a-z0-9_+\-]+$`)
	mentionRe       = regexp.MustCompile(`@([A-Za-z0-9_\-]+)`)
	// Converted inline code and links, where a handle is literal text.
	mentionGuardRe  = regexp.MustCompile(`\{\{.*?\}\}|\[[^\[\]\n]*\|[^\[\]\n]*\]`)
)

// pass is one text -> text rewrite of the translation pipeline.
type pass struct {
	Name  string
	Apply func(r *run, content string) string
}

// run carries the per-call state shared by the passes of one translation.
type run struct {
	t       *Translator
	markers *markers
}

// defaultPasses is the fixed pipeline. Order matters: later patterns assume
// the earlier ones already fired.
func defaultPasses() []pass {
	return []pass{
		{Name: "code-blocks", Apply: convertCodeBlocks},
		{Name: "headings", Apply: func(_ *run, s string) string { return ConvertHeadings(s) }},
		{Name: "emphasis", Apply: convertEmphasis},
		{Name: "inline-code", Apply: func(_ *run, s string) string { return ConvertInlineCode(s) }},
		{Name: "blockquotes", Apply: func(_ *run, s string) string { return ConvertBlockquotes(s) }},
		{Name: "media-links", Apply: convertMediaAndLinks},
		{Name: "rules", Apply: func(_ *run, s string) string { return ConvertRules(s) }},
		{Name: "strikethrough", Apply: func(_ *run, s string) string { return ConvertStrikethrough(s) }},
		{Name: "lists", Apply: func(_ *run, s string) string { return strings.Join(Reindent(strings.Split(s, "\n")), "\n") }},
		{Name: "emoji", Apply: convertEmoji},
		{Name: "mentions", Apply: convertMentions},
	}
}

// findTable returns the 1-based number and text of the first table row.
func findTable(content string) (int, string, bool) {
	for i, line := range strings.Split(content, "\n") {
		if tableRowRe.MatchString(line) {
			return i + 1, line, true
		}
	}
	return 0, "", false
}

// convertCodeBlocks renders fenced blocks as {code} and parks them so no
// later pass touches their bodies.
func convertCodeBlocks(r *run, content string) string {
	return codeFenceRe.ReplaceAllStringFunc(content, func(match string) string {
		submatches := codeFenceRe.FindStringSubmatch(match)
		return r.markers.park("code", ConvertCodeBlock(submatches[1], submatches[2]))
	})
}

// ConvertCodeBlock wraps a code body in a {code} macro.
// ```go ... ``` → {code:go} ... {code}
func ConvertCodeBlock(lang, body string) string {
	if lang != "" {
		return "{code:" + lang + "}\n" + body + "\n{code}"
	}
	return "{code}\n" + body + "\n{code}"
}

// ConvertHeadings rewrites ATX headings.
// # Header → h1. Header
// ### Subsection → h3. Subsection
func ConvertHeadings(content string) string {
	return headingRe.ReplaceAllStringFunc(content, func(match string) string {
		submatches := headingRe.FindStringSubmatch(match)
		return fmt.Sprintf("h%d. %s", len(submatches[1]), submatches[2])
	})
}

// convertEmphasis protects bold spans before italics are converted, since
// both dialects use '*' for one of them.
func convertEmphasis(r *run, content string) string {
	content = boldRe.ReplaceAllStringFunc(content, func(match string) string {
		inner := boldRe.FindStringSubmatch(match)[1]
		return r.markers.park("bold", "*") + inner + r.markers.park("bold", "*")
	})
	content = ConvertItalics(content)
	return r.markers.restore(content, "bold")
}

// ConvertItalics rewrites single-star spans.
// *italic* → _italic_
//
// An opening star must not touch another star or be followed by whitespace,
// which keeps "* item" bullets intact. A closing star must not be followed
// by another star. Spans never cross a line break.
func ConvertItalics(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for i < len(content) {
		if content[i] == '*' && isItalicOpener(content, i) {
			if j := italicCloser(content, i+1); j >= 0 {
				b.WriteByte('_')
				b.WriteString(content[i+1 : j])
				b.WriteByte('_')
				i = j + 1
				continue
			}
		}
		b.WriteByte(content[i])
		i++
	}
	return b.String()
}

func isItalicOpener(s string, i int) bool {
	if i > 0 && s[i-1] == '*' {
		return false
	}
	if i+1 >= len(s) {
		return false
	}
	next := s[i+1]
	return next != '*' && next != ' ' && next != '\t' && next != '\n'
}

func italicCloser(s string, from int) int {
	for k := from; k < len(s) && s[k] != '\n'; k++ {
		if s[k] == '*' && (k+1 >= len(s) || s[k+1] != '*') {
			return k
		}
	}
	return -1
}

// ConvertInlineCode rewrites backtick spans.
// `x = 1` → {{x = 1}}
func ConvertInlineCode(content string) string {
	return inlineCodeRe.ReplaceAllString(content, "{{${1}}}")
}

// ConvertBlockquotes rewrites quoted lines. A quote marker with nothing
// after it becomes an empty line.
// > quote → bq. quote
func ConvertBlockquotes(content string) string {
	content = emptyQuoteRe.ReplaceAllString(content, "")
	return quoteRe.ReplaceAllString(content, "bq. ")
}

// convertMediaAndLinks rewrites images before links so an image is never
// read as a link with a stray '!'.
func convertMediaAndLinks(r *run, content string) string {
	content = imageRe.ReplaceAllStringFunc(content, func(match string) string {
		submatches := imageRe.FindStringSubmatch(match)
		return r.t.convertImage(submatches[1], submatches[2])
	})
	return ConvertLinks(content)
}

// convertImage renders ![alt](url) as !url|attrs!.
func (t *Translator) convertImage(alt, url string) string {
	var attrs []string
	if alt != "" {
		attrs = append(attrs, "alt="+alt)
	}
	if t.lookups.Attachments != nil {
		if local, ok := t.lookups.Attachments.Remap(url); ok {
			url = local
		} else if t.onMiss != nil {
			t.onMiss("attachment", url)
		}
		attrs = append(attrs, fmt.Sprintf("width=%d", t.imageWidth))
	}
	if len(attrs) == 0 {
		return "!" + url + "!"
	}
	return "!" + url + "|" + strings.Join(attrs, ", ") + "!"
}

// ConvertLinks rewrites links that are not images.
// [text](url) → [text|url]
func ConvertLinks(content string) string {
	matches := linkRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && content[start-1] == '!' {
			continue
		}
		b.WriteString(content[last:start])
		b.WriteString("[" + content[m[2]:m[3]] + "|" + content[m[4]:m[5]] + "]")
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}

// ConvertRules rewrites horizontal rules.
// --- → ----
func ConvertRules(content string) string {
	return ruleRe.ReplaceAllString(content, "----")
}

// ConvertStrikethrough rewrites struck spans.
// ~~text~~ → -text-
func ConvertStrikethrough(content string) string {
	return strikethroughRe.ReplaceAllString(content, "-${1}-")
}

// convertEmoji expands :shortcode: to the emoji itself. Unknown shortcodes
// are left alone, and their closing colon may open the next shortcode.
func convertEmoji(r *run, content string) string {
	var b strings.Builder
	b.Grow(len(content))

	i := 0
	for {
		open := strings.IndexByte(content[i:], ':')
		if open < 0 {
			break
		}
		open += i
		closing := strings.IndexByte(content[open+1:], ':')
		if closing < 0 {
			break
		}
		closing += open + 1

		if e, ok := r.t.emoji(content[open+1 : closing]); ok {
			b.WriteString(content[i:open])
			b.WriteString(e)
			i = closing + 1
			continue
		}
		b.WriteString(content[i:closing])
		i = closing
	}
	b.WriteString(content[i:])
	return b.String()
}

func (t *Translator) emoji(name string) (string, bool) {
	if !emojiNameRe.MatchString(name) {
		return "", false
	}
	e, ok := t.emojis.Get(name)
	if !ok || len(e.Unicode) == 0 {
		return "", false
	}
	return string(e.Unicode), true
}

// convertMentions rewrites @handle as [~shortcode]. Handles glued to a word
// character or a slash (e-mail addresses, URLs), handles inside inline code
// or links, and handles that do not resolve stay as written.
func convertMentions(r *run, content string) string {
	matches := mentionRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return content
	}
	guarded := mentionGuardRe.FindAllStringIndex(content, -1)

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && (isWordByte(content[start-1]) || content[start-1] == '/') {
			continue
		}
		if within(guarded, start) {
			continue
		}
		handle := content[m[2]:m[3]]
		code, ok := r.t.lookups.resolveMention(handle)
		if !ok {
			if r.t.onMiss != nil {
				r.t.onMiss("mention", handle)
			}
			continue
		}
		b.WriteString(content[last:start])
		b.WriteString("[~" + code + "]")
		last = end
	}
	b.WriteString(content[last:])
	return b.String()
}

// within reports whether offset falls inside one of the sorted spans.
func within(spans [][]int, offset int) bool {
	for _, sp := range spans {
		if offset < sp[0] {
			return false
		}
		if offset < sp[1] {
			return true
		}
	}
	return false
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
