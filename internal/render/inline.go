package render

import (
	"html"
	"strings"
)

// inline renders a block interior through the inline grammar: HTML escaping
// first, then token substitution.
func (r *renderer) inline(text string) string {
	return applyInline(html.EscapeString(text), true)
}

// applyInline is the inline tokenizer. It scans escaped text left to right,
// trying token openers in fixed precedence order -- bold, italic,
// strikethrough, inline code, link, image -- and recursing into the interior
// of formatting spans. At the top level, text runs that end up outside any
// produced tag are wrapped in an atomic plain-text span so the host editor
// can address the smallest editable run.
func applyInline(text string, topLevel bool) string {
	var out strings.Builder
	var plain strings.Builder

	flushPlain := func() {
		if plain.Len() == 0 {
			return
		}
		if topLevel {
			out.WriteString(`<span class="plain">` + plain.String() + `</span>`)
		} else {
			out.WriteString(plain.String())
		}
		plain.Reset()
	}

	i := 0
	for i < len(text) {
		tag, consumed := matchInlineToken(text[i:])
		if consumed == 0 {
			plain.WriteByte(text[i])
			i++
			continue
		}
		flushPlain()
		out.WriteString(tag)
		i += consumed
	}
	flushPlain()

	return out.String()
}

// matchInlineToken tries every inline construct at the start of text, in
// precedence order. It returns the rendered HTML and the number of input
// bytes consumed, or ("", 0) when no token starts here.
func matchInlineToken(text string) (string, int) {
	if inner, total, ok := spanToken(text, "**"); ok {
		return "<strong>" + applyInline(inner, false) + "</strong>", total
	}
	if inner, total, ok := spanToken(text, "__"); ok {
		return "<strong>" + applyInline(inner, false) + "</strong>", total
	}
	if inner, total, ok := spanToken(text, "*"); ok {
		return "<em>" + applyInline(inner, false) + "</em>", total
	}
	if inner, total, ok := spanToken(text, "_"); ok {
		return "<em>" + applyInline(inner, false) + "</em>", total
	}
	if inner, total, ok := spanToken(text, "~~"); ok {
		return "<del>" + applyInline(inner, false) + "</del>", total
	}
	if inner, total, ok := spanToken(text, "`"); ok {
		// Code span interiors are literal (already HTML-escaped).
		return "<code>" + inner + "</code>", total
	}
	if strings.HasPrefix(text, "![") {
		if alt, url, total, ok := bracketPair(text[1:]); ok {
			return `<img src="` + url + `" alt="` + alt + `">`, total + 1
		}
	}
	if strings.HasPrefix(text, "[") {
		if label, url, total, ok := bracketPair(text); ok {
			return `<a href="` + url + `">` + applyInline(label, false) + `</a>`, total
		}
	}
	return "", 0
}

// spanToken matches delimiter...delimiter with a non-empty interior that does
// not start with the delimiter again (so "**x**" is not consumed as "*"),
// returning the interior and the total length including both delimiters.
func spanToken(text, delim string) (string, int, bool) {
	if !strings.HasPrefix(text, delim) {
		return "", 0, false
	}
	rest := text[len(delim):]
	if rest == "" || strings.HasPrefix(rest, delim) {
		return "", 0, false
	}
	end := strings.Index(rest, delim)
	if end <= 0 {
		return "", 0, false
	}
	return rest[:end], len(delim)*2 + end, true
}

// bracketPair matches [label](url) at the start of text.
func bracketPair(text string) (label, url string, total int, ok bool) {
	if !strings.HasPrefix(text, "[") {
		return "", "", 0, false
	}
	close := strings.Index(text, "]")
	if close < 0 || close+1 >= len(text) || text[close+1] != '(' {
		return "", "", 0, false
	}
	end := strings.Index(text[close+2:], ")")
	if end < 0 {
		return "", "", 0, false
	}
	return text[1:close], text[close+2 : close+2+end], close + 2 + end + 1, true
}
