// Package extract pulls a single JSON object out of free-form model
// output and parses it into an AnalysisResult. The two extraction stages
// are deliberately separate, documented functions: fenced code block
// first, bare brace-delimited span second.
package extract

import (
	"strings"
)

const jsonFence = "```json"

// ExtractJSONBlock locates a single JSON object in the text. A fenced
// ```json block takes precedence; otherwise the first balanced
// brace-delimited span is used. Returns false when neither stage finds
// an object.
func ExtractJSONBlock(text string) (string, bool) {
	if span, ok := ExtractFencedJSON(text); ok {
		return span, true
	}
	return ExtractBareObject(text)
}

// ExtractFencedJSON returns the object inside the first ```json code
// block. The block must contain a balanced object and be closed by a
// ``` fence; otherwise this stage reports no match and the caller falls
// through to the bare-span stage.
func ExtractFencedJSON(text string) (string, bool) {
	start := strings.Index(text, jsonFence)
	if start < 0 {
		return "", false
	}
	inner := text[start+len(jsonFence):]
	span, ok := scanObject(inner)
	if !ok {
		return "", false
	}
	rest := inner[strings.Index(inner, span)+len(span):]
	if !strings.HasPrefix(strings.TrimSpace(rest), "```") {
		return "", false
	}
	return span, true
}

// ExtractBareObject returns the first balanced {...} span in the text.
func ExtractBareObject(text string) (string, bool) {
	return scanObject(text)
}

// scanObject finds the first '{' and walks to its matching '}' while
// tracking string literals and escapes, so braces inside JSON strings do
// not unbalance the scan. Unterminated objects report no match.
func scanObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
