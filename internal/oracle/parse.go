package oracle

import (
	"bufio"
	"strconv"
	"strings"
)

// CleanMarkdownJSON strips ```json fences models like to add.
func CleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// FirstJSONArray returns the span from the first '[' to its matching ']',
// or "" if there is none. Brackets inside JSON strings are skipped.
func FirstJSONArray(text string) string {
	text = CleanMarkdownJSON(text)
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}

	depth := 0
	inStr, esc := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// Fields parses "KEY: value" lines. Keys are uppercased; later duplicates lose.
func Fields(text string) map[string]string {
	out := map[string]string{}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(strings.Trim(sc.Text(), "*-` "))
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.ToUpper(strings.TrimSpace(strings.Trim(k, "*")))
		if k == "" || strings.Contains(k, " ") {
			continue
		}
		if _, seen := out[k]; seen {
			continue
		}
		out[k] = strings.TrimSpace(strings.Trim(v, "*` "))
	}
	return out
}

// ParseConfidence reads "0.8", "80%" or "80" into [0,1].
func ParseConfidence(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	if pct || f > 1 {
		f /= 100
	}
	if f > 1 {
		f = 1
	}
	return f, true
}
