package script

import (
	"strconv"
	"strings"
)

// hasPrefixFold reports whether s starts with prefix, ASCII case-insensitively.
func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// extractTagSrc pulls the src attribute value out of an HTML-ish tag such as
// `<img src="p.png"/>` or `<audio src="a.mp3"></audio>`.
func extractTagSrc(s, tag string) (string, bool) {
	start := strings.Index(s, "<"+tag)
	if start < 0 {
		return "", false
	}
	rest := s[start:]
	srcPos := strings.Index(rest, "src")
	if srcPos < 0 {
		return "", false
	}
	rest = strings.TrimLeft(rest[srcPos+3:], " \t")
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	rest = strings.TrimLeft(rest[1:], " \t")
	if rest == "" {
		return "", false
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return "", false
	}
	rest = rest[1:]
	end := strings.IndexByte(rest, quote)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

func extractImgSrc(s string) (string, bool)   { return extractTagSrc(s, "img") }
func extractAudioSrc(s string) (string, bool) { return extractTagSrc(s, "audio") }

// extractKeywordValue finds a keyword such as "as" or "at" and returns the
// token after it, stopping at the next keyword boundary. Both ` kw ` and
// `>kw ` placements are accepted since tags may butt up against keywords.
func extractKeywordValue(s, keyword string) (string, bool) {
	lower := strings.ToLower(s)
	kw := strings.ToLower(keyword)

	patterns := []string{" " + kw + " ", ">" + kw + " "}
	best := -1
	patternLen := 0
	for _, pat := range patterns {
		if pos := strings.Index(lower, pat); pos >= 0 && (best < 0 || pos < best) {
			best = pos
			patternLen = len(pat)
		}
	}
	if best < 0 {
		return "", false
	}
	remaining := s[best+patternLen:]
	remainingLower := strings.ToLower(remaining)

	end := len(remaining)
	for _, term := range []string{" with ", " as ", " at ", ">with", ">as", ">at"} {
		if p := strings.Index(remainingLower, term); p >= 0 && p < end {
			end = p
		}
	}
	value := strings.TrimSpace(remaining[:end])
	if value == "" {
		return "", false
	}
	return value, true
}

// parseTransitionText parses `name` or `name(args)` into a Transition.
func parseTransitionText(s string) (*Transition, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	paren := strings.IndexByte(s, '(')
	if paren < 0 {
		return SimpleTransition(s), true
	}
	name := strings.TrimSpace(s[:paren])
	closeParen := strings.LastIndexByte(s, ')')
	if closeParen < paren || name == "" {
		return nil, false
	}
	args, err := parseTransitionArgs(s[paren+1 : closeParen])
	if err != nil {
		return nil, false
	}
	return &Transition{Name: name, Args: args}, true
}

// parseTransitionArgs splits an argument list on top-level commas and parses
// each item as a positional value or `ident: value` pair. Mixing positional
// and named arguments, or repeating a name, is rejected.
func parseTransitionArgs(s string) ([]TransitionArg, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var args []TransitionArg
	hasNamed, hasPositional := false, false
	seen := make(map[string]bool)

	for _, raw := range splitArgs(s) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if key, value, ok := parseNamedArg(raw); ok {
			if hasPositional {
				return nil, invalidLine(0, "cannot mix positional and named arguments")
			}
			if seen[key] {
				return nil, invalidLine(0, "duplicate named argument %q", key)
			}
			hasNamed = true
			seen[key] = true
			args = append(args, TransitionArg{Name: key, Value: value})
			continue
		}
		if hasNamed {
			return nil, invalidLine(0, "cannot mix positional and named arguments")
		}
		hasPositional = true
		args = append(args, TransitionArg{Value: parseArgValue(raw)})
	}
	return args, nil
}

// splitArgs splits on commas outside of string quotes.
func splitArgs(s string) []string {
	var out []string
	var current strings.Builder
	inString := false
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			current.WriteByte(c)
			if c == quote {
				inString = false
			}
		case c == '"' || c == '\'':
			inString = true
			quote = c
			current.WriteByte(c)
		case c == ',':
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if last := strings.TrimSpace(current.String()); last != "" {
		out = append(out, last)
	}
	return out
}

// parseNamedArg recognizes `key: value` where key is an identifier and the
// colon sits outside of any string quotes.
func parseNamedArg(s string) (string, Value, bool) {
	inString := false
	var quote byte
	colon := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == quote {
				inString = false
			}
		case c == '"' || c == '\'':
			inString = true
			quote = c
		case c == ':':
			colon = i
		}
		if colon >= 0 {
			break
		}
	}
	if colon < 0 {
		return "", Value{}, false
	}
	key := strings.TrimSpace(s[:colon])
	if !isIdentifier(key) {
		return "", Value{}, false
	}
	return key, parseArgValue(strings.TrimSpace(s[colon+1:])), true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// parseArgValue interprets a raw argument token: quoted string, decimal
// number, bool, or bare string.
func parseArgValue(s string) Value {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return StringValue(s[1 : len(s)-1])
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(n)
	}
	if strings.EqualFold(s, "true") {
		return BoolValue(true)
	}
	if strings.EqualFold(s, "false") {
		return BoolValue(false)
	}
	return StringValue(s)
}

// isTableSeparator recognizes `| --- | --- |` rows.
func isTableSeparator(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "|") || !strings.HasSuffix(s, "|") || len(s) < 2 {
		return false
	}
	for _, r := range s[1 : len(s)-1] {
		switch r {
		case '-', ':', '|', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// parseDialogueLine recognizes `Speaker: "content"` and `: "content"` lines,
// accepting ASCII and CJK colons and quotes.
func parseDialogueLine(s string) (speaker, content string, ok bool) {
	s = strings.TrimSpace(s)

	colonPos, colonLen := -1, 0
	if p := strings.Index(s, "："); p >= 0 {
		colonPos, colonLen = p, len("：")
	} else if p := strings.IndexByte(s, ':'); p >= 0 {
		colonPos, colonLen = p, 1
	}
	if colonPos < 0 {
		return "", "", false
	}

	speaker = strings.TrimSpace(s[:colonPos])
	content, ok = extractQuoted(strings.TrimSpace(s[colonPos+colonLen:]))
	if !ok {
		return "", "", false
	}
	return speaker, content, true
}

// extractQuoted pulls the content out of "…" or CJK “…” quotes.
func extractQuoted(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if s[0] == '"' {
		end := strings.IndexByte(s[1:], '"')
		if end < 0 {
			return "", false
		}
		return s[1 : 1+end], true
	}
	const cjkOpen, cjkClose = "“", "”"
	if strings.HasPrefix(s, cjkOpen) {
		rest := s[len(cjkOpen):]
		end := strings.Index(rest, cjkClose)
		if end < 0 {
			return "", false
		}
		return rest[:end], true
	}
	return "", false
}
