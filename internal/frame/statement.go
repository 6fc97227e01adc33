package frame

import (
	"strings"
	"unicode"
)

// Statements the engine cannot use as a subquery. They are run as written.
var standaloneStatements = map[string]bool{
	"EXPLAIN": true,
	"PRAGMA":  true,
	"CALL":    true,
}

// TrimStatement removes surrounding whitespace, trailing comments and
// statement terminators from text. Text inside quotes is left alone.
func TrimStatement(text string) string {
	for {
		text = text[:significantEnd(text)]
		if !strings.HasSuffix(text, ";") {
			return strings.TrimSpace(text)
		}
		text = text[:len(text)-1]
	}
}

// significantEnd returns the offset just past the last byte of text that is
// neither whitespace nor part of a comment.
func significantEnd(text string) int {
	end := 0
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case strings.HasPrefix(text[i:], "--"):
			nl := strings.IndexByte(text[i:], '\n')
			if nl < 0 {
				return end
			}
			i += nl + 1
		case strings.HasPrefix(text[i:], "/*"):
			stop := strings.Index(text[i+2:], "*/")
			if stop < 0 {
				// Unterminated; the engine reports it.
				return len(text)
			}
			i += stop + 4
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(text) {
				if text[j] == c {
					if j+1 < len(text) && text[j+1] == c {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j >= len(text) {
				return len(text)
			}
			i = j + 1
			end = i
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		default:
			i++
			end = i
		}
	}
	return end
}

// leadingKeyword returns the first word of text in upper case and the text
// after it, skipping leading whitespace and comments.
func leadingKeyword(text string) (string, string) {
	for {
		text = strings.TrimLeftFunc(text, unicode.IsSpace)
		switch {
		case strings.HasPrefix(text, "--"):
			nl := strings.IndexByte(text, '\n')
			if nl < 0 {
				return "", ""
			}
			text = text[nl+1:]
		case strings.HasPrefix(text, "/*"):
			stop := strings.Index(text, "*/")
			if stop < 0 {
				return "", ""
			}
			text = text[stop+2:]
		default:
			end := strings.IndexFunc(text, func(r rune) bool {
				return !unicode.IsLetter(r) && r != '_'
			})
			if end < 0 {
				end = len(text)
			}
			return strings.ToUpper(text[:end]), text[end:]
		}
	}
}

// standalone reports whether text must run as written instead of as a
// subquery. EXPLAIN ANALYZE executes its statement, so it is planned like
// any other query.
func standalone(text string) bool {
	kw, rest := leadingKeyword(text)
	if !standaloneStatements[kw] {
		return false
	}
	if kw == "EXPLAIN" {
		next, _ := leadingKeyword(rest)
		return next != "ANALYZE"
	}
	return true
}
