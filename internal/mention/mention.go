// Package mention extracts @-reference tokens from comment text. Resolution
// against known collaborators happens in the service layer; this package only
// tokenizes.
package mention

import "regexp"

// Tokens are either a bare word (@alice) or a quoted phrase (@"Bob Smith").
var tokenPattern = regexp.MustCompile(`@(\w+|"[^"]+")`)

// Tokens returns the mention tokens found in text, quotes stripped, in order
// of appearance. Duplicate tokens are collapsed.
func Tokens(text string) []string {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		token := match[1]
		if len(token) >= 2 && token[0] == '"' {
			token = token[1 : len(token)-1]
		}
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
