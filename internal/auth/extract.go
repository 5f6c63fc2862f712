package auth

import (
	"net/http"
	"strings"
)

var ghTokenPrefixes = []string{"ghp_", "gho_", "ghu_", "github_pat_"}

func looksLikeGHToken(s string) bool {
	for _, p := range ghTokenPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ExtractGHToken pulls a GitHub token out of request headers.
//
// Checks, in order: x-api-key (Anthropic convention), authorization with a
// Bearer prefix (OpenAI / general), api-key (Azure convention). A value is
// only returned when it carries a known GitHub token prefix; anything else
// is ignored.
func ExtractGHToken(headers http.Header) string {
	if v := headers.Get("x-api-key"); looksLikeGHToken(v) {
		return v
	}

	if v := headers.Get("authorization"); v != "" {
		token, ok := strings.CutPrefix(v, "Bearer ")
		if !ok {
			token, ok = strings.CutPrefix(v, "bearer ")
		}
		if ok && looksLikeGHToken(token) {
			return token
		}
	}

	if v := headers.Get("api-key"); looksLikeGHToken(v) {
		return v
	}

	return ""
}
